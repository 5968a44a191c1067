package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "jobfinder"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
)

const (
	EngineBrowser = "browser"
	EngineStatic  = "static"
)

// Delay is a pacing window in milliseconds.
type Delay struct {
	MinMS int `json:"min_ms"`
	MaxMS int `json:"max_ms"`
}

// Config contains run settings. Delays are keyed by pause point name.
type Config struct {
	SearchTerm      string           `json:"search_term"`
	Location        string           `json:"location"`
	MaxJobs         int              `json:"max_jobs"`
	EnforceLimit    bool             `json:"enforce_limit"`
	OutputFile      string           `json:"output_file"`
	LastRunFile     string           `json:"last_run_file"`
	SQLitePath      string           `json:"sqlite_path"`
	IntervalHours   float64          `json:"interval_hours"`
	Engine          string           `json:"engine"`
	Headless        bool             `json:"headless"`
	BrowserPath     string           `json:"browser_path"`
	Region          string           `json:"region"`
	MaxScrollCycles int              `json:"max_scroll_cycles"`
	StallThreshold  int              `json:"stall_threshold"`
	ImplicitWaitMS  int              `json:"implicit_wait_ms"`
	Delays          map[string]Delay `json:"delays"`
}

func DefaultConfig() Config {
	return Config{
		SearchTerm:      envString("JOBFINDER_SEARCH_TERM", "data scientist"),
		Location:        envString("JOBFINDER_LOCATION", "Israel"),
		MaxJobs:         envInt("JOBFINDER_MAX_JOBS", 50),
		EnforceLimit:    envBool("JOBFINDER_ENFORCE_LIMIT", false),
		OutputFile:      envString("JOBFINDER_OUTPUT_FILE", "job_listings.csv"),
		LastRunFile:     envString("JOBFINDER_LAST_RUN_FILE", "last_run.txt"),
		SQLitePath:      envString("JOBFINDER_SQLITE_PATH", ""),
		IntervalHours:   envFloat("JOBFINDER_INTERVAL_HOURS", 12),
		Engine:          envString("JOBFINDER_ENGINE", EngineBrowser),
		Headless:        envBool("JOBFINDER_HEADLESS", true),
		BrowserPath:     envString("JOBFINDER_BROWSER_PATH", ""),
		Region:          envString("JOBFINDER_REGION", "Israel"),
		MaxScrollCycles: envInt("JOBFINDER_MAX_SCROLL_CYCLES", 20),
		StallThreshold:  envInt("JOBFINDER_STALL_THRESHOLD", 3),
		ImplicitWaitMS:  envInt("JOBFINDER_IMPLICIT_WAIT_MS", 10000),
		Delays: map[string]Delay{
			"after_search_load": {4000, 6000},
			"after_scroll":      {3000, 5000},
			"scroll_jitter":     {0, 1000},
			"after_detail_load": {2000, 4000},
			"after_expand":      {1000, 1000},
			"between_listings":  {2000, 5000},
		},
	}
}

// Validate rejects settings the scraper cannot run with.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineBrowser, EngineStatic:
	default:
		return fmt.Errorf("engine must be %q or %q, got %q", EngineBrowser, EngineStatic, c.Engine)
	}
	if strings.TrimSpace(c.SearchTerm) == "" {
		return errors.New("search_term is required")
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return errors.New("output_file is required")
	}
	if c.MaxScrollCycles <= 0 {
		return fmt.Errorf("max_scroll_cycles must be positive, got %d", c.MaxScrollCycles)
	}
	if c.StallThreshold <= 0 {
		return fmt.Errorf("stall_threshold must be positive, got %d", c.StallThreshold)
	}
	if c.ImplicitWaitMS < 0 {
		return fmt.Errorf("implicit_wait_ms must not be negative, got %d", c.ImplicitWaitMS)
	}
	if c.IntervalHours <= 0 {
		return fmt.Errorf("interval_hours must be positive, got %v", c.IntervalHours)
	}
	for name, d := range c.Delays {
		if d.MinMS < 0 || d.MaxMS < d.MinMS {
			return fmt.Errorf("delay %q: invalid range %d-%d ms", name, d.MinMS, d.MaxMS)
		}
	}
	return nil
}

// ConfigDir is JOBFINDER_CONFIG_DIR when set, else jobfinder under the user
// config directory.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("JOBFINDER_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults. A missing or blank file yields the
// defaults; delay entries in the file replace only the points they name.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	defaults := cfg.Delays
	cfg.Delays = nil
	if err := json5.Unmarshal(data, &cfg); err != nil {
		cfg.Delays = defaults
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	for name, d := range defaults {
		if _, ok := cfg.Delays[name]; !ok {
			if cfg.Delays == nil {
				cfg.Delays = map[string]Delay{}
			}
			cfg.Delays[name] = d
		}
	}

	return cfg, nil
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte("# one proxy URL per line\n"), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("JOBFINDER_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
