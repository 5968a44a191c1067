package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jimezsa/jobfinder/internal/config"
	"github.com/jimezsa/jobfinder/internal/export"
	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/jimezsa/jobfinder/internal/network"
	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/jimezsa/jobfinder/internal/scraper"
	"github.com/jimezsa/jobfinder/internal/store"
	"github.com/rs/zerolog"
)

type RunCmd struct {
	RunOptions
}

// RunOptions override the config for a single invocation.
type RunOptions struct {
	Query        string `arg:"" optional:"" help:"Search term (default from config)."`
	Location     string `help:"Search location." short:"l"`
	Limit        int    `help:"Advisory result count; enforced only with --enforce-limit."`
	EnforceLimit bool   `help:"Stop extracting once --limit listings are collected."`
	Engine       string `help:"Render engine: browser or static." enum:",browser,static" default:""`
	Headed       bool   `help:"Show the browser window."`
	Output       string `name:"output" short:"o" help:"CSV file to merge results into."`
	LastRun      string `name:"last-run" help:"File recording the last successful run."`
	SQLite       string `name:"sqlite" help:"Also store results in this SQLite database."`
	Proxies      string `help:"Comma-separated proxy URLs." env:"JOBFINDER_PROXIES"`
	Format       string `help:"Also print this run's records: table, csv, tsv, json, md." enum:",table,csv,tsv,json,md" default:""`
}

func (r *RunCmd) Run(ctx *Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err := runOnce(sigCtx, ctx, r.RunOptions)
	return err
}

type runSummary struct {
	RunID   string
	Scraped int
	Stats   store.MergeStats
	SQLite  int
}

// applyRunOptions layers flags over the loaded config.
func applyRunOptions(cfg config.Config, opts RunOptions) config.Config {
	if v := strings.TrimSpace(opts.Query); v != "" {
		cfg.SearchTerm = v
	}
	if v := strings.TrimSpace(opts.Location); v != "" {
		cfg.Location = v
	}
	if opts.Limit > 0 {
		cfg.MaxJobs = opts.Limit
	}
	if opts.EnforceLimit {
		cfg.EnforceLimit = true
	}
	if opts.Engine != "" {
		cfg.Engine = opts.Engine
	}
	if opts.Headed {
		cfg.Headless = false
	}
	if v := strings.TrimSpace(opts.Output); v != "" {
		cfg.OutputFile = v
	}
	if v := strings.TrimSpace(opts.LastRun); v != "" {
		cfg.LastRunFile = v
	}
	if v := strings.TrimSpace(opts.SQLite); v != "" {
		cfg.SQLitePath = v
	}
	return cfg
}

func runOnce(ctx context.Context, c *Context, opts RunOptions) (runSummary, error) {
	cfg := applyRunOptions(c.Config, opts)
	if err := cfg.Validate(); err != nil {
		return runSummary{}, fmt.Errorf("invalid config: %w", err)
	}

	summary := runSummary{RunID: uuid.NewString()}
	logger := c.Logger.With().Str("run_id", summary.RunID).Logger()

	proxies, err := config.LoadProxies(opts.Proxies)
	if err != nil {
		return summary, err
	}

	opener := c.OpenSurface
	if opener == nil {
		opener = openSurface
	}
	surface, err := opener(ctx, cfg, proxies)
	if err != nil {
		return summary, fmt.Errorf("open %s engine: %w", cfg.Engine, err)
	}
	defer func() {
		if err := surface.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing surface")
		}
	}()

	pipeline := newPipeline(cfg, surface, logger)
	pipeline.OnListing = func(l models.JobListing) {
		logger.Info().
			Str("url", l.URL).
			Str("title", l.Title).
			Str("company", l.Company).
			Str("degree", l.Degree).
			Str("experience", l.Experience).
			Msg("listing built")
	}

	params := models.SearchParams{Query: cfg.SearchTerm, Location: cfg.Location, Limit: cfg.MaxJobs}
	started := time.Now()
	listings, runErr := pipeline.Run(ctx, params)
	summary.Scraped = len(listings)

	if len(listings) == 0 {
		if runErr != nil {
			return summary, runErr
		}
		if c.UI != nil {
			c.UI.Warnf("No listings found; nothing written.")
		}
		return summary, nil
	}

	records := export.Records(listings, started)
	summary.Stats, err = store.NewCSVStore(cfg.OutputFile).Merge(records)
	if err != nil {
		return summary, errors.Join(runErr, err)
	}

	if cfg.SQLitePath != "" {
		summary.SQLite, err = saveSQLite(ctx, cfg.SQLitePath, records)
		if err != nil {
			return summary, errors.Join(runErr, err)
		}
	}

	if runErr == nil {
		if err := store.WriteLastRun(cfg.LastRunFile, time.Now()); err != nil {
			return summary, fmt.Errorf("write last run: %w", err)
		}
	}

	if opts.Format != "" {
		if err := export.WriteRecords(c.Out, records, export.ParseFormat(opts.Format), export.WriteOptions{
			ColorEnabled: c.UI != nil && c.UI.ColorEnabled,
			LinkStyle:    export.LinkStyleFull,
		}); err != nil {
			return summary, err
		}
	}

	printRunSummary(c, cfg, summary)
	logger.Info().
		Int("scraped", summary.Scraped).
		Int("added", summary.Stats.Added).
		Int("total", summary.Stats.TotalOut).
		Dur("took", time.Since(started)).
		Msg("run complete")
	return summary, runErr
}

func newPipeline(cfg config.Config, surface render.Surface, logger zerolog.Logger) *scraper.Pipeline {
	pacer := scraper.NewRandomPacer(pacingDelays(cfg.Delays))

	collector := scraper.NewCollector(surface, pacer, logger)
	collector.MaxCycles = cfg.MaxScrollCycles
	collector.StallThreshold = cfg.StallThreshold

	extractor := scraper.NewExtractor(surface, pacer, logger)
	extractor.Region = cfg.Region

	pipeline := scraper.NewPipeline(collector, extractor, pacer, logger)
	pipeline.Region = cfg.Region
	pipeline.EnforceLimit = cfg.EnforceLimit
	return pipeline
}

// pacingDelays converts configured millisecond windows; unknown names are
// ignored and missing points keep their defaults.
func pacingDelays(configured map[string]config.Delay) map[scraper.PausePoint]scraper.DelayRange {
	delays := scraper.DefaultDelays()
	for point := range delays {
		if d, ok := configured[string(point)]; ok {
			delays[point] = scraper.DelayRange{
				Min: time.Duration(d.MinMS) * time.Millisecond,
				Max: time.Duration(d.MaxMS) * time.Millisecond,
			}
		}
	}
	return delays
}

func openSurface(_ context.Context, cfg config.Config, proxies []string) (render.Surface, error) {
	switch cfg.Engine {
	case config.EngineStatic:
		var rotator *network.Rotator
		if len(proxies) > 0 {
			var err error
			rotator, err = network.NewRotator(proxies, 10*time.Minute)
			if err != nil {
				return nil, err
			}
		}
		client, err := network.NewClient(rotator, network.NewHostLimiter(0.5, 1), 30*time.Second)
		if err != nil {
			return nil, err
		}
		return render.NewStaticSurface(client), nil
	default:
		return render.NewRodSurface(rodOptions(cfg, proxies))
	}
}

// rodOptions hands Chrome the first proxy only; it has no per-request rotation.
func rodOptions(cfg config.Config, proxies []string) render.RodOptions {
	opts := render.RodOptions{
		Headless:          cfg.Headless,
		ImplicitWait:      time.Duration(cfg.ImplicitWaitMS) * time.Millisecond,
		NavigationTimeout: 60 * time.Second,
		BinPath:           cfg.BrowserPath,
	}
	if len(proxies) > 0 {
		opts.Proxy = proxies[0]
	}
	return opts
}

func saveSQLite(ctx context.Context, path string, records []models.Record) (int, error) {
	sink, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer sink.Close()

	added, err := sink.Save(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("save sqlite %s: %w", path, err)
	}
	return added, nil
}

func printRunSummary(c *Context, cfg config.Config, summary runSummary) {
	if c == nil || c.UI == nil {
		return
	}
	c.UI.Successf("summary: scraped=%d added=%d total=%d file=%s",
		summary.Scraped, summary.Stats.Added, summary.Stats.TotalOut, cfg.OutputFile)
	if cfg.SQLitePath != "" {
		c.UI.Infof("sqlite: added=%d db=%s", summary.SQLite, cfg.SQLitePath)
	}
}
