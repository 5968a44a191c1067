package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/jimezsa/jobfinder/internal/config"
	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/jimezsa/jobfinder/internal/schedule"
	"github.com/jimezsa/jobfinder/internal/scraper"
	"github.com/jimezsa/jobfinder/internal/store"
	"github.com/jimezsa/jobfinder/internal/ui"
	"github.com/rs/zerolog"
)

type stubElement struct {
	text string
	href string
}

func (e stubElement) Text() (string, error) { return e.text, nil }

func (e stubElement) Attribute(name string) (string, bool, error) {
	if name == "href" && e.href != "" {
		return e.href, true, nil
	}
	return "", false, nil
}

func (e stubElement) InnerHTML() (string, error) { return "<p>" + e.text + "</p>", nil }

func (e stubElement) Click() error { return render.ErrUnsupported }

// stubSurface serves a search page of anchors and detail pages keyed by URL.
type stubSurface struct {
	anchors []string
	details map[string]map[string]string
	current string
	closed  bool
}

func (s *stubSurface) Navigate(_ context.Context, url string) error {
	s.current = url
	return nil
}

func (s *stubSurface) FindAll(context.Context, string) ([]render.Element, error) {
	if _, ok := s.details[s.current]; ok {
		return nil, nil
	}
	out := make([]render.Element, 0, len(s.anchors))
	for _, href := range s.anchors {
		out = append(out, stubElement{href: href})
	}
	return out, nil
}

func (s *stubSurface) FindOne(_ context.Context, selector string) (render.Element, error) {
	if text, ok := s.details[s.current][selector]; ok {
		return stubElement{text: text}, nil
	}
	return nil, render.ErrNotFound
}

func (s *stubSurface) WaitFor(ctx context.Context, selector string, _ time.Duration) (render.Element, error) {
	el, err := s.FindOne(ctx, selector)
	if err != nil {
		return nil, render.ErrTimeout
	}
	return el, nil
}

func (s *stubSurface) ScrollToBottom(context.Context) error { return nil }
func (s *stubSurface) ScrollBy(context.Context, int) error  { return nil }

func (s *stubSurface) Close() error {
	s.closed = true
	return nil
}

func newStubSurface() *stubSurface {
	return &stubSurface{
		anchors: []string{
			"https://www.linkedin.com/jobs/view/1?refId=x",
			"https://www.linkedin.com/jobs/view/2?refId=y",
			"https://www.linkedin.com/jobs/view/1?refId=z",
		},
		details: map[string]map[string]string{
			"https://www.linkedin.com/jobs/view/1": {
				"h1.top-card-layout__title":       "Data Scientist",
				"a.topcard__org-name-link":        "Acme",
				"span.topcard__flavor--bullet":    "Haifa, Israel",
				"div.show-more-less-html__markup": "PhD preferred, 4-6 years of experience",
			},
			"https://www.linkedin.com/jobs/view/2": {
				"h1.top-card-layout__title": "Junior Analyst",
				"span.topcard__flavor":      "Beta",
				"div.description__text":     "Entry-level role",
			},
		},
	}
}

func testContext(t *testing.T, surface render.Surface) (*Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JOBFINDER_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("JOBFINDER_PROXIES", "")

	cfg := config.DefaultConfig()
	cfg.OutputFile = filepath.Join(dir, "job_listings.csv")
	cfg.LastRunFile = filepath.Join(dir, "last_run.txt")
	cfg.Engine = config.EngineStatic
	for name := range cfg.Delays {
		cfg.Delays[name] = config.Delay{}
	}

	var out bytes.Buffer
	return &Context{
		Out:       &out,
		Err:       io.Discard,
		UI:        ui.New(io.Discard, io.Discard, ui.ColorNever, true),
		Config:    cfg,
		ConfigDir: filepath.Join(dir, "config"),
		Logger:    zerolog.Nop(),
		OpenSurface: func(context.Context, config.Config, []string) (render.Surface, error) {
			return surface, nil
		},
	}, &out
}

func TestRunOnceMergesIntoCSV(t *testing.T) {
	surface := newStubSurface()
	ctx, _ := testContext(t, surface)
	ctx.Config.SQLitePath = filepath.Join(t.TempDir(), "jobs.db")

	summary, err := runOnce(context.Background(), ctx, RunOptions{})
	if err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	if summary.Scraped != 2 || summary.Stats.Added != 2 || summary.SQLite != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatalf("summary has no run id")
	}
	if !surface.closed {
		t.Fatalf("surface not closed")
	}

	records, err := store.ReadCSV(ctx.Config.OutputFile)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	first := records[0]
	if first.Location != "Haifa" || first.Degree != "PhD" || first.Experience != "6" {
		t.Fatalf("records[0] = %+v", first)
	}
	second := records[1]
	if second.Company != "Beta" || second.Location != models.DefaultRegion || second.Experience != "0" {
		t.Fatalf("records[1] = %+v", second)
	}
	if _, ok, err := store.ReadLastRun(ctx.Config.LastRunFile); err != nil || !ok {
		t.Fatalf("ReadLastRun() = %v, %v", ok, err)
	}

	summary, err = runOnce(context.Background(), ctx, RunOptions{})
	if err != nil {
		t.Fatalf("second runOnce() error = %v", err)
	}
	if summary.Stats.Added != 0 || summary.Stats.TotalOut != 2 {
		t.Fatalf("second summary = %+v", summary)
	}
}

func TestRunOnceWithoutListingsWritesNothing(t *testing.T) {
	surface := &stubSurface{}
	ctx, _ := testContext(t, surface)

	summary, err := runOnce(context.Background(), ctx, RunOptions{})
	if err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	if summary.Scraped != 0 {
		t.Fatalf("Scraped = %d, want 0", summary.Scraped)
	}
	for _, path := range []string{ctx.Config.OutputFile, ctx.Config.LastRunFile} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%s exists after empty run", path)
		}
	}
}

func TestRunOnceRejectsInvalidConfig(t *testing.T) {
	ctx, _ := testContext(t, &stubSurface{})
	ctx.Config.StallThreshold = 0
	if _, err := runOnce(context.Background(), ctx, RunOptions{}); err == nil {
		t.Fatalf("runOnce() error = nil, want invalid config")
	}
}

func TestRunOncePrintsFormat(t *testing.T) {
	ctx, out := testContext(t, newStubSurface())
	if _, err := runOnce(context.Background(), ctx, RunOptions{Format: "json"}); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	if !strings.Contains(out.String(), `"job_url": "https://www.linkedin.com/jobs/view/2"`) {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestApplyRunOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	got := applyRunOptions(cfg, RunOptions{
		Query:        " ml engineer ",
		Location:     "Haifa",
		Limit:        5,
		EnforceLimit: true,
		Engine:       config.EngineStatic,
		Headed:       true,
		Output:       "out.csv",
	})
	if got.SearchTerm != "ml engineer" || got.Location != "Haifa" || got.MaxJobs != 5 {
		t.Fatalf("applyRunOptions() = %+v", got)
	}
	if !got.EnforceLimit || got.Engine != config.EngineStatic || got.Headless || got.OutputFile != "out.csv" {
		t.Fatalf("applyRunOptions() = %+v", got)
	}
	if got.LastRunFile != cfg.LastRunFile {
		t.Fatalf("LastRunFile = %q, want unchanged", got.LastRunFile)
	}
}

func TestPacingDelays(t *testing.T) {
	delays := pacingDelays(map[string]config.Delay{
		"between_listings": {MinMS: 100, MaxMS: 200},
		"unknown":          {MinMS: 1, MaxMS: 2},
	})
	if got := delays[scraper.PauseBetweenListings]; got.Min != 100*time.Millisecond || got.Max != 200*time.Millisecond {
		t.Fatalf("between_listings = %+v", got)
	}
	if got := delays[scraper.PauseAfterSearchLoad]; got.Min != 4*time.Second {
		t.Fatalf("after_search_load = %+v, want default", got)
	}
	if _, ok := delays[scraper.PausePoint("unknown")]; ok {
		t.Fatalf("unknown pause point kept")
	}
}

func TestMergeCmd(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.csv")
	input := filepath.Join(dir, "input.csv")
	out := filepath.Join(dir, "merged.csv")

	if err := store.WriteCSV(base, []models.Record{{Title: "Kept", URL: "https://www.linkedin.com/jobs/view/1"}}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if err := store.WriteCSV(input, []models.Record{
		{Title: "Dropped", URL: "https://www.linkedin.com/jobs/view/1"},
		{Title: "Added", URL: "https://www.linkedin.com/jobs/view/2"},
	}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	var stdout bytes.Buffer
	ctx := &Context{Out: &stdout}
	cmd := &MergeCmd{Base: base, Input: input, Out: out, Stats: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stdout.String() != "total_base=1 total_input=2 invalid_skipped=0 added=1 total_out=2\n" {
		t.Fatalf("stats = %q", stdout.String())
	}

	merged, err := store.ReadCSV(out)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(merged) != 2 || merged[0].Title != "Kept" || merged[1].Title != "Added" {
		t.Fatalf("merged = %+v", merged)
	}
	if baseRecords, _ := store.ReadCSV(base); len(baseRecords) != 1 {
		t.Fatalf("base modified with --out set")
	}
}

func TestStatusReport(t *testing.T) {
	ctx, _ := testContext(t, &stubSurface{})

	report, err := buildStatus(context.Background(), ctx, "", "")
	if err != nil {
		t.Fatalf("buildStatus() error = %v", err)
	}
	if report.Records != 0 || report.LastRun != nil {
		t.Fatalf("empty report = %+v", report)
	}

	last := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	if err := store.WriteLastRun(ctx.Config.LastRunFile, last); err != nil {
		t.Fatalf("WriteLastRun() error = %v", err)
	}
	if err := store.WriteCSV(ctx.Config.OutputFile, []models.Record{{URL: "a"}, {URL: "b"}}); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	report, err = buildStatus(context.Background(), ctx, "", "")
	if err != nil {
		t.Fatalf("buildStatus() error = %v", err)
	}
	if report.Records != 2 || !report.LastRun.Equal(last) {
		t.Fatalf("report = %+v", report)
	}
	if want := last.Add(12 * time.Hour); !report.NextRun.Equal(want) {
		t.Fatalf("NextRun = %v, want %v", report.NextRun, want)
	}
}

func TestScheduleInterval(t *testing.T) {
	ctx := &Context{Config: config.Config{IntervalHours: 12}}

	got, err := (&ScheduleCmd{}).interval(ctx)
	if err != nil || got != 12*time.Hour {
		t.Fatalf("interval() = %v, %v; want 12h", got, err)
	}
	got, err = (&ScheduleCmd{IntervalHours: 0.25}).interval(ctx)
	if err != nil || got != 15*time.Minute {
		t.Fatalf("interval() = %v, %v; want 15m", got, err)
	}
	if _, err := (&ScheduleCmd{IntervalHours: -1}).interval(ctx); err == nil {
		t.Fatalf("interval() error = nil for negative hours")
	}
}

func TestRodOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Headless = false
	cfg.BrowserPath = "/opt/chrome"
	cfg.ImplicitWaitMS = 10000

	opts := rodOptions(cfg, []string{"http://p1:8080", "http://p2:8080"})
	if opts.ImplicitWait != 10*time.Second {
		t.Fatalf("ImplicitWait = %v, want 10s", opts.ImplicitWait)
	}
	if opts.Headless || opts.BinPath != "/opt/chrome" || opts.Proxy != "http://p1:8080" {
		t.Fatalf("rodOptions() = %+v", opts)
	}

	cfg.ImplicitWaitMS = 0
	if opts := rodOptions(cfg, nil); opts.ImplicitWait != 0 || opts.Proxy != "" {
		t.Fatalf("rodOptions() = %+v, want no wait and no proxy", opts)
	}
}

func TestStatusReportsLiveSchedulerAndSQLite(t *testing.T) {
	ctx, _ := testContext(t, &stubSurface{})
	ctx.Config.SQLitePath = filepath.Join(t.TempDir(), "jobs.db")

	report, err := buildStatus(context.Background(), ctx, "", "")
	if err != nil {
		t.Fatalf("buildStatus() error = %v", err)
	}
	if report.SQLiteRecords != nil || report.Scheduler != nil {
		t.Fatalf("report = %+v, want no sqlite and no scheduler", report)
	}
	if _, err := os.Stat(ctx.Config.SQLitePath); !os.IsNotExist(err) {
		t.Fatalf("status created the sqlite file: %v", err)
	}

	if _, err := saveSQLite(context.Background(), ctx.Config.SQLitePath, []models.Record{{URL: "a"}, {URL: "b"}, {URL: "c"}}); err != nil {
		t.Fatalf("saveSQLite() error = %v", err)
	}

	next := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	statePath := filepath.Join(ctx.ConfigDir, scheduleStateFile)
	if err := store.WriteJSON(statePath, schedule.State{NextRun: next, Running: true, Skipped: 2}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	// A state file without a lock holder is stale.
	report, err = buildStatus(context.Background(), ctx, "", "")
	if err != nil {
		t.Fatalf("buildStatus() error = %v", err)
	}
	if report.Scheduler != nil {
		t.Fatalf("Scheduler = %+v, want nil without a lock holder", report.Scheduler)
	}
	if report.SQLiteRecords == nil || *report.SQLiteRecords != 3 {
		t.Fatalf("SQLiteRecords = %v, want 3", report.SQLiteRecords)
	}

	lock := flock.New(filepath.Join(ctx.ConfigDir, scheduleLockFile))
	if ok, err := lock.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	defer lock.Unlock()

	report, err = buildStatus(context.Background(), ctx, "", "")
	if err != nil {
		t.Fatalf("buildStatus() error = %v", err)
	}
	if report.Scheduler == nil || !report.Scheduler.Running || report.Scheduler.Skipped != 2 {
		t.Fatalf("Scheduler = %+v", report.Scheduler)
	}
	if report.NextRun == nil || !report.NextRun.Equal(next) {
		t.Fatalf("NextRun = %v, want %v", report.NextRun, next)
	}
}
