package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/gofrs/flock"
	"github.com/jimezsa/jobfinder/internal/schedule"
	"github.com/jimezsa/jobfinder/internal/store"
)

type StatusCmd struct {
	Output  string `name:"output" short:"o" help:"CSV file to inspect (default from config)."`
	LastRun string `name:"last-run" help:"Last-run file to inspect (default from config)."`
}

type statusReport struct {
	OutputFile    string           `json:"output_file"`
	Records       int              `json:"records"`
	SQLitePath    string           `json:"sqlite_path,omitempty"`
	SQLiteRecords *int             `json:"sqlite_records,omitempty"`
	LastRun       *time.Time       `json:"last_run,omitempty"`
	NextRun       *time.Time       `json:"next_run,omitempty"`
	Scheduler     *schedulerStatus `json:"scheduler,omitempty"`
}

// schedulerStatus is the last state a live scheduler reported.
type schedulerStatus struct {
	Running   bool      `json:"running"`
	Skipped   int       `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *StatusCmd) Run(ctx *Context) error {
	report, err := buildStatus(context.Background(), ctx, s.Output, s.LastRun)
	if err != nil {
		return err
	}

	if ctx.JSONOutput {
		return writeJSON(ctx.Out, report)
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "output_file\t%s\n", report.OutputFile)
	fmt.Fprintf(tw, "records\t%d\n", report.Records)
	if report.SQLiteRecords != nil {
		fmt.Fprintf(tw, "sqlite\t%s (%d records)\n", report.SQLitePath, *report.SQLiteRecords)
	}
	fmt.Fprintf(tw, "last_run\t%s\n", formatOptionalTime(report.LastRun))
	fmt.Fprintf(tw, "next_run\t%s\n", formatOptionalTime(report.NextRun))
	if sch := report.Scheduler; sch != nil {
		fmt.Fprintf(tw, "scheduler\trunning=%s skipped=%d updated=%s\n",
			strconv.FormatBool(sch.Running), sch.Skipped, sch.UpdatedAt.Format(time.RFC3339))
	} else {
		fmt.Fprintf(tw, "scheduler\tstopped\n")
	}
	return tw.Flush()
}

func buildStatus(runCtx context.Context, ctx *Context, output, lastRunPath string) (statusReport, error) {
	cfg := ctx.Config
	if output == "" {
		output = cfg.OutputFile
	}
	if lastRunPath == "" {
		lastRunPath = cfg.LastRunFile
	}

	report := statusReport{OutputFile: output}
	count, err := store.NewCSVStore(output).Count()
	if err != nil {
		return report, fmt.Errorf("read %s: %w", output, err)
	}
	report.Records = count

	if cfg.SQLitePath != "" {
		n, ok, err := countSQLite(runCtx, cfg.SQLitePath)
		if err != nil {
			return report, err
		}
		if ok {
			report.SQLitePath = cfg.SQLitePath
			report.SQLiteRecords = &n
		}
	}

	last, ok, err := store.ReadLastRun(lastRunPath)
	if err != nil {
		return report, err
	}
	if ok {
		next := last.Add(time.Duration(cfg.IntervalHours * float64(time.Hour)))
		report.LastRun = &last
		report.NextRun = &next
	}

	state, active, err := liveScheduleState(ctx)
	if err != nil {
		return report, err
	}
	if active {
		report.Scheduler = &schedulerStatus{
			Running:   state.Running,
			Skipped:   state.Skipped,
			UpdatedAt: state.UpdatedAt,
		}
		if !state.NextRun.IsZero() {
			next := state.NextRun
			report.NextRun = &next
		}
	}
	return report, nil
}

// countSQLite reports ok=false when the database has not been created yet.
func countSQLite(ctx context.Context, path string) (int, bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	sink, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return 0, false, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer sink.Close()

	n, err := sink.Count(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("count sqlite %s: %w", path, err)
	}
	return n, true, nil
}

// liveScheduleState returns the scheduler state file only while a scheduler
// holds the lock; a leftover file from a stopped scheduler is ignored.
func liveScheduleState(ctx *Context) (schedule.State, bool, error) {
	dir := scheduleDir(ctx)
	lockPath := filepath.Join(dir, scheduleLockFile)
	if _, err := os.Stat(lockPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return schedule.State{}, false, nil
		}
		return schedule.State{}, false, err
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return schedule.State{}, false, fmt.Errorf("probe scheduler lock: %w", err)
	}
	if locked {
		_ = lock.Unlock()
		return schedule.State{}, false, nil
	}

	var state schedule.State
	ok, err := store.ReadJSON(filepath.Join(dir, scheduleStateFile), &state)
	if err != nil || !ok {
		return schedule.State{}, false, err
	}
	return state, true, nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
