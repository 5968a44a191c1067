package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jimezsa/jobfinder/internal/schedule"
	"github.com/jimezsa/jobfinder/internal/store"
)

const (
	scheduleLockFile  = "schedule.lock"
	scheduleStateFile = "schedule.json"
)

type ScheduleCmd struct {
	RunOptions
	IntervalHours float64 `name:"interval-hours" help:"Hours between runs (default from config)."`
	RunOnStart    bool    `name:"run-on-start" help:"Run once before the first interval elapses." default:"true" negatable:""`
}

func (s *ScheduleCmd) Run(ctx *Context) error {
	interval, err := s.interval(ctx)
	if err != nil {
		return err
	}

	stateDir := scheduleDir(ctx)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return err
	}
	lock := flock.New(filepath.Join(stateDir, scheduleLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock scheduler: %w", err)
	}
	if !locked {
		return fmt.Errorf("another scheduler is already running (%s)", lock.Path())
	}
	defer lock.Unlock()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &schedule.Runner{
		Name:       "scrape",
		Interval:   interval,
		RunOnStart: s.RunOnStart,
		Logger:     ctx.Logger,
		Task: func(runCtx context.Context) error {
			_, err := runOnce(runCtx, ctx, s.RunOptions)
			return err
		},
		OnChange: saveScheduleState(ctx, filepath.Join(stateDir, scheduleStateFile)),
	}
	if ctx.UI != nil {
		ctx.UI.Infof("Scheduling runs every %s; press Ctrl+C to stop.", interval)
	}
	return runner.Start(sigCtx)
}

func (s *ScheduleCmd) interval(ctx *Context) (time.Duration, error) {
	hours := s.IntervalHours
	if hours == 0 {
		hours = ctx.Config.IntervalHours
	}
	if hours <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %v hours", hours)
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

// scheduleDir holds the scheduler lock and state files.
func scheduleDir(ctx *Context) string {
	if ctx.ConfigDir != "" {
		return ctx.ConfigDir
	}
	return os.TempDir()
}

func saveScheduleState(ctx *Context, path string) func(schedule.State) {
	return func(st schedule.State) {
		if err := store.WriteJSON(path, st); err != nil {
			ctx.Logger.Warn().Err(err).Str("path", path).Msg("write schedule state")
		}
	}
}
