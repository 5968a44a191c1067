// Package schedule runs a task on a fixed interval.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Runner calls Task every Interval until its context ends. A tick that fires
// while the previous run is still going is skipped.
type Runner struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Task       Task
	Logger     zerolog.Logger
	// OnChange, when set, receives the runner state after each start, finish,
	// skip and reschedule. Calls are serialized.
	OnChange func(State)

	// now and tick exist for tests.
	now  func() time.Time
	tick func(time.Duration) (<-chan time.Time, func())

	busy     atomic.Bool
	wg       sync.WaitGroup
	mu       sync.Mutex
	nextRun  time.Time
	skipped  int
	notifyMu sync.Mutex
}

// State is a snapshot of a Runner.
type State struct {
	NextRun   time.Time `json:"next_run"`
	Running   bool      `json:"running"`
	Skipped   int       `json:"skipped"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Start blocks until ctx is done, then waits for an in-flight run to return.
func (r *Runner) Start(ctx context.Context) error {
	if r.Interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive, got %s", r.Interval)
	}
	ticks, stop := r.ticker()
	defer stop()

	if r.RunOnStart {
		r.trigger(ctx)
	}
	r.scheduleNext()

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return nil
		case <-ticks:
			r.trigger(ctx)
			r.scheduleNext()
		}
	}
}

// NextRun returns the time of the next scheduled tick.
func (r *Runner) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextRun
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool {
	return r.busy.Load()
}

// Skipped returns how many ticks were dropped because a run was in flight.
func (r *Runner) Skipped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

func (r *Runner) State() State {
	return State{
		NextRun:   r.NextRun(),
		Running:   r.Running(),
		Skipped:   r.Skipped(),
		UpdatedAt: r.clock(),
	}
}

func (r *Runner) notify() {
	if r.OnChange == nil {
		return
	}
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	r.OnChange(r.State())
}

func (r *Runner) trigger(ctx context.Context) {
	if !r.busy.CompareAndSwap(false, true) {
		r.mu.Lock()
		r.skipped++
		r.mu.Unlock()
		r.Logger.Warn().Str("task", r.Name).Msg("previous run still in progress, skipping")
		r.notify()
		return
	}
	r.notify()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.notify()
		defer r.busy.Store(false)

		started := r.clock()
		r.Logger.Info().Str("task", r.Name).Msg("run started")
		if err := r.Task(ctx); err != nil {
			r.Logger.Error().Err(err).Str("task", r.Name).Msg("run failed")
			return
		}
		r.Logger.Info().Str("task", r.Name).Dur("took", r.clock().Sub(started)).Msg("run finished")
	}()
}

func (r *Runner) scheduleNext() {
	next := r.clock().Add(r.Interval)
	r.mu.Lock()
	r.nextRun = next
	r.mu.Unlock()
	r.Logger.Info().Str("task", r.Name).Time("next_run", next).Msg("next run scheduled")
	r.notify()
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) ticker() (<-chan time.Time, func()) {
	if r.tick != nil {
		return r.tick(r.Interval)
	}
	t := time.NewTicker(r.Interval)
	return t.C, t.Stop
}
