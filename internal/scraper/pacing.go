package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// PausePoint names a place in the scrape where the pacer may wait.
type PausePoint string

const (
	PauseAfterSearchLoad PausePoint = "after_search_load"
	PauseAfterScroll     PausePoint = "after_scroll"
	PauseScrollJitter    PausePoint = "scroll_jitter"
	PauseAfterDetailLoad PausePoint = "after_detail_load"
	PauseAfterExpand     PausePoint = "after_expand"
	PauseBetweenListings PausePoint = "between_listings"
)

// Pacer inserts delays between page actions. Pause returns the context error
// when ctx ends first.
type Pacer interface {
	Pause(ctx context.Context, point PausePoint) error
}

// DelayRange is an inclusive wait window.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// DefaultDelays mirrors a person clicking through results.
func DefaultDelays() map[PausePoint]DelayRange {
	return map[PausePoint]DelayRange{
		PauseAfterSearchLoad: {4 * time.Second, 6 * time.Second},
		PauseAfterScroll:     {3 * time.Second, 5 * time.Second},
		PauseScrollJitter:    {0, time.Second},
		PauseAfterDetailLoad: {2 * time.Second, 4 * time.Second},
		PauseAfterExpand:     {time.Second, time.Second},
		PauseBetweenListings: {2 * time.Second, 5 * time.Second},
	}
}

// RandomPacer sleeps for a uniformly random duration within each point's
// range. Points without a range do not wait.
type RandomPacer struct {
	delays map[PausePoint]DelayRange

	mu   sync.Mutex
	rand *rand.Rand
}

func NewRandomPacer(delays map[PausePoint]DelayRange) *RandomPacer {
	return &RandomPacer{
		delays: delays,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *RandomPacer) Pause(ctx context.Context, point PausePoint) error {
	return sleep(ctx, p.duration(point))
}

func (p *RandomPacer) duration(point PausePoint) time.Duration {
	r, ok := p.delays[point]
	if !ok || r.Max <= 0 {
		return 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rand.Int63n(int64(r.Max-r.Min)+1))
}

// NoPacer never waits.
type NoPacer struct{}

func (NoPacer) Pause(ctx context.Context, _ PausePoint) error {
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
