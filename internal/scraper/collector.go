package scraper

import (
	"context"
	"fmt"

	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxCycles      = 20
	DefaultStallThreshold = 3
	defaultJitterPixels   = 100
	listingAnchorSelector = "a.base-card__full-link"
)

// Collector scrolls a search view and gathers posting identifiers until the
// cycle budget runs out or the page stops yielding new ones.
type Collector struct {
	surface render.Surface
	pacer   Pacer
	logger  zerolog.Logger

	MaxCycles      int
	StallThreshold int
	JitterPixels   int
	AnchorSelector string
}

func NewCollector(surface render.Surface, pacer Pacer, logger zerolog.Logger) *Collector {
	if pacer == nil {
		pacer = NoPacer{}
	}
	return &Collector{
		surface:        surface,
		pacer:          pacer,
		logger:         logger,
		MaxCycles:      DefaultMaxCycles,
		StallThreshold: DefaultStallThreshold,
		JitterPixels:   defaultJitterPixels,
		AnchorSelector: listingAnchorSelector,
	}
}

// Collect loads the search view for params and returns every identifier seen.
// params.Limit is advisory only: the loop stops on budget or stall, never on
// count. A cycle that fails counts as a cycle with no new results. The
// returned set is valid even when err is non-nil.
func (c *Collector) Collect(ctx context.Context, params models.SearchParams) (*IdentifierSet, error) {
	ids := NewIdentifierSet()

	searchURL := BuildSearchURL(params.Query, params.Location)
	c.logger.Info().Str("query", params.Query).Str("location", params.Location).Str("url", searchURL).Msg("loading search view")
	if err := c.surface.Navigate(ctx, searchURL); err != nil {
		return ids, fmt.Errorf("load search view: %w", err)
	}
	if err := c.pacer.Pause(ctx, PauseAfterSearchLoad); err != nil {
		return ids, err
	}

	stalled := 0
	for cycle := 1; cycle <= c.MaxCycles; cycle++ {
		before := ids.Len()
		if err := c.cycle(ctx, ids); err != nil {
			if ctx.Err() != nil {
				return ids, ctx.Err()
			}
			c.logger.Warn().Err(err).Int("cycle", cycle).Msg("scroll cycle failed")
		}
		newFound := ids.Len() - before
		c.logger.Info().Int("cycle", cycle).Int("new", newFound).Int("total", ids.Len()).Msg("scroll cycle done")

		if newFound > 0 {
			stalled = 0
			continue
		}
		stalled++
		if stalled >= c.StallThreshold {
			c.logger.Info().Int("cycle", cycle).Int("stalled", stalled).Msg("no new listings, stopping")
			break
		}
	}

	return ids, nil
}

// cycle scrolls to the bottom, nudges the page up and down to trigger lazy
// loading, then harvests listing anchors into ids.
func (c *Collector) cycle(ctx context.Context, ids *IdentifierSet) error {
	if err := c.surface.ScrollToBottom(ctx); err != nil {
		return fmt.Errorf("scroll to bottom: %w", err)
	}
	if err := c.pacer.Pause(ctx, PauseAfterScroll); err != nil {
		return err
	}
	if err := c.surface.ScrollBy(ctx, -c.JitterPixels); err != nil {
		return fmt.Errorf("scroll up: %w", err)
	}
	if err := c.pacer.Pause(ctx, PauseScrollJitter); err != nil {
		return err
	}
	if err := c.surface.ScrollBy(ctx, c.JitterPixels); err != nil {
		return fmt.Errorf("scroll down: %w", err)
	}
	if err := c.pacer.Pause(ctx, PauseScrollJitter); err != nil {
		return err
	}

	anchors, err := c.surface.FindAll(ctx, c.AnchorSelector)
	if err != nil {
		return fmt.Errorf("find listings: %w", err)
	}
	c.logger.Debug().Int("anchors", len(anchors)).Msg("listing anchors on page")

	for _, anchor := range anchors {
		href, ok, err := anchor.Attribute("href")
		if err != nil || !ok {
			continue
		}
		if !IsListingURL(href) {
			continue
		}
		ids.Add(NormalizeIdentifier(href))
	}
	return nil
}
