package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/rs/zerolog"
)

// Strategy is one attempt at resolving a field. A nil error means the field
// resolved, even to an empty string.
type Strategy struct {
	Name    string
	Resolve func(ctx context.Context, s render.Surface) (string, error)
}

// Chain is an ordered list of strategies; the first success wins.
type Chain []Strategy

// Resolve runs the chain in order and returns the first resolved value. ok is
// false when every strategy failed.
func (c Chain) Resolve(ctx context.Context, s render.Surface, logger zerolog.Logger) (value string, ok bool) {
	for _, strategy := range c {
		if ctx.Err() != nil {
			return "", false
		}
		v, err := strategy.Resolve(ctx, s)
		if err != nil {
			logger.Debug().Str("strategy", strategy.Name).Err(err).Msg("strategy failed")
			continue
		}
		return v, true
	}
	return "", false
}

// ResolveOr is Resolve with a fallback for an exhausted chain.
func (c Chain) ResolveOr(ctx context.Context, s render.Surface, logger zerolog.Logger, fallback string) string {
	if v, ok := c.Resolve(ctx, s, logger); ok {
		return v
	}
	return fallback
}

// TextOf reads the trimmed text of the first element matching selector.
func TextOf(selector string) Strategy {
	return Strategy{
		Name: selector,
		Resolve: func(ctx context.Context, s render.Surface) (string, error) {
			el, err := s.FindOne(ctx, selector)
			if err != nil {
				return "", err
			}
			return trimmedText(el)
		},
	}
}

// WaitTextOf waits up to timeout for selector and reads its trimmed text.
func WaitTextOf(selector string, timeout time.Duration) Strategy {
	return Strategy{
		Name: "wait " + selector,
		Resolve: func(ctx context.Context, s render.Surface) (string, error) {
			el, err := s.WaitFor(ctx, selector, timeout)
			if err != nil {
				return "", err
			}
			return trimmedText(el)
		},
	}
}

func trimmedText(el render.Element) (string, error) {
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// firstElement returns the first selector that resolves, in order.
func firstElement(ctx context.Context, s render.Surface, selectors []string) (render.Element, string, bool) {
	for _, selector := range selectors {
		if ctx.Err() != nil {
			return nil, "", false
		}
		el, err := s.FindOne(ctx, selector)
		if err == nil {
			return el, selector, true
		}
	}
	return nil, "", false
}
