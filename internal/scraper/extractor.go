package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/jimezsa/jobfinder/internal/render"
	"github.com/rs/zerolog"
)

// DescriptionOutcome records how the description field was resolved.
type DescriptionOutcome int

const (
	DescriptionResolved DescriptionOutcome = iota
	// DescriptionEmpty means a container was found but reading it failed.
	DescriptionEmpty
	// DescriptionNotFound means no container selector matched.
	DescriptionNotFound
)

func (o DescriptionOutcome) String() string {
	switch o {
	case DescriptionResolved:
		return "resolved"
	case DescriptionEmpty:
		return "empty"
	case DescriptionNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Fields are the raw values read from one posting page. Every field holds
// either extracted text or its default.
type Fields struct {
	Title              string
	Company            string
	Location           string
	Description        string
	DescriptionOutcome DescriptionOutcome
}

// Selectors lists the page selectors the extractor probes.
type Selectors struct {
	Title       string
	Company     []string
	Location    string
	ShowMore    string
	Description []string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Title:    "h1.top-card-layout__title",
		Company:  []string{"a.topcard__org-name-link", "span.topcard__flavor"},
		Location: "span.topcard__flavor--bullet",
		ShowMore: "button.show-more-less-html__button",
		Description: []string{
			"div.show-more-less-html__markup",
			"div.description__text",
			"div.jobs-description__content",
		},
	}
}

// Extractor reads the fixed field schema from posting pages.
type Extractor struct {
	surface render.Surface
	pacer   Pacer
	logger  zerolog.Logger

	Selectors  Selectors
	TitleWait  time.Duration
	ExpandWait time.Duration
	// Region is the location used when the page shows none.
	Region string
}

func NewExtractor(surface render.Surface, pacer Pacer, logger zerolog.Logger) *Extractor {
	if pacer == nil {
		pacer = NoPacer{}
	}
	return &Extractor{
		surface:    surface,
		pacer:      pacer,
		logger:     logger,
		Selectors:  DefaultSelectors(),
		TitleWait:  10 * time.Second,
		ExpandWait: 3 * time.Second,
		Region:     models.DefaultRegion,
	}
}

// Extract navigates to identifier and resolves every field. Field failures
// fall back to defaults; only navigation failure or cancellation is returned.
func (e *Extractor) Extract(ctx context.Context, identifier string) (Fields, error) {
	logger := e.logger.With().Str("url", identifier).Logger()

	if err := e.surface.Navigate(ctx, identifier); err != nil {
		return Fields{}, fmt.Errorf("open listing: %w", err)
	}
	if err := e.pacer.Pause(ctx, PauseAfterDetailLoad); err != nil {
		return Fields{}, err
	}

	fields := Fields{
		Title:    e.titleChain().ResolveOr(ctx, e.surface, logger, models.NotFound),
		Company:  e.companyChain().ResolveOr(ctx, e.surface, logger, models.NotFound),
		Location: e.locationChain().ResolveOr(ctx, e.surface, logger, e.region()),
	}
	fields.Description, fields.DescriptionOutcome = e.description(ctx, logger)

	if err := ctx.Err(); err != nil {
		return Fields{}, err
	}
	logger.Debug().
		Str("title", fields.Title).
		Str("company", fields.Company).
		Str("description", fields.DescriptionOutcome.String()).
		Msg("listing extracted")
	return fields, nil
}

func (e *Extractor) titleChain() Chain {
	return Chain{WaitTextOf(e.Selectors.Title, e.TitleWait)}
}

func (e *Extractor) companyChain() Chain {
	chain := make(Chain, 0, len(e.Selectors.Company))
	for _, selector := range e.Selectors.Company {
		chain = append(chain, TextOf(selector))
	}
	return chain
}

func (e *Extractor) locationChain() Chain {
	return Chain{TextOf(e.Selectors.Location)}
}

func (e *Extractor) region() string {
	if e.Region == "" {
		return models.DefaultRegion
	}
	return e.Region
}

// description expands the text if possible, then reads the first matching
// container both as rendered text and as flattened markup, keeping the
// longer of the two.
func (e *Extractor) description(ctx context.Context, logger zerolog.Logger) (string, DescriptionOutcome) {
	e.expand(ctx, logger)

	container, selector, ok := firstElement(ctx, e.surface, e.Selectors.Description)
	if !ok {
		logger.Debug().Msg("no description container")
		return models.NotFound, DescriptionNotFound
	}

	text, err := trimmedText(container)
	if err != nil {
		logger.Warn().Err(err).Str("selector", selector).Msg("could not read description")
		return "", DescriptionEmpty
	}

	markup, err := container.InnerHTML()
	if err != nil {
		logger.Warn().Err(err).Str("selector", selector).Msg("could not read description markup")
		return "", DescriptionEmpty
	}
	flat, err := FlattenMarkup(markup)
	if err != nil {
		logger.Debug().Err(err).Msg("markup flattening failed, using rendered text")
		return text, DescriptionResolved
	}

	return longer(flat, text), DescriptionResolved
}

// expand clicks the "show more" control when it appears. Failures are
// ignored.
func (e *Extractor) expand(ctx context.Context, logger zerolog.Logger) {
	if strings.TrimSpace(e.Selectors.ShowMore) == "" {
		return
	}
	button, err := e.surface.WaitFor(ctx, e.Selectors.ShowMore, e.ExpandWait)
	if err != nil {
		logger.Debug().Err(err).Msg("no show-more control")
		return
	}
	if err := button.Click(); err != nil {
		logger.Debug().Err(err).Msg("show-more click failed")
		return
	}
	_ = e.pacer.Pause(ctx, PauseAfterExpand)
}

// longer returns a when it has strictly more characters than b.
func longer(a, b string) string {
	if utf8.RuneCountInString(a) > utf8.RuneCountInString(b) {
		return a
	}
	return b
}
