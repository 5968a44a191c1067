package scraper

import (
	"context"
	"strings"

	"github.com/jimezsa/jobfinder/internal/infer"
	"github.com/jimezsa/jobfinder/internal/models"
	"github.com/rs/zerolog"
)

// Pipeline runs collection, extraction and inference for one query against a
// single surface. A Pipeline must not be run concurrently with itself.
type Pipeline struct {
	collector *Collector
	extractor *Extractor
	pacer     Pacer
	logger    zerolog.Logger

	// Region is removed as a ", <region>" suffix from extracted locations.
	Region string
	// EnforceLimit trims the collected identifiers to SearchParams.Limit
	// before extraction.
	EnforceLimit bool
	// OnListing, when set, receives each listing as soon as it is built.
	OnListing func(models.JobListing)
}

func NewPipeline(collector *Collector, extractor *Extractor, pacer Pacer, logger zerolog.Logger) *Pipeline {
	if pacer == nil {
		pacer = NoPacer{}
	}
	return &Pipeline{
		collector: collector,
		extractor: extractor,
		pacer:     pacer,
		logger:    logger,
		Region:    models.DefaultRegion,
	}
}

// Run returns the listings built so far together with any run-level error,
// so a cancelled run still hands back completed work.
func (p *Pipeline) Run(ctx context.Context, params models.SearchParams) ([]models.JobListing, error) {
	ids, err := p.collector.Collect(ctx, params)
	if err != nil {
		return nil, err
	}
	if ids.Len() == 0 {
		p.logger.Info().Msg("no listings found")
		return nil, nil
	}

	identifiers := ids.Items()
	if p.EnforceLimit && params.Limit > 0 && len(identifiers) > params.Limit {
		identifiers = identifiers[:params.Limit]
	}

	listings := make([]models.JobListing, 0, len(identifiers))
	for i, identifier := range identifiers {
		p.logger.Info().Int("index", i+1).Int("total", len(identifiers)).Str("url", identifier).Msg("processing listing")

		fields, err := p.extractor.Extract(ctx, identifier)
		if err != nil {
			if ctx.Err() != nil {
				return listings, ctx.Err()
			}
			p.logger.Warn().Err(err).Str("url", identifier).Msg("skipping listing")
		} else {
			listing := p.build(identifier, fields)
			listings = append(listings, listing)
			if p.OnListing != nil {
				p.OnListing(listing)
			}
		}

		if i < len(identifiers)-1 {
			if err := p.pacer.Pause(ctx, PauseBetweenListings); err != nil {
				return listings, err
			}
		}
	}

	p.logger.Info().Int("listings", len(listings)).Msg("scrape finished")
	return listings, nil
}

func (p *Pipeline) build(identifier string, fields Fields) models.JobListing {
	return models.NewListingBuilder(identifier, p.Region).
		Title(fields.Title).
		Company(fields.Company).
		Location(stripRegion(fields.Location, p.Region)).
		Description(fields.Description).
		Degree(string(infer.Degree(fields.Description))).
		Experience(infer.Experience(fields.Description)).
		Build()
}

func stripRegion(location, region string) string {
	if location == "" || region == "" {
		return location
	}
	return strings.TrimSpace(strings.ReplaceAll(location, ", "+region, ""))
}
