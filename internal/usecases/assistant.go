package usecases

import (
	"context"

	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"

	"github.com/rs/zerolog"
)

// Assistant runs one granted prompt end to end: gate check, location
// resolution, map annotations and the encyclopedia summary.
type Assistant struct {
	gate     *AccessGate
	resolver *LocationResolver
	enricher *Enricher
	summary  *SummaryFetcher
	log      zerolog.Logger
}

func NewAssistant(gate *AccessGate, resolver *LocationResolver, enricher *Enricher, summary *SummaryFetcher, log zerolog.Logger) *Assistant {
	return &Assistant{
		gate:     gate,
		resolver: resolver,
		enricher: enricher,
		summary:  summary,
		log:      log,
	}
}

// Gate exposes the access gate to the interactive layers.
func (a *Assistant) Gate() *AccessGate { return a.gate }

// HandlePrompt meters the submission and, if granted, resolves the prompt to a
// place with annotations and excerpts. ErrQuotaExceeded means the session has
// been routed to the paywall instead of resolving a location.
func (a *Assistant) HandlePrompt(ctx context.Context, s *infrastructure.Session, freeText string) (*entities.PromptResult, error) {
	if err := a.gate.Submit(ctx, s); err != nil {
		return nil, err
	}

	place, err := a.resolver.Resolve(ctx, freeText)
	if err != nil {
		return nil, err
	}

	a.log.Info().Str("place", place.Name).Float64("lat", place.Lat).Float64("lon", place.Lon).Msg("location resolved")

	return &entities.PromptResult{
		Place:       place,
		MapURL:      place.MapURL(),
		Annotations: a.enricher.Annotate(ctx, place.Lat, place.Lon),
		Summary:     a.summary.Fetch(ctx, place.Name),
	}, nil
}
