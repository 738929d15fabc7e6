package usecases

import (
	"context"

	"geoassist/internal/entities"
	"geoassist/internal/interfaces"

	"github.com/rs/zerolog"
)

// Enricher looks up tourism points of interest around a location and attaches
// an encyclopedia reference link to each named one.
type Enricher struct {
	poi     interfaces.POISource
	wiki    interfaces.Encyclopedia
	radiusM int
	log     zerolog.Logger
}

func NewEnricher(poi interfaces.POISource, wiki interfaces.Encyclopedia, radiusM int, log zerolog.Logger) *Enricher {
	if radiusM <= 0 {
		radiusM = 1000
	}
	return &Enricher{poi: poi, wiki: wiki, radiusM: radiusM, log: log}
}

// Annotate never fails the interaction: a POI fetch error yields zero
// annotations, and a failed article search falls back to a direct article URL.
func (e *Enricher) Annotate(ctx context.Context, lat, lon float64) []entities.Annotation {
	pois, err := e.poi.Nearby(ctx, lat, lon, e.radiusM)
	if err != nil {
		e.log.Warn().Err(err).Msg("poi fetch failed, no annotations")
		return []entities.Annotation{}
	}

	annotations := make([]entities.Annotation, 0, len(pois))
	for _, p := range pois {
		annotations = append(annotations, entities.Annotation{
			Lat:          p.Lat,
			Lon:          p.Lon,
			Name:         p.Name,
			ReferenceURL: e.referenceURL(ctx, p.Name),
		})
	}
	return annotations
}

func (e *Enricher) referenceURL(ctx context.Context, name string) string {
	refs, err := e.wiki.Search(ctx, name)
	if err == nil && len(refs) > 0 {
		return e.wiki.PageURL(refs[0].ID)
	}
	return e.wiki.ArticleURL(name)
}
