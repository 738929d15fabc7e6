package usecases

import (
	"context"
	"strings"

	"geoassist/internal/entities"
	"geoassist/internal/interfaces"

	"github.com/rs/zerolog"
)

const extractSystemPrompt = "You are a geographic location extraction assistant. " +
	"Reply with only the name of the place mentioned, nothing else."

// boilerplate the model tends to prepend despite the instruction
var extractPrefixes = []string{
	"Place:", "Location:", "The place is", "地點提取：", "地點：",
}

// LocationResolver turns free text into a resolved place: language-model
// extraction of the place name, then geocoding. Extraction is not retried;
// geocoding retries inside the client.
type LocationResolver struct {
	ai  interfaces.AIClient
	geo interfaces.Geocoder
	log zerolog.Logger
}

func NewLocationResolver(ai interfaces.AIClient, geo interfaces.Geocoder, log zerolog.Logger) *LocationResolver {
	return &LocationResolver{ai: ai, geo: geo, log: log}
}

func (r *LocationResolver) Resolve(ctx context.Context, freeText string) (entities.Place, error) {
	name, err := r.ExtractPlaceName(ctx, freeText)
	if err != nil {
		return entities.Place{}, err
	}
	if name == "" {
		// Nothing extractable; same outcome as a failed geocode.
		return entities.Place{}, entities.ErrGeocodeNotFound
	}

	r.log.Debug().Str("place", name).Msg("extracted place name")

	lat, lon, err := r.geo.Geocode(ctx, name)
	if err != nil {
		return entities.Place{}, err
	}
	return entities.Place{Name: name, Lat: lat, Lon: lon}, nil
}

func (r *LocationResolver) ExtractPlaceName(ctx context.Context, freeText string) (string, error) {
	reply, err := r.ai.Complete(ctx, extractSystemPrompt,
		"Extract the place name from the following text: "+freeText)
	if err != nil {
		return "", err
	}
	return cleanPlaceName(reply), nil
}

// cleanPlaceName strips known boilerplate prefixes and surrounding punctuation
// from a model reply.
func cleanPlaceName(reply string) string {
	name := strings.TrimSpace(reply)
	for _, prefix := range extractPrefixes {
		name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
	}
	name = strings.Trim(name, "\"'`")
	name = strings.TrimRight(name, ".。！!？?，, ")
	return strings.TrimSpace(name)
}
