package usecases

import (
	"context"
	"errors"
	"strings"

	"geoassist/internal/entities"
	"geoassist/internal/interfaces"

	"github.com/rs/zerolog"
)

// SummaryFetcher pulls geography and history excerpts about a place from the
// encyclopedia. Failures are classified and turned into user-facing notes; no
// error ever reaches the caller.
type SummaryFetcher struct {
	wiki            interfaces.Encyclopedia
	geographyMarker string
	historyMarker   string
	log             zerolog.Logger
}

func NewSummaryFetcher(wiki interfaces.Encyclopedia, geographyMarker, historyMarker string, log zerolog.Logger) *SummaryFetcher {
	if geographyMarker == "" {
		geographyMarker = "Geography"
	}
	if historyMarker == "" {
		historyMarker = "History"
	}
	return &SummaryFetcher{
		wiki:            wiki,
		geographyMarker: geographyMarker,
		historyMarker:   historyMarker,
		log:             log,
	}
}

func (f *SummaryFetcher) Fetch(ctx context.Context, place string) entities.PlaceSummary {
	extract, err := f.wiki.Extract(ctx, place)
	if err != nil {
		f.log.Warn().Err(err).Str("place", place).Msg("reference lookup failed")
		switch {
		case errors.Is(err, entities.ErrReferenceAmbiguous):
			return entities.PlaceSummary{Note: "Multiple entries match this name, please enter a more specific one."}
		case errors.Is(err, entities.ErrReferenceNotFound):
			return entities.PlaceSummary{Note: "No encyclopedia entry was found for this place."}
		default:
			return entities.PlaceSummary{Note: "The encyclopedia lookup failed."}
		}
	}

	return entities.PlaceSummary{
		Geography: sectionExcerpt(extract, f.geographyMarker),
		History:   sectionExcerpt(extract, f.historyMarker),
	}
}

type section struct {
	level int
	title string
	body  string
}

// sectionExcerpt returns the body of the first section whose heading contains
// the marker. Articles without parseable headings fall back to a plain
// marker-to-next-heading substring scan.
func sectionExcerpt(text, marker string) string {
	sections := parseSections(text)
	if len(sections) == 0 {
		return markerExcerpt(text, marker)
	}

	lower := strings.ToLower(marker)
	for _, s := range sections {
		if strings.Contains(strings.ToLower(s.title), lower) {
			return strings.TrimSpace(s.body)
		}
	}
	return ""
}

// parseSections splits a MediaWiki plaintext extract on its "== Heading ==" lines.
// A section runs until the next heading of the same or a higher level.
func parseSections(text string) []section {
	var sections []section
	var open []int // indexes into sections still accumulating body

	for _, line := range strings.Split(text, "\n") {
		level, title, ok := parseHeading(line)
		if !ok {
			for _, i := range open {
				sections[i].body += line + "\n"
			}
			continue
		}

		kept := open[:0]
		for _, i := range open {
			if sections[i].level < level {
				kept = append(kept, i)
			}
		}
		open = kept

		sections = append(sections, section{level: level, title: title})
		open = append(open, len(sections)-1)
	}
	return sections
}

func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "==") || !strings.HasSuffix(trimmed, "==") {
		return 0, "", false
	}

	level := 0
	for level < len(trimmed) && trimmed[level] == '=' {
		level++
	}
	title := strings.Trim(trimmed, "= ")
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

// markerExcerpt mirrors the legacy behavior: from the first occurrence of the
// marker up to the next "==" section delimiter.
func markerExcerpt(text, marker string) string {
	start := strings.Index(text, marker)
	if start < 0 {
		return ""
	}
	rest := text[start:]
	if end := strings.Index(rest, "=="); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
