package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geoassist/internal/entities"
	"geoassist/internal/interfaces"
)

// OverpassClient queries OpenStreetMap's Overpass API for tourism-tagged nodes.
type OverpassClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOverpassClient(baseURL string) *OverpassClient {
	return &OverpassClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

type overpassResponse struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Nearby returns the named tourism points within radiusM meters. Unnamed nodes
// are skipped. No retry: a failure here costs annotations, not the interaction.
func (c *OverpassClient) Nearby(ctx context.Context, lat, lon float64, radiusM int) ([]interfaces.POI, error) {
	query := fmt.Sprintf(`
	[out:json];
	node(around:%d,%f,%f)["tourism"];
	out body;
	`, radiusM, lat, lon)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass query: %v", entities.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: overpass status %d", entities.ErrUpstream, resp.StatusCode)
	}

	var data overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: overpass decode: %v", entities.ErrUpstream, err)
	}

	pois := []interfaces.POI{}
	for _, el := range data.Elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		pois = append(pois, interfaces.POI{Lat: el.Lat, Lon: el.Lon, Name: name})
	}
	return pois, nil
}
