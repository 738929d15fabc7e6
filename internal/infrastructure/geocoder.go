package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"geoassist/internal/entities"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// OpenCageClient is a forward-geocoding client. The upstream service is rate
// limited, so calls pass through a client-side limiter, and transient failures
// are retried with bounded exponential backoff.
type OpenCageClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

func NewOpenCageClient(apiKey, baseURL string, maxAttempts int, backoff time.Duration, ratePerSec float64, log zerolog.Logger) *OpenCageClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OpenCageClient{
		apiKey:      apiKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log,
	}
}

type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to coordinates. After all attempts are exhausted
// the caller sees ErrGeocodeNotFound, whether the service errored or simply had
// no results.
func (c *OpenCageClient) Geocode(ctx context.Context, address string) (float64, float64, error) {
	reqURL := fmt.Sprintf("%s?q=%s&key=%s&limit=1", c.baseURL, url.QueryEscape(address), c.apiKey)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			wait := c.backoff << (attempt - 2)
			c.log.Debug().Str("address", address).Int("attempt", attempt).Dur("wait", wait).Msg("geocode retry")
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return 0, 0, err
		}

		lat, lng, ok := c.attempt(ctx, reqURL)
		if ok {
			return lat, lng, nil
		}
	}

	return 0, 0, entities.ErrGeocodeNotFound
}

func (c *OpenCageClient) attempt(ctx context.Context, reqURL string) (float64, float64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("geocode request failed")
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("geocode non-200 response")
		return 0, 0, false
	}

	var data openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		c.log.Warn().Err(err).Msg("geocode decode failed")
		return 0, 0, false
	}
	if len(data.Results) == 0 {
		return 0, 0, false
	}

	g := data.Results[0].Geometry
	return g.Lat, g.Lng, true
}
