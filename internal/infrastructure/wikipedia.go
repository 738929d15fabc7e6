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

// WikipediaClient talks to a MediaWiki API. Extract errors are classified into
// the ambiguous / not-found / other taxonomy so callers never see raw failures.
type WikipediaClient struct {
	apiURL     string
	siteURL    string
	httpClient *http.Client
}

// NewWikipediaClient takes explicit endpoints (tests point these at fakes).
func NewWikipediaClient(apiURL, siteURL string) *WikipediaClient {
	return &WikipediaClient{
		apiURL:     apiURL,
		siteURL:    siteURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NewWikipediaClientForLang builds a client for a language edition ("en", "zh", ...).
func NewWikipediaClientForLang(lang string) *WikipediaClient {
	return NewWikipediaClient(
		fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		fmt.Sprintf("https://%s.wikipedia.org", lang),
	)
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			PageID int    `json:"pageid"`
			Title  string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (c *WikipediaClient) Search(ctx context.Context, term string) ([]interfaces.PageRef, error) {
	params := url.Values{
		"action":        {"query"},
		"list":          {"search"},
		"srsearch":      {term},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var data wikiSearchResponse
	if err := c.get(ctx, params, &data); err != nil {
		return nil, err
	}

	refs := make([]interfaces.PageRef, 0, len(data.Query.Search))
	for _, hit := range data.Query.Search {
		refs = append(refs, interfaces.PageRef{ID: hit.PageID, Title: hit.Title})
	}
	return refs, nil
}

type wikiExtractResponse struct {
	Query struct {
		Pages []struct {
			PageID    int               `json:"pageid"`
			Title     string            `json:"title"`
			Missing   bool              `json:"missing"`
			Extract   string            `json:"extract"`
			PageProps map[string]string `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// Extract fetches the plaintext body of an article. Disambiguation pages come
// back as ErrReferenceAmbiguous, missing pages as ErrReferenceNotFound, and
// every other failure as ErrReferenceOther.
func (c *WikipediaClient) Extract(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"titles":        {title},
		"prop":          {"extracts|pageprops"},
		"explaintext":   {"1"},
		"redirects":     {"1"},
		"ppprop":        {"disambiguation"},
		"format":        {"json"},
		"formatversion": {"2"},
	}

	var data wikiExtractResponse
	if err := c.get(ctx, params, &data); err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrReferenceOther, err)
	}

	if len(data.Query.Pages) == 0 {
		return "", entities.ErrReferenceNotFound
	}
	page := data.Query.Pages[0]
	if page.Missing {
		return "", entities.ErrReferenceNotFound
	}
	if _, ok := page.PageProps["disambiguation"]; ok {
		return "", entities.ErrReferenceAmbiguous
	}
	if strings.Contains(page.Extract, "may refer to:") {
		return "", entities.ErrReferenceAmbiguous
	}
	return page.Extract, nil
}

func (c *WikipediaClient) PageURL(pageID int) string {
	return fmt.Sprintf("%s/?curid=%d", c.siteURL, pageID)
}

func (c *WikipediaClient) ArticleURL(title string) string {
	return c.siteURL + "/wiki/" + url.PathEscape(title)
}

func (c *WikipediaClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
