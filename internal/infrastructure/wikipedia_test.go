package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"geoassist/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWikiServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *WikipediaClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)
	return NewWikipediaClient(srv.URL+"/w/api.php", srv.URL)
}

func TestWikipediaSearch(t *testing.T) {
	c := newWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		assert.Equal(t, "Eiffel Tower", r.URL.Query().Get("srsearch"))
		fmt.Fprint(w, `{"query":{"search":[{"pageid":9232,"title":"Eiffel Tower"},{"pageid":100,"title":"Eiffel Tower replicas"}]}}`)
	})

	refs, err := c.Search(context.Background(), "Eiffel Tower")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, 9232, refs[0].ID)
	assert.Equal(t, "Eiffel Tower", refs[0].Title)
}

func TestWikipediaExtract(t *testing.T) {
	c := newWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("titles"))
		assert.Equal(t, "extracts|pageprops", r.URL.Query().Get("prop"))
		fmt.Fprint(w, `{"query":{"pages":[{"pageid":22989,"title":"Paris","extract":"Paris is the capital of France."}]}}`)
	})

	text, err := c.Extract(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", text)
}

func TestWikipediaExtractClassification(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "missing page",
			body: `{"query":{"pages":[{"title":"Xyzzy","missing":true}]}}`,
			want: entities.ErrReferenceNotFound,
		},
		{
			name: "no pages at all",
			body: `{"query":{"pages":[]}}`,
			want: entities.ErrReferenceNotFound,
		},
		{
			name: "disambiguation pageprop",
			body: `{"query":{"pages":[{"pageid":1,"title":"Springfield","extract":"","pageprops":{"disambiguation":""}}]}}`,
			want: entities.ErrReferenceAmbiguous,
		},
		{
			name: "disambiguation phrasing without pageprop",
			body: `{"query":{"pages":[{"pageid":2,"title":"Mercury","extract":"Mercury may refer to:"}]}}`,
			want: entities.ErrReferenceAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})

			_, err := c.Extract(context.Background(), "anything")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWikipediaExtractUpstreamFailureIsOther(t *testing.T) {
	c := newWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Extract(context.Background(), "Paris")
	assert.ErrorIs(t, err, entities.ErrReferenceOther)
}

func TestWikipediaURLs(t *testing.T) {
	c := NewWikipediaClientForLang("en")
	assert.Equal(t, "https://en.wikipedia.org/?curid=9232", c.PageURL(9232))
	assert.Equal(t, "https://en.wikipedia.org/wiki/Eiffel%20Tower", c.ArticleURL("Eiffel Tower"))
}
