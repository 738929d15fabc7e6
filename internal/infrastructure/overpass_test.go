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

func TestOverpassNearbySkipsUnnamedNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("data")
		assert.Contains(t, query, `node(around:1000,48.858400,2.294500)["tourism"]`)
		fmt.Fprint(w, `{"elements":[
			{"lat":48.86,"lon":2.29,"tags":{"name":"Trocadéro","tourism":"attraction"}},
			{"lat":48.85,"lon":2.30,"tags":{"tourism":"viewpoint"}},
			{"lat":48.84,"lon":2.31,"tags":{"name":"Champ de Mars","tourism":"attraction"}}
		]}`)
	}))
	defer srv.Close()

	pois, err := NewOverpassClient(srv.URL).Nearby(context.Background(), 48.8584, 2.2945, 1000)
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "Trocadéro", pois[0].Name)
	assert.Equal(t, "Champ de Mars", pois[1].Name)
}

func TestOverpassNearbyUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOverpassClient(srv.URL).Nearby(context.Background(), 1, 2, 500)
	assert.ErrorIs(t, err, entities.ErrUpstream)
}
