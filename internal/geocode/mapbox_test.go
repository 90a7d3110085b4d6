package geocode_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/resilience"
)

func newClient(t *testing.T, handler http.HandlerFunc) *geocode.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return geocode.NewClient(geocode.ClientConfig{
		AccessToken: "pk.test",
		BaseURL:     server.URL,
		HTTPClient:  resilience.NewClient(resilience.Config{Name: "mapbox-test"}),
		Logger:      zerolog.Nop(),
	})
}

var akwa = map[string]any{
	"type":  "FeatureCollection",
	"query": []string{"akwa"},
	"features": []map[string]any{{
		"id":         "address.1",
		"place_type": []string{"address"},
		"relevance":  0.92,
		"text":       "Boulevard de la Liberté",
		"place_name": "Boulevard de la Liberté, Akwa, Douala, Littoral, Cameroon",
		"center":     []float64{9.6966, 4.0503},
		"context": []map[string]string{
			{"id": "neighborhood.1", "text": "Akwa"},
			{"id": "place.2", "text": "Douala"},
			{"id": "district.3", "text": "Wouri"},
			{"id": "region.4", "text": "Littoral"},
		},
	}},
}

func TestSearchAddresses(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/rue akwa.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pk.test", q.Get("access_token"))
		assert.Equal(t, "CM", q.Get("country"))
		assert.Equal(t, "en,fr", q.Get("language"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "address,poi,place", q.Get("types"))
		assert.Equal(t, "9.7043,4.0483", q.Get("proximity"))
		require.NoError(t, json.NewEncoder(w).Encode(akwa))
	})

	douala := geocode.CameroonCities()[0].Coordinates
	got, err := client.SearchAddresses(context.Background(), "rue akwa", &geocode.SearchOptions{
		Types:     []string{"address", "poi", "place"},
		Proximity: &douala,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, "Boulevard de la Liberté", s.Text)
	assert.InDelta(t, 9.6966, s.Coordinates.Lng(), 1e-9)
	assert.Equal(t, geocode.Context{Region: "Littoral", District: "Wouri", Locality: "Douala", Neighborhood: "Akwa"}, s.Context)
}

func TestSearchAddresses_ShortQuery(t *testing.T) {
	var calls atomic.Int32
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	for _, q := range []string{"", "  ", "ak", " ak ", "é"} {
		got, err := client.SearchAddresses(context.Background(), q, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Zero(t, calls.Load())
}

func TestSearchAddresses_Failure(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.SearchAddresses(context.Background(), "Bonapriso", nil)
	require.Error(t, err)
	assert.Equal(t, "Failed to search addresses", apierror.Message(err, ""))
}

func TestReverseGeocode(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocoding/v5/mapbox.places/9.6966,4.0503.json", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(akwa))
	})

	res, err := client.ReverseGeocode(context.Background(), pickup.Coordinates{9.6966, 4.0503})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, geocode.ConfidenceHigh, res.Confidence)
	assert.Equal(t, "Boulevard de la Liberté", res.Components.Street)
	assert.Equal(t, "Douala", res.Components.Locality)
	assert.Equal(t, "Cameroon", res.Components.Country)
}

func TestReverseGeocode_NoMatch(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})

	res, err := client.ReverseGeocode(context.Background(), pickup.Coordinates{0, 0})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestValidateAddress(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		require.NoError(t, json.NewEncoder(w).Encode(akwa))
	})

	check := client.ValidateAddress(context.Background(), "Boulevard de la Liberté")
	assert.True(t, check.Valid)
	assert.Equal(t, geocode.ConfidenceHigh, check.Confidence)
	assert.Contains(t, check.Suggestion, "Akwa")
}

func TestValidateAddress_FailureIsInvalid(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	assert.False(t, client.ValidateAddress(context.Background(), "Somewhere far").Valid)
}

func TestConfidenceOf(t *testing.T) {
	assert.Equal(t, geocode.ConfidenceHigh, geocode.ConfidenceOf(0.8))
	assert.Equal(t, geocode.ConfidenceMedium, geocode.ConfidenceOf(0.79))
	assert.Equal(t, geocode.ConfidenceMedium, geocode.ConfidenceOf(0.5))
	assert.Equal(t, geocode.ConfidenceLow, geocode.ConfidenceOf(0.49))
}
