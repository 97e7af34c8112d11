package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-router/internal/models"
)

const banFeature = `{
	"type": "FeatureCollection",
	"features": [{
		"geometry": {"type": "Point", "coordinates": [6.17574, 49.11931]},
		"properties": {"label": "1 Place d'Armes 57000 Metz", "type": "housenumber", "score": 0.97}
	}]
}`

func newTestBAN(baseURL string) *BANProvider {
	return &BANProvider{
		baseURL:   baseURL,
		userAgent: "internship-router-test",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		gate: newThrottle(time.Millisecond),
	}
}

func TestBANGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/search")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(banFeature))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "1 Place d'Armes, 57000 Metz")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 49.11931, result.Point.Lat)
	assert.Equal(t, 6.17574, result.Point.Lng)
	assert.Equal(t, models.ConfidenceHigh, result.Confidence)
	assert.Equal(t, "ban", result.Provider)
	assert.Equal(t, "1 Place d'Armes 57000 Metz", result.NormalizedAddress)
}

func TestBANGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Nowhere At All")

	require.Error(t, err)
	assert.Nil(t, result)

	notFound, ok := err.(*ErrNotFound)
	require.True(t, ok)
	assert.Equal(t, "ban", notFound.Provider)
}

func TestBANGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable"))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	provErr, ok := err.(*ErrProvider)
	require.True(t, ok)
	assert.Contains(t, provErr.Reason, "HTTP 503")
}

func TestBANGeocodeInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	_, ok := err.(*ErrProvider)
	assert.True(t, ok)
}

func TestBANGeocodeUserAgent(t *testing.T) {
	userAgentReceived := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentReceived = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(banFeature))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)

	ctx := context.Background()
	_, err := provider.Geocode(ctx, "Test")

	require.NoError(t, err)
	assert.Equal(t, "internship-router-test", userAgentReceived)
}

func TestBANGeocodeThrottling(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(banFeature))
	}))
	defer server.Close()

	provider := newTestBAN(server.URL)
	provider.gate = newThrottle(50 * time.Millisecond)

	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := provider.Geocode(ctx, "Test")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// Two waits of 50ms separate three dispatches
	assert.True(t, elapsed >= 100*time.Millisecond, "throttling not spacing requests")
	assert.Equal(t, 3, requestCount)
}

func TestBANConfidenceMapping(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, banConfidence("housenumber"))
	assert.Equal(t, models.ConfidenceMedium, banConfidence("street"))
	assert.Equal(t, models.ConfidenceLow, banConfidence("locality"))
	assert.Equal(t, models.ConfidenceLow, banConfidence("municipality"))
	assert.Equal(t, models.ConfidenceUnknown, banConfidence("unheard-of"))
}
