package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-router/internal/models"
)

func newTestNominatim(baseURL string) *NominatimProvider {
	return &NominatimProvider{
		baseURL:   baseURL,
		userAgent: "internship-router-test",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		gate: newThrottle(time.Millisecond),
	}
}

func TestNominatimGeocodeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/search")
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))

		response := []nominatimResponse{
			{
				Lat:         "49.6116",
				Lon:         "6.1319",
				DisplayName: "Luxembourg, Canton Luxembourg, Luxembourg",
				Class:       "place",
				Type:        "city",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := newTestNominatim(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Luxembourg")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 49.6116, result.Point.Lat)
	assert.Equal(t, 6.1319, result.Point.Lng)
	assert.Equal(t, models.ConfidenceLow, result.Confidence)
	assert.Equal(t, "nominatim", result.Provider)
	assert.Equal(t, "Luxembourg, Canton Luxembourg, Luxembourg", result.NormalizedAddress)
}

func TestNominatimGeocodeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := []nominatimResponse{}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := newTestNominatim(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Nonexistent Location")

	require.Error(t, err)
	assert.Nil(t, result)

	notFound, ok := err.(*ErrNotFound)
	require.True(t, ok)
	assert.Equal(t, "nominatim", notFound.Provider)
}

func TestNominatimGeocodeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	provider := newTestNominatim(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	provErr, ok := err.(*ErrProvider)
	require.True(t, ok)
	assert.Contains(t, provErr.Reason, "HTTP 500")
}

func TestNominatimGeocodeInvalidLatLon(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := []nominatimResponse{
			{Lat: "invalid", Lon: "6.1319", DisplayName: "Test"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := newTestNominatim(server.URL)

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Test Address")

	require.Error(t, err)
	assert.Nil(t, result)

	provErr, ok := err.(*ErrProvider)
	require.True(t, ok)
	assert.Contains(t, provErr.Reason, "invalid latitude")
}

func TestNominatimGeocodeRequiresUserAgent(t *testing.T) {
	provider := newTestNominatim("http://unused")
	provider.userAgent = ""

	ctx := context.Background()
	result, err := provider.Geocode(ctx, "Test")

	require.Error(t, err)
	assert.Nil(t, result)

	confErr, ok := err.(*ErrConfiguration)
	require.True(t, ok)
	assert.Contains(t, confErr.Reason, "User-Agent")
}

func TestNominatimGeocodeContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		response := []nominatimResponse{
			{Lat: "49.6116", Lon: "6.1319", DisplayName: "Test"},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := newTestNominatim(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	result, err := provider.Geocode(ctx, "Test")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestNominatimConfidenceMapping(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, nominatimConfidence("building", "yes"))
	assert.Equal(t, models.ConfidenceHigh, nominatimConfidence("place", "house"))
	assert.Equal(t, models.ConfidenceMedium, nominatimConfidence("highway", "residential"))
	assert.Equal(t, models.ConfidenceLow, nominatimConfidence("place", "city"))
	assert.Equal(t, models.ConfidenceLow, nominatimConfidence("place", "village"))
	assert.Equal(t, models.ConfidenceLow, nominatimConfidence("boundary", "administrative"))
	assert.Equal(t, models.ConfidenceLow, nominatimConfidence("amenity", "townhall"))
	assert.Equal(t, models.ConfidenceUnknown, nominatimConfidence("waterway", "river"))
}
