package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internship-router/internal/cache"
	"internship-router/internal/geo"
	"internship-router/internal/models"
)

var (
	metzCenter = models.GeoPoint{Lat: 49.11931, Lng: 6.17574}
	thionville = models.GeoPoint{Lat: 49.35792, Lng: 6.16789}
)

const osrmRouteOK = `{"code":"Ok","routes":[{"distance":31450.7,"duration":1854.3}]}`

func newTestOSRM(baseURL string, routes cache.RouteCache) *OSRMCalculator {
	return &OSRMCalculator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		routes:      routes,
		minInterval: time.Millisecond,
	}
}

func TestOSRMRouteMetricsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/route/v1/driving/")
		assert.Equal(t, "false", r.URL.Query().Get("overview"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmRouteOK))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())

	ctx := context.Background()
	result, err := calc.RouteMetrics(ctx, metzCenter, thionville)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 31450.7, result.DistanceMeters)
	assert.Equal(t, 1854.3, result.DurationSecs)
	assert.False(t, result.Degraded)
	assert.Equal(t, "osrm", result.Provider)

	// The result was written to the route cache
	entry, err := store.Routes().Get(ctx, geo.RouteKey("osrm", metzCenter, thionville))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 31450.7, entry.DistanceMeters)
}

func TestOSRMRouteMetricsCacheHit(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmRouteOK))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	require.NoError(t, store.Routes().Put(context.Background(), &models.RouteCacheEntry{
		PairHash:       geo.RouteKey("osrm", metzCenter, thionville),
		Origin:         metzCenter,
		Destination:    thionville,
		DistanceMeters: 31000,
		DurationSecs:   1800,
		Provider:       "osrm",
		CreatedAt:      time.Now().UTC(),
	}))

	calc := newTestOSRM(server.URL, store.Routes())

	result, err := calc.RouteMetrics(context.Background(), metzCenter, thionville)

	require.NoError(t, err)
	assert.Equal(t, float64(31000), result.DistanceMeters)
	assert.Equal(t, float64(1800), result.DurationSecs)
	assert.Equal(t, 0, requestCount, "cached pair must not hit the network")
}

func TestOSRMRouteMetricsSecondCallCached(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmRouteOK))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())
	ctx := context.Background()

	first, err := calc.RouteMetrics(ctx, metzCenter, thionville)
	require.NoError(t, err)
	second, err := calc.RouteMetrics(ctx, metzCenter, thionville)
	require.NoError(t, err)

	assert.Equal(t, first.DistanceMeters, second.DistanceMeters)
	assert.Equal(t, 1, requestCount)
}

func TestOSRMRouteMetricsSamePoint(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())

	// Differ only past the fifth decimal: same point after rounding
	nearby := models.GeoPoint{Lat: metzCenter.Lat + 0.000001, Lng: metzCenter.Lng}
	result, err := calc.RouteMetrics(context.Background(), metzCenter, nearby)

	require.NoError(t, err)
	assert.Equal(t, float64(0), result.DistanceMeters)
	assert.Equal(t, float64(0), result.DurationSecs)
	assert.Equal(t, 0, requestCount)
}

func TestOSRMRouteMetricsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())

	result, err := calc.RouteMetrics(context.Background(), metzCenter, thionville)

	require.Error(t, err)
	assert.Nil(t, result)

	routeErr, ok := err.(*ErrRouteFailed)
	require.True(t, ok)
	assert.Contains(t, routeErr.Reason, "HTTP 502")
}

func TestOSRMRouteMetricsErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())

	result, err := calc.RouteMetrics(context.Background(), metzCenter, thionville)

	require.Error(t, err)
	assert.Nil(t, result)

	routeErr, ok := err.(*ErrRouteFailed)
	require.True(t, ok)
	assert.Contains(t, routeErr.Reason, "NoRoute")

	// Failures are never cached
	entry, err := store.Routes().Get(context.Background(), geo.RouteKey("osrm", metzCenter, thionville))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestOSRMRouteMetricsThrottling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(osrmRouteOK))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	calc := newTestOSRM(server.URL, store.Routes())
	calc.minInterval = 40 * time.Millisecond

	ctx := context.Background()
	destinations := []models.GeoPoint{
		{Lat: 49.2, Lng: 6.1},
		{Lat: 49.3, Lng: 6.2},
		{Lat: 49.4, Lng: 6.3},
	}

	start := time.Now()
	for _, dest := range destinations {
		_, err := calc.RouteMetrics(ctx, metzCenter, dest)
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	assert.True(t, elapsed >= 80*time.Millisecond, "throttling not spacing live calls")
}
