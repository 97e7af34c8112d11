package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"internship-router/internal/cache"
	"internship-router/internal/geo"
	"internship-router/internal/metrics"
	"internship-router/internal/models"
)

const (
	osrmDefaultBaseURL = "https://router.project-osrm.org"
	osrmProviderName   = "osrm"

	// osrmMinInterval keeps load on the public demo server polite
	osrmMinInterval = 100 * time.Millisecond
)

// OSRMCalculator computes driving metrics against an OSRM instance, reading
// and writing the route cache around every live call
type OSRMCalculator struct {
	baseURL     string
	httpClient  *http.Client
	routes      cache.RouteCache
	minInterval time.Duration

	mu           sync.Mutex
	nextDispatch time.Time
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// NewOSRMCalculator creates an OSRM calculator over the given route cache.
// An empty baseURL selects the public demo server.
func NewOSRMCalculator(baseURL string, routes cache.RouteCache) *OSRMCalculator {
	if baseURL == "" {
		baseURL = osrmDefaultBaseURL
	}
	return &OSRMCalculator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		routes:      routes,
		minInterval: osrmMinInterval,
	}
}

// waitTurn spaces live OSRM calls at least minInterval apart
func (c *OSRMCalculator) waitTurn(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	dispatch := c.nextDispatch
	if dispatch.Before(now) {
		dispatch = now
	}
	c.nextDispatch = dispatch.Add(c.minInterval)
	c.mu.Unlock()

	delay := time.Until(dispatch)
	if delay <= 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RouteMetrics returns the driving distance and duration between two points,
// consulting the route cache before going to the network
func (c *OSRMCalculator) RouteMetrics(ctx context.Context, from, to models.GeoPoint) (*RouteMetrics, error) {
	// Same rounded endpoint on both sides costs nothing
	if geo.SamePoint(from, to) {
		return &RouteMetrics{Provider: osrmProviderName}, nil
	}

	pairHash := geo.RouteKey(osrmProviderName, from, to)
	cached, err := c.routes.Get(ctx, pairHash)
	switch {
	case err != nil:
		metrics.RecordCacheOp("route", "error")
		log.Printf("[CACHE] Route read failed, treating as miss: origin=(%.5f,%.5f) dest=(%.5f,%.5f) err=%v",
			from.Lat, from.Lng, to.Lat, to.Lng, err)
	case cached != nil:
		metrics.RecordCacheOp("route", "hit")
		return &RouteMetrics{
			DistanceMeters: cached.DistanceMeters,
			DurationSecs:   cached.DurationSecs,
			Provider:       cached.Provider,
		}, nil
	default:
		metrics.RecordCacheOp("route", "miss")
	}

	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false",
		c.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)
	log.Printf("[OSRM] Route request: origin=(%.5f,%.5f) dest=(%.5f,%.5f)", from.Lat, from.Lng, to.Lat, to.Lng)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create OSRM request: err=%v", err)
		return nil, &ErrRouteFailed{Origin: from, Dest: to, Reason: err.Error()}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordRouteLatency(osrmProviderName, time.Since(start).Seconds())
	if err != nil {
		metrics.RecordRouteRequest(osrmProviderName, "error")
		log.Printf("[ERROR] OSRM request failed: err=%v", err)
		return nil, &ErrRouteFailed{Origin: from, Dest: to, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.RecordRouteRequest(osrmProviderName, "error")
		log.Printf("[ERROR] OSRM API error: status=%d body=%s", resp.StatusCode, string(body))
		return nil, &ErrRouteFailed{
			Origin: from,
			Dest:   to,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var decoded osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.RecordRouteRequest(osrmProviderName, "error")
		log.Printf("[ERROR] Failed to decode OSRM response: err=%v", err)
		return nil, &ErrRouteFailed{Origin: from, Dest: to, Reason: err.Error()}
	}

	if decoded.Code != "Ok" {
		metrics.RecordRouteRequest(osrmProviderName, "error")
		log.Printf("[ERROR] OSRM returned error code: code=%s", decoded.Code)
		return nil, &ErrRouteFailed{Origin: from, Dest: to, Reason: fmt.Sprintf("OSRM error: %s", decoded.Code)}
	}
	if len(decoded.Routes) == 0 {
		metrics.RecordRouteRequest(osrmProviderName, "error")
		log.Printf("[ERROR] OSRM returned no routes: origin=(%.5f,%.5f) dest=(%.5f,%.5f)", from.Lat, from.Lng, to.Lat, to.Lng)
		return nil, &ErrRouteFailed{Origin: from, Dest: to, Reason: "no routes returned"}
	}

	route := decoded.Routes[0]
	metrics.RecordRouteRequest(osrmProviderName, "ok")
	log.Printf("[OSRM] Route response: distance=%.0f duration=%.0f", route.Distance, route.Duration)

	entry := &models.RouteCacheEntry{
		PairHash:       pairHash,
		Origin:         from,
		Destination:    to,
		DistanceMeters: route.Distance,
		DurationSecs:   route.Duration,
		Provider:       osrmProviderName,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.routes.Put(ctx, entry); err != nil {
		metrics.RecordCacheOp("route", "error")
		log.Printf("[CACHE] Failed to store route entry: err=%v", err)
	}

	return &RouteMetrics{
		DistanceMeters: route.Distance,
		DurationSecs:   route.Duration,
		Provider:       osrmProviderName,
	}, nil
}
