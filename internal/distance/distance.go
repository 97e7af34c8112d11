// Package distance computes road metrics between coordinate pairs. The OSRM
// calculator is cache-first; when a route cannot be computed the caller
// substitutes the haversine estimate so a pair is never dropped.
package distance

import (
	"context"
	"fmt"

	"internship-router/internal/geo"
	"internship-router/internal/models"
)

// RouteMetrics is the road cost of one origin-destination pair
type RouteMetrics struct {
	DistanceMeters float64
	DurationSecs   float64
	// Degraded marks estimated metrics substituted after a route failure
	Degraded bool
	Provider string
}

// Calculator computes road metrics between two points
type Calculator interface {
	RouteMetrics(ctx context.Context, from, to models.GeoPoint) (*RouteMetrics, error)
}

// ErrRouteFailed is returned when the routing backend cannot produce metrics
type ErrRouteFailed struct {
	Origin models.GeoPoint
	Dest   models.GeoPoint
	Reason string
}

func (e *ErrRouteFailed) Error() string {
	return fmt.Sprintf("route calculation failed: %s", e.Reason)
}

// Fallback estimates road metrics from the great-circle distance, using a
// 1.3 road distortion factor and a 50 km/h average speed. Estimates are
// marked Degraded and must never be cached.
func Fallback(from, to models.GeoPoint) *RouteMetrics {
	road := geo.EstimateRoadMeters(geo.HaversineMeters(from, to))
	return &RouteMetrics{
		DistanceMeters: road,
		DurationSecs:   geo.EstimateDurationSecs(road),
		Degraded:       true,
		Provider:       "haversine",
	}
}
