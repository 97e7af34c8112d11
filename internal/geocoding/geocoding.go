// Package geocoding converts free-text addresses into coordinates. Concrete
// providers wrap one backend each (BAN for France, Nominatim for Luxembourg
// and everything else); CompositeProvider routes between them by detected
// country, and Resolver layers the cache and the query fallback cascade on
// top.
package geocoding

import (
	"context"

	"internship-router/internal/models"
)

// Result contains a single geocoding match
type Result struct {
	Point models.GeoPoint
	// Confidence classifies the match granularity as reported by the backend
	Confidence models.Confidence
	// Provider is the name of the backend that produced the match
	Provider string
	// NormalizedAddress is the backend's display label for the match
	NormalizedAddress string
}

// Provider converts one query string into coordinates. Implementations are
// expected to self-throttle: callers issue requests back to back and rely on
// the provider to space them out.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*Result, error)
}
