package cache

import (
	"context"

	"internship-router/internal/models"
)

// GeocodeCache persists geocoding outcomes, successes and failures alike,
// keyed by the hash of the normalized address. Get returns (nil, nil) on a
// miss.
type GeocodeCache interface {
	Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error)
	Put(ctx context.Context, entry *models.GeocodeCacheEntry) error
	Delete(ctx context.Context, addressHash string) error
	ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error)
}

// RouteCache persists road metrics keyed by the provider + rounded endpoint
// pair hash. Get returns (nil, nil) on a miss.
type RouteCache interface {
	Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error)
	Put(ctx context.Context, entry *models.RouteCacheEntry) error
	Delete(ctx context.Context, pairHash string) error
}

// Store is the interface for cache persistence backends
type Store interface {
	Geocode() GeocodeCache
	Routes() RouteCache
	Close() error
	HealthCheck(ctx context.Context) error
}

// shouldReplace applies the write rules shared by every backend: a failed or
// pending lookup never overwrites a stored success, and a stored success only
// moves toward equal or higher precision. A success always replaces a stored
// failure.
func shouldReplace(existing, incoming *models.GeocodeCacheEntry) bool {
	if existing == nil {
		return true
	}
	if existing.Status != models.GeocodeOK {
		return true
	}
	if incoming.Status != models.GeocodeOK {
		return false
	}
	return incoming.Precision.Rank() >= existing.Precision.Rank()
}
