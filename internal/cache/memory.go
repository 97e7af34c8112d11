package cache

import (
	"context"
	"sync"

	"internship-router/internal/models"
)

// MemoryStore is an in-memory implementation of Store, used as the default
// backend and in tests
type MemoryStore struct {
	geocode *memoryGeocodeCache
	routes  *memoryRouteCache
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		geocode: &memoryGeocodeCache{entries: make(map[string]models.GeocodeCacheEntry)},
		routes:  &memoryRouteCache{entries: make(map[string]models.RouteCacheEntry)},
	}
}

func (s *MemoryStore) Geocode() GeocodeCache { return s.geocode }
func (s *MemoryStore) Routes() RouteCache    { return s.routes }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) HealthCheck(ctx context.Context) error { return nil }

type memoryGeocodeCache struct {
	mu      sync.RWMutex
	entries map[string]models.GeocodeCacheEntry
}

func (c *memoryGeocodeCache) Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[addressHash]
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent callers from modifying cache data without locks
	entryCopy := entry
	return &entryCopy, nil
}

func (c *memoryGeocodeCache) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var existing *models.GeocodeCacheEntry
	if current, ok := c.entries[entry.AddressHash]; ok {
		existing = &current
	}
	if !shouldReplace(existing, entry) {
		return nil
	}
	c.entries[entry.AddressHash] = *entry
	return nil
}

func (c *memoryGeocodeCache) Delete(ctx context.Context, addressHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, addressHash)
	return nil
}

func (c *memoryGeocodeCache) ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []models.GeocodeCacheEntry
	for _, entry := range c.entries {
		if entry.Status == status {
			result = append(result, entry)
		}
	}
	return result, nil
}

type memoryRouteCache struct {
	mu      sync.RWMutex
	entries map[string]models.RouteCacheEntry
}

func (c *memoryRouteCache) Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[pairHash]
	if !ok {
		return nil, nil
	}
	entryCopy := entry
	return &entryCopy, nil
}

func (c *memoryRouteCache) Put(ctx context.Context, entry *models.RouteCacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Route entries are immutable: first write wins
	if _, ok := c.entries[entry.PairHash]; ok {
		return nil
	}
	c.entries[entry.PairHash] = *entry
	return nil
}

func (c *memoryRouteCache) Delete(ctx context.Context, pairHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, pairHash)
	return nil
}
