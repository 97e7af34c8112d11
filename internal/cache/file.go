package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"internship-router/internal/models"
)

// fileData represents the structure of the cache file
type fileData struct {
	Geocode []models.GeocodeCacheEntry `json:"geocode"`
	Routes  []models.RouteCacheEntry   `json:"routes"`
}

// FileStore is a JSON-file-backed implementation of Store. Every mutation
// rewrites the file atomically via a temp file rename.
type FileStore struct {
	filePath     string
	data         *fileData
	geocodeIndex map[string]int // O(1) lookup by address hash (maps to index in Geocode slice)
	routeIndex   map[string]int
	mu           sync.RWMutex
}

// NewFileStore creates a file-backed store at the given path, loading any
// existing contents
func NewFileStore(filePath string) (*FileStore, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	log.Printf("[CACHE] Using cache file: %s", filePath)

	store := &FileStore{
		filePath:     filePath,
		data:         &fileData{Geocode: []models.GeocodeCacheEntry{}, Routes: []models.RouteCacheEntry{}},
		geocodeIndex: make(map[string]int),
		routeIndex:   make(map[string]int),
	}

	if err := store.load(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *FileStore) Geocode() GeocodeCache { return &fileGeocodeCache{store: s} }
func (s *FileStore) Routes() RouteCache    { return &fileRouteCache{store: s} }

func (s *FileStore) Close() error { return nil }

// HealthCheck verifies the cache file location is writable
func (s *FileStore) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(s.filePath); err != nil {
		return fmt.Errorf("cache file not accessible: %w", err)
	}
	return nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return s.saveUnlocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}

	if err := json.Unmarshal(data, s.data); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}

	if s.data.Geocode == nil {
		s.data.Geocode = []models.GeocodeCacheEntry{}
	}
	if s.data.Routes == nil {
		s.data.Routes = []models.RouteCacheEntry{}
	}

	s.rebuildIndexes()

	log.Printf("[CACHE] Loaded cache: geocode=%d routes=%d", len(s.data.Geocode), len(s.data.Routes))
	return nil
}

func (s *FileStore) saveUnlocked() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}

	return nil
}

// rebuildIndexes recreates both index maps from the entry slices.
// Must be called with the mutex already held.
func (s *FileStore) rebuildIndexes() {
	s.geocodeIndex = make(map[string]int)
	for i := range s.data.Geocode {
		s.geocodeIndex[s.data.Geocode[i].AddressHash] = i
	}
	s.routeIndex = make(map[string]int)
	for i := range s.data.Routes {
		s.routeIndex[s.data.Routes[i].PairHash] = i
	}
}

type fileGeocodeCache struct {
	store *FileStore
}

func (c *fileGeocodeCache) Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.geocodeIndex[addressHash]
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent callers from modifying cache data without locks
	entryCopy := s.data.Geocode[idx]
	return &entryCopy, nil
}

func (c *fileGeocodeCache) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.geocodeIndex[entry.AddressHash]; ok {
		existing := s.data.Geocode[idx]
		if !shouldReplace(&existing, entry) {
			return nil
		}
		s.data.Geocode[idx] = *entry
		return s.saveUnlocked()
	}

	s.data.Geocode = append(s.data.Geocode, *entry)
	s.geocodeIndex[entry.AddressHash] = len(s.data.Geocode) - 1
	return s.saveUnlocked()
}

func (c *fileGeocodeCache) Delete(ctx context.Context, addressHash string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.geocodeIndex[addressHash]
	if !ok {
		return nil
	}
	s.data.Geocode = append(s.data.Geocode[:idx], s.data.Geocode[idx+1:]...)
	s.rebuildIndexes()
	return s.saveUnlocked()
}

func (c *fileGeocodeCache) ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.GeocodeCacheEntry
	for _, entry := range s.data.Geocode {
		if entry.Status == status {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fileRouteCache struct {
	store *FileStore
}

func (c *fileRouteCache) Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error) {
	s := c.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.routeIndex[pairHash]
	if !ok {
		return nil, nil
	}
	entryCopy := s.data.Routes[idx]
	return &entryCopy, nil
}

func (c *fileRouteCache) Put(ctx context.Context, entry *models.RouteCacheEntry) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Route entries are immutable: first write wins
	if _, ok := s.routeIndex[entry.PairHash]; ok {
		return nil
	}
	s.data.Routes = append(s.data.Routes, *entry)
	s.routeIndex[entry.PairHash] = len(s.data.Routes) - 1
	return s.saveUnlocked()
}

func (c *fileRouteCache) Delete(ctx context.Context, pairHash string) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.routeIndex[pairHash]
	if !ok {
		return nil
	}
	s.data.Routes = append(s.data.Routes[:idx], s.data.Routes[idx+1:]...)
	s.rebuildIndexes()
	return s.saveUnlocked()
}
