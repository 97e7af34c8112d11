package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"internship-router/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchemaVersion = 1

// SQLiteStore is a SQLite-backed implementation of Store
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) a SQLite cache database at the given path
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Printf("[CACHE] Opening SQLite database at: %s", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, create everything
		return s.createSchema()
	}
	if version < sqliteSchemaVersion {
		_, err := s.db.Exec("UPDATE schema_version SET version = ?", sqliteSchemaVersion)
		return err
	}
	return nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
	-- Schema version tracking
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);
	INSERT INTO schema_version (version) VALUES (1);

	-- Geocoding outcomes, successes and failures alike
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address_hash TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		normalized_address TEXT NOT NULL,
		lat REAL,
		lng REAL,
		provider TEXT NOT NULL DEFAULT '',
		confidence TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		precision TEXT NOT NULL,
		query TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_geocode_cache_status ON geocode_cache(status);

	-- Road metrics per provider and rounded endpoint pair
	CREATE TABLE IF NOT EXISTS route_cache (
		pair_hash TEXT PRIMARY KEY,
		origin_lat REAL NOT NULL,
		origin_lng REAL NOT NULL,
		dest_lat REAL NOT NULL,
		dest_lng REAL NOT NULL,
		distance_meters REAL NOT NULL,
		duration_secs REAL NOT NULL,
		provider TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("[CACHE] SQLite schema initialized (version %d)", sqliteSchemaVersion)
	return nil
}

func (s *SQLiteStore) Geocode() GeocodeCache { return &sqliteGeocodeCache{db: s.db} }
func (s *SQLiteStore) Routes() RouteCache    { return &sqliteRouteCache{db: s.db} }

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is alive
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type sqliteGeocodeCache struct {
	db *sql.DB
}

func (c *sqliteGeocodeCache) Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error) {
	query := `
		SELECT address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at
		FROM geocode_cache
		WHERE address_hash = ?
	`

	var entry models.GeocodeCacheEntry
	var lat, lng sql.NullFloat64
	err := c.db.QueryRowContext(ctx, query, addressHash).Scan(
		&entry.AddressHash, &entry.Address, &entry.NormalizedAddress, &lat, &lng,
		&entry.Provider, &entry.Confidence, &entry.Status, &entry.Precision, &entry.Query, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached geocode: %w", err)
	}

	if lat.Valid && lng.Valid {
		entry.Point = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &entry, nil
}

func (c *sqliteGeocodeCache) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	// The DO UPDATE guard keeps stored successes sticky against failures and
	// against lower-precision successes
	query := `
		INSERT INTO geocode_cache (address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address_hash) DO UPDATE SET
			address = excluded.address,
			normalized_address = excluded.normalized_address,
			lat = excluded.lat,
			lng = excluded.lng,
			provider = excluded.provider,
			confidence = excluded.confidence,
			status = excluded.status,
			precision = excluded.precision,
			query = excluded.query,
			updated_at = excluded.updated_at
		WHERE geocode_cache.status != 'ok'
		   OR (excluded.status = 'ok'
		       AND CASE excluded.precision WHEN 'full' THEN 3 WHEN 'city' THEN 2 WHEN 'townhall' THEN 1 ELSE 0 END
		        >= CASE geocode_cache.precision WHEN 'full' THEN 3 WHEN 'city' THEN 2 WHEN 'townhall' THEN 1 ELSE 0 END)
	`

	var lat, lng sql.NullFloat64
	if entry.Point != nil {
		lat = sql.NullFloat64{Float64: entry.Point.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: entry.Point.Lng, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, query,
		entry.AddressHash, entry.Address, entry.NormalizedAddress, lat, lng,
		entry.Provider, entry.Confidence, entry.Status, entry.Precision, entry.Query, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set cached geocode: %w", err)
	}
	return nil
}

func (c *sqliteGeocodeCache) Delete(ctx context.Context, addressHash string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM geocode_cache WHERE address_hash = ?`, addressHash)
	if err != nil {
		return fmt.Errorf("failed to delete cached geocode: %w", err)
	}
	return nil
}

func (c *sqliteGeocodeCache) ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error) {
	query := `
		SELECT address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at
		FROM geocode_cache
		WHERE status = ?
		ORDER BY updated_at DESC
	`

	rows, err := c.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached geocodes: %w", err)
	}
	defer rows.Close()

	var result []models.GeocodeCacheEntry
	for rows.Next() {
		var entry models.GeocodeCacheEntry
		var lat, lng sql.NullFloat64
		if err := rows.Scan(
			&entry.AddressHash, &entry.Address, &entry.NormalizedAddress, &lat, &lng,
			&entry.Provider, &entry.Confidence, &entry.Status, &entry.Precision, &entry.Query, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cached geocode: %w", err)
		}
		if lat.Valid && lng.Valid {
			entry.Point = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

type sqliteRouteCache struct {
	db *sql.DB
}

func (c *sqliteRouteCache) Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error) {
	query := `
		SELECT pair_hash, origin_lat, origin_lng, dest_lat, dest_lng, distance_meters, duration_secs, provider, created_at
		FROM route_cache
		WHERE pair_hash = ?
	`

	var entry models.RouteCacheEntry
	err := c.db.QueryRowContext(ctx, query, pairHash).Scan(
		&entry.PairHash, &entry.Origin.Lat, &entry.Origin.Lng, &entry.Destination.Lat, &entry.Destination.Lng,
		&entry.DistanceMeters, &entry.DurationSecs, &entry.Provider, &entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached route: %w", err)
	}
	return &entry, nil
}

func (c *sqliteRouteCache) Put(ctx context.Context, entry *models.RouteCacheEntry) error {
	// Route entries are immutable: first write wins
	query := `
		INSERT INTO route_cache (pair_hash, origin_lat, origin_lng, dest_lat, dest_lng, distance_meters, duration_secs, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pair_hash) DO NOTHING
	`

	_, err := c.db.ExecContext(ctx, query,
		entry.PairHash, entry.Origin.Lat, entry.Origin.Lng, entry.Destination.Lat, entry.Destination.Lng,
		entry.DistanceMeters, entry.DurationSecs, entry.Provider, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set cached route: %w", err)
	}
	return nil
}

func (c *sqliteRouteCache) Delete(ctx context.Context, pairHash string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM route_cache WHERE pair_hash = ?`, pairHash)
	if err != nil {
		return fmt.Errorf("failed to delete cached route: %w", err)
	}
	return nil
}
