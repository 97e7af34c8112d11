package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"internship-router/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore is a PostgreSQL-backed implementation of Store, for
// deployments where several instances share one cache
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL via the given URL and ensures the
// cache tables exist
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize postgres schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address_hash TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		normalized_address TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lng DOUBLE PRECISION,
		provider TEXT NOT NULL DEFAULT '',
		confidence TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		precision TEXT NOT NULL,
		query TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_geocode_cache_status ON geocode_cache(status);

	CREATE TABLE IF NOT EXISTS route_cache (
		pair_hash TEXT PRIMARY KEY,
		origin_lat DOUBLE PRECISION NOT NULL,
		origin_lng DOUBLE PRECISION NOT NULL,
		dest_lat DOUBLE PRECISION NOT NULL,
		dest_lng DOUBLE PRECISION NOT NULL,
		distance_meters DOUBLE PRECISION NOT NULL,
		duration_secs DOUBLE PRECISION NOT NULL,
		provider TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create cache tables: %w", err)
	}
	return nil
}

func (s *PostgresStore) Geocode() GeocodeCache { return &postgresGeocodeCache{DB: s.db} }
func (s *PostgresStore) Routes() RouteCache    { return &postgresRouteCache{DB: s.db} }

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// postgresGeocodeCache is a SQL-backed cache for geocoding outcomes
type postgresGeocodeCache struct {
	DB *sql.DB
}

func (c *postgresGeocodeCache) Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error) {
	q := `
	SELECT address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at
	FROM geocode_cache
	WHERE address_hash = $1;
	`

	var entry models.GeocodeCacheEntry
	var lat, lng sql.NullFloat64
	err := c.DB.QueryRowContext(ctx, q, addressHash).Scan(
		&entry.AddressHash, &entry.Address, &entry.NormalizedAddress, &lat, &lng,
		&entry.Provider, &entry.Confidence, &entry.Status, &entry.Precision, &entry.Query, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	if lat.Valid && lng.Valid {
		entry.Point = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &entry, nil
}

func (c *postgresGeocodeCache) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	q := `
	INSERT INTO geocode_cache (address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (address_hash) DO UPDATE
	SET address = EXCLUDED.address,
		normalized_address = EXCLUDED.normalized_address,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		provider = EXCLUDED.provider,
		confidence = EXCLUDED.confidence,
		status = EXCLUDED.status,
		precision = EXCLUDED.precision,
		query = EXCLUDED.query,
		updated_at = EXCLUDED.updated_at
	WHERE geocode_cache.status != 'ok'
	   OR (EXCLUDED.status = 'ok'
	       AND CASE EXCLUDED.precision WHEN 'full' THEN 3 WHEN 'city' THEN 2 WHEN 'townhall' THEN 1 ELSE 0 END
	        >= CASE geocode_cache.precision WHEN 'full' THEN 3 WHEN 'city' THEN 2 WHEN 'townhall' THEN 1 ELSE 0 END);
	`

	var lat, lng sql.NullFloat64
	if entry.Point != nil {
		lat = sql.NullFloat64{Float64: entry.Point.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: entry.Point.Lng, Valid: true}
	}

	if _, err := c.DB.ExecContext(ctx, q,
		entry.AddressHash, entry.Address, entry.NormalizedAddress, lat, lng,
		entry.Provider, entry.Confidence, entry.Status, entry.Precision, entry.Query, entry.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}
	return nil
}

func (c *postgresGeocodeCache) Delete(ctx context.Context, addressHash string) error {
	if _, err := c.DB.ExecContext(ctx, `DELETE FROM geocode_cache WHERE address_hash = $1;`, addressHash); err != nil {
		return fmt.Errorf("delete geocode cache: %w", err)
	}
	return nil
}

func (c *postgresGeocodeCache) ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error) {
	q := `
	SELECT address_hash, address, normalized_address, lat, lng, provider, confidence, status, precision, query, updated_at
	FROM geocode_cache
	WHERE status = $1
	ORDER BY updated_at DESC;
	`

	rows, err := c.DB.QueryContext(ctx, q, status)
	if err != nil {
		return nil, fmt.Errorf("list geocode cache: query geocode_cache table: %w", err)
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
			return nil, fmt.Errorf("list geocode cache: scan rows: %w", err)
		}
		if lat.Valid && lng.Valid {
			entry.Point = &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list geocode cache: row iteration: %w", err)
	}
	return result, nil
}

// postgresRouteCache is a SQL-backed cache for road metrics
type postgresRouteCache struct {
	DB *sql.DB
}

func (c *postgresRouteCache) Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error) {
	q := `
	SELECT pair_hash, origin_lat, origin_lng, dest_lat, dest_lng, distance_meters, duration_secs, provider, created_at
	FROM route_cache
	WHERE pair_hash = $1;
	`

	var entry models.RouteCacheEntry
	err := c.DB.QueryRowContext(ctx, q, pairHash).Scan(
		&entry.PairHash, &entry.Origin.Lat, &entry.Origin.Lng, &entry.Destination.Lat, &entry.Destination.Lng,
		&entry.DistanceMeters, &entry.DurationSecs, &entry.Provider, &entry.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}
	return &entry, nil
}

func (c *postgresRouteCache) Put(ctx context.Context, entry *models.RouteCacheEntry) error {
	q := `
	INSERT INTO route_cache (pair_hash, origin_lat, origin_lng, dest_lat, dest_lng, distance_meters, duration_secs, provider, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (pair_hash) DO NOTHING;
	`

	if _, err := c.DB.ExecContext(ctx, q,
		entry.PairHash, entry.Origin.Lat, entry.Origin.Lng, entry.Destination.Lat, entry.Destination.Lng,
		entry.DistanceMeters, entry.DurationSecs, entry.Provider, entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}
	return nil
}

func (c *postgresRouteCache) Delete(ctx context.Context, pairHash string) error {
	if _, err := c.DB.ExecContext(ctx, `DELETE FROM route_cache WHERE pair_hash = $1;`, pairHash); err != nil {
		return fmt.Errorf("delete route cache: %w", err)
	}
	return nil
}
