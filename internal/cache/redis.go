package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"internship-router/internal/models"
)

const (
	geocodeKeyPrefix    = "geocode:"
	geocodeStatusPrefix = "geocode:status:"
	routeKeyPrefix      = "route:"
)

// RedisStore is a Redis-backed implementation of Store. Geocode entries are
// JSON values under geocode:{hash} with per-status index sets; route entries
// live under route:{hash}.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at the given address
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("verify redis connection: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Geocode() GeocodeCache { return &redisGeocodeCache{client: s.client} }
func (s *RedisStore) Routes() RouteCache    { return &redisRouteCache{client: s.client} }

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

type redisGeocodeCache struct {
	client *redis.Client
}

func (c *redisGeocodeCache) Get(ctx context.Context, addressHash string) (*models.GeocodeCacheEntry, error) {
	data, err := c.client.Get(ctx, geocodeKeyPrefix+addressHash).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: %w", err)
	}

	var entry models.GeocodeCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("get geocode cache: decode entry: %w", err)
	}
	return &entry, nil
}

func (c *redisGeocodeCache) Put(ctx context.Context, entry *models.GeocodeCacheEntry) error {
	existing, err := c.Get(ctx, entry.AddressHash)
	if err != nil {
		return err
	}
	if !shouldReplace(existing, entry) {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("insert geocode cache: encode entry: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, geocodeKeyPrefix+entry.AddressHash, data, 0)
		if existing != nil && existing.Status != entry.Status {
			pipe.SRem(ctx, geocodeStatusPrefix+string(existing.Status), entry.AddressHash)
		}
		pipe.SAdd(ctx, geocodeStatusPrefix+string(entry.Status), entry.AddressHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert geocode cache: %w", err)
	}
	return nil
}

func (c *redisGeocodeCache) Delete(ctx context.Context, addressHash string) error {
	existing, err := c.Get(ctx, addressHash)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, geocodeKeyPrefix+addressHash)
		pipe.SRem(ctx, geocodeStatusPrefix+string(existing.Status), addressHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete geocode cache: %w", err)
	}
	return nil
}

func (c *redisGeocodeCache) ListByStatus(ctx context.Context, status models.GeocodeStatus) ([]models.GeocodeCacheEntry, error) {
	hashes, err := c.client.SMembers(ctx, geocodeStatusPrefix+string(status)).Result()
	if err != nil {
		return nil, fmt.Errorf("list geocode cache: %w", err)
	}

	var result []models.GeocodeCacheEntry
	for _, hash := range hashes {
		entry, err := c.Get(ctx, hash)
		if err != nil {
			return nil, err
		}
		// Skip index members whose entry has expired or been removed
		if entry == nil {
			continue
		}
		result = append(result, *entry)
	}
	return result, nil
}

type redisRouteCache struct {
	client *redis.Client
}

func (c *redisRouteCache) Get(ctx context.Context, pairHash string) (*models.RouteCacheEntry, error) {
	data, err := c.client.Get(ctx, routeKeyPrefix+pairHash).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get route cache: %w", err)
	}

	var entry models.RouteCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("get route cache: decode entry: %w", err)
	}
	return &entry, nil
}

func (c *redisRouteCache) Put(ctx context.Context, entry *models.RouteCacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("insert route cache: encode entry: %w", err)
	}

	// Route entries are immutable: first write wins
	if err := c.client.SetNX(ctx, routeKeyPrefix+entry.PairHash, data, 0).Err(); err != nil {
		return fmt.Errorf("insert route cache: %w", err)
	}
	return nil
}

func (c *redisRouteCache) Delete(ctx context.Context, pairHash string) error {
	if err := c.client.Del(ctx, routeKeyPrefix+pairHash).Err(); err != nil {
		return fmt.Errorf("delete route cache: %w", err)
	}
	return nil
}
