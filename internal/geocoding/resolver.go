package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"internship-router/internal/address"
	"internship-router/internal/cache"
	"internship-router/internal/geo"
	"internship-router/internal/metrics"
	"internship-router/internal/models"
)

// Resolution is the outcome of resolving one address through the cache and
// the fallback cascade. It is a value, never an error: provider failures end
// up as Status == GeocodeError with the reason in ErrorMessage.
type Resolution struct {
	Status            models.GeocodeStatus `json:"status"`
	Point             *models.GeoPoint     `json:"point,omitempty"`
	Precision         models.Precision     `json:"precision"`
	Confidence        models.Confidence    `json:"confidence,omitempty"`
	Provider          string               `json:"provider,omitempty"`
	Query             string               `json:"query,omitempty"`
	NormalizedAddress string               `json:"normalized_address,omitempty"`
	FromCache         bool                 `json:"from_cache"`
	ErrorMessage      string               `json:"error_message,omitempty"`
}

// ResolverOptions tunes the cascade
type ResolverOptions struct {
	// AttemptDelay is the pause between consecutive live attempts for the
	// same address, on top of the providers' own throttling
	AttemptDelay time.Duration
	// ForceRefresh skips the cache lookup (writes still happen)
	ForceRefresh bool
}

// Resolver turns raw addresses into coordinates using a cache-first fallback
// cascade: full address, then city, then town hall, then query variants.
// Every outcome, success or failure, is written back to the cache; the
// adapters' sticky Put keeps failures from clobbering stored successes.
type Resolver struct {
	provider Provider
	cache    cache.GeocodeCache
	opts     ResolverOptions
}

// NewResolver creates a resolver over the given provider and cache
func NewResolver(provider Provider, geocodeCache cache.GeocodeCache, opts ResolverOptions) *Resolver {
	return &Resolver{provider: provider, cache: geocodeCache, opts: opts}
}

// Resolve runs the cascade for one address. The returned error is non-nil
// only when ctx was cancelled; every other failure is reported inside the
// Resolution.
func (r *Resolver) Resolve(ctx context.Context, rawAddress string) (Resolution, error) {
	if strings.TrimSpace(rawAddress) == "" {
		// Nothing to query and nothing worth caching
		vErr := &address.ErrValidation{Reason: "empty address"}
		return Resolution{
			Status:       models.GeocodeError,
			Precision:    models.PrecisionNone,
			ErrorMessage: vErr.Error(),
		}, nil
	}

	normalized := geo.NormalizeAddress(rawAddress)
	hash := geo.AddressHash(rawAddress)

	if !r.opts.ForceRefresh {
		entry, err := r.cache.Get(ctx, hash)
		switch {
		case err != nil:
			metrics.RecordCacheOp("geocode", "error")
			log.Printf("[CACHE] Geocode read failed, treating as miss: address=%s err=%v", rawAddress, err)
		case entry == nil:
			metrics.RecordCacheOp("geocode", "miss")
		case entry.Status == models.GeocodeOK:
			metrics.RecordCacheOp("geocode", "hit")
			log.Printf("[RESOLVER] Cache hit: address=%s precision=%s provider=%s", rawAddress, entry.Precision, entry.Provider)
			return Resolution{
				Status:            models.GeocodeOK,
				Point:             entry.Point,
				Precision:         entry.Precision,
				Confidence:        entry.Confidence,
				Provider:          entry.Provider,
				Query:             entry.Query,
				NormalizedAddress: entry.NormalizedAddress,
				FromCache:         true,
			}, nil
		default:
			// A cached failure is a hint, not a verdict: the providers may
			// have learned the address since, so the cascade runs again
			metrics.RecordCacheOp("geocode", "hit")
			log.Printf("[RESOLVER] Cached failure, retrying cascade: address=%s", rawAddress)
		}
	}

	var lastErr error

	// attempt runs one live query. done means the cascade is over and res
	// must be returned as is; a non-nil error aborts on ctx cancellation.
	attempt := func(query string, precision models.Precision) (res Resolution, done bool, err error) {
		result, err := r.provider.Geocode(ctx, query)
		if err == nil {
			point := result.Point
			r.store(ctx, &models.GeocodeCacheEntry{
				AddressHash:       hash,
				Address:           rawAddress,
				NormalizedAddress: normalized,
				Point:             &point,
				Provider:          result.Provider,
				Confidence:        result.Confidence,
				Status:            models.GeocodeOK,
				Precision:         precision,
				Query:             query,
				UpdatedAt:         time.Now().UTC(),
			})
			log.Printf("[RESOLVER] Resolved: address=%s query=%s precision=%s provider=%s", rawAddress, query, precision, result.Provider)
			return Resolution{
				Status:            models.GeocodeOK,
				Point:             &point,
				Precision:         precision,
				Confidence:        result.Confidence,
				Provider:          result.Provider,
				Query:             query,
				NormalizedAddress: result.NormalizedAddress,
			}, true, nil
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Resolution{}, true, ctxErr
		}

		var confErr *ErrConfiguration
		if errors.As(err, &confErr) {
			// Misconfiguration says nothing about the address: abort the
			// cascade without caching so a fixed config retries cleanly
			log.Printf("[RESOLVER] Provider misconfigured, aborting cascade: address=%s err=%v", rawAddress, err)
			return Resolution{
				Status:       models.GeocodeError,
				Precision:    models.PrecisionNone,
				Query:        query,
				ErrorMessage: err.Error(),
			}, true, nil
		}

		log.Printf("[RESOLVER] Attempt failed: address=%s query=%s err=%v", rawAddress, query, err)
		return Resolution{}, false, nil
	}

	// Tier 1: the full address as written
	if res, done, err := attempt(rawAddress, models.PrecisionFull); err != nil {
		return Resolution{}, err
	} else if done {
		return res, nil
	}

	parsed := address.Parse(rawAddress)
	if !parsed.HasLocality() {
		msg := fmt.Sprintf("no locality for fallback queries (last attempt: %v)", lastErr)
		r.storeFailure(ctx, rawAddress, hash, normalized, rawAddress)
		log.Printf("[RESOLVER] No fallback possible: address=%s issues=%v", rawAddress, parsed.Issues)
		return Resolution{
			Status:       models.GeocodeError,
			Precision:    models.PrecisionNone,
			Query:        rawAddress,
			ErrorMessage: msg,
		}, nil
	}

	type fallback struct {
		query     string
		precision models.Precision
	}
	var queries []fallback
	if q := parsed.CityQuery(); q != "" {
		queries = append(queries, fallback{q, models.PrecisionCity})
	}
	if q := parsed.TownHallQuery(); q != "" {
		queries = append(queries, fallback{q, models.PrecisionTownHall})
	}
	for _, q := range parsed.VariantQueries() {
		queries = append(queries, fallback{q, models.PrecisionCity})
	}

	for _, fb := range queries {
		if err := r.pause(ctx); err != nil {
			return Resolution{}, err
		}
		if res, done, err := attempt(fb.query, fb.precision); err != nil {
			return Resolution{}, err
		} else if done {
			return res, nil
		}
	}

	msg := fmt.Sprintf("all geocoding attempts failed (last: %v)", lastErr)
	r.storeFailure(ctx, rawAddress, hash, normalized, rawAddress)
	log.Printf("[RESOLVER] Cascade exhausted: address=%s attempts=%d", rawAddress, len(queries)+1)
	return Resolution{
		Status:       models.GeocodeError,
		Precision:    models.PrecisionNone,
		Query:        rawAddress,
		ErrorMessage: msg,
	}, nil
}

// ResolveAll resolves addresses one at a time, in order. It stops at the
// first context cancellation and returns the resolutions made so far along
// with the context error.
func (r *Resolver) ResolveAll(ctx context.Context, addresses []string) ([]Resolution, error) {
	resolutions := make([]Resolution, 0, len(addresses))
	for _, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return resolutions, err
		}
		res, err := r.Resolve(ctx, addr)
		if err != nil {
			return resolutions, err
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

func (r *Resolver) pause(ctx context.Context) error {
	if r.opts.AttemptDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(r.opts.AttemptDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Resolver) store(ctx context.Context, entry *models.GeocodeCacheEntry) {
	if err := r.cache.Put(ctx, entry); err != nil {
		metrics.RecordCacheOp("geocode", "error")
		log.Printf("[CACHE] Failed to store geocode entry: address=%s err=%v", entry.Address, err)
	}
}

func (r *Resolver) storeFailure(ctx context.Context, rawAddress, hash, normalized, query string) {
	r.store(ctx, &models.GeocodeCacheEntry{
		AddressHash:       hash,
		Address:           rawAddress,
		NormalizedAddress: normalized,
		Status:            models.GeocodeError,
		Precision:         models.PrecisionNone,
		Query:             query,
		UpdatedAt:         time.Now().UTC(),
	})
}
