package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"internship-router/internal/metrics"
	"internship-router/internal/models"
)

const (
	banDefaultBaseURL = "https://api-adresse.data.gouv.fr"

	// banMinInterval respects the public API's 50 req/s/IP limit with
	// plenty of margin
	banMinInterval = 150 * time.Millisecond
)

// BANProvider geocodes French addresses against the Base Adresse Nationale.
// It is France-only: addresses outside France come back empty.
type BANProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	gate       *throttle
}

// banResponse is the GeoJSON FeatureCollection shape the search endpoint
// returns. Coordinates are [lon, lat].
type banResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string  `json:"label"`
			Type  string  `json:"type"`
			Score float64 `json:"score"`
		} `json:"properties"`
	} `json:"features"`
}

// NewBANProvider creates a BAN provider. An empty baseURL selects the public
// endpoint.
func NewBANProvider(baseURL, userAgent string) *BANProvider {
	if baseURL == "" {
		baseURL = banDefaultBaseURL
	}
	return &BANProvider{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		gate: newThrottle(banMinInterval),
	}
}

func (p *BANProvider) Name() string { return "ban" }

// Geocode queries the search endpoint for the single best match
func (p *BANProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if err := p.gate.wait(ctx); err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf("%s/search/?q=%s&limit=1", p.baseURL, url.QueryEscape(address))
	log.Printf("[BAN] Request: address=%s url=%s", address, queryURL)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create BAN request: address=%s err=%v", address, err)
		return nil, &ErrConfiguration{Provider: p.Name(), Reason: fmt.Sprintf("bad base URL %q: %v", p.baseURL, err)}
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	metrics.RecordGeocodeLatency(p.Name(), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] BAN request failed: address=%s err=%v", address, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] BAN API error: address=%s status=%d body=%s", address, resp.StatusCode, string(body))
		return nil, &ErrProvider{
			Provider: p.Name(),
			Address:  address,
			Reason:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var decoded banResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Failed to decode BAN response: address=%s err=%v", address, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: err.Error()}
	}

	if len(decoded.Features) == 0 {
		metrics.RecordGeocodeRequest(p.Name(), "not_found")
		log.Printf("[BAN] No results: address=%s", address)
		return nil, &ErrNotFound{Provider: p.Name(), Address: address}
	}

	feature := decoded.Features[0]
	if len(feature.Geometry.Coordinates) < 2 {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] BAN feature without coordinates: address=%s", address)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: "feature without coordinates"}
	}

	point := models.GeoPoint{
		Lat: feature.Geometry.Coordinates[1],
		Lng: feature.Geometry.Coordinates[0],
	}
	confidence := banConfidence(feature.Properties.Type)

	metrics.RecordGeocodeRequest(p.Name(), "ok")
	log.Printf("[BAN] Response: address=%s lat=%.6f lng=%.6f type=%s score=%.2f label=%s",
		address, point.Lat, point.Lng, feature.Properties.Type, feature.Properties.Score, feature.Properties.Label)

	return &Result{
		Point:             point,
		Confidence:        confidence,
		Provider:          p.Name(),
		NormalizedAddress: feature.Properties.Label,
	}, nil
}

// banConfidence maps the BAN feature type to a confidence tier
func banConfidence(featureType string) models.Confidence {
	switch featureType {
	case "housenumber":
		return models.ConfidenceHigh
	case "street":
		return models.ConfidenceMedium
	case "locality", "municipality":
		return models.ConfidenceLow
	default:
		return models.ConfidenceUnknown
	}
}
