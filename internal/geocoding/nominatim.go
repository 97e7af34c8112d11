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
	nominatimDefaultBaseURL = "https://nominatim.openstreetmap.org"

	// nominatimMinInterval honors the OSM usage policy of at most one
	// request per second, with a little slack
	nominatimMinInterval = 1100 * time.Millisecond
)

// NominatimProvider geocodes against an OSM Nominatim instance. Slower than
// BAN but international; it covers Luxembourg and anything BAN cannot place.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	gate       *throttle
}

type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// NewNominatimProvider creates a Nominatim provider. An empty baseURL selects
// the public OSM endpoint, which requires an identifying User-Agent.
func NewNominatimProvider(baseURL, userAgent string) *NominatimProvider {
	if baseURL == "" {
		baseURL = nominatimDefaultBaseURL
	}
	return &NominatimProvider{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		gate: newThrottle(nominatimMinInterval),
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

// Geocode queries the search endpoint for the single best match
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	// The OSM usage policy rejects anonymous clients
	if p.userAgent == "" {
		return nil, &ErrConfiguration{Provider: p.Name(), Reason: "User-Agent is required"}
	}

	if err := p.gate.wait(ctx); err != nil {
		return nil, err
	}

	queryURL := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", p.baseURL, url.QueryEscape(address))
	log.Printf("[NOMINATIM] Request: address=%s url=%s", address, queryURL)

	req, err := http.NewRequestWithContext(ctx, "GET", queryURL, nil)
	if err != nil {
		log.Printf("[ERROR] Failed to create Nominatim request: address=%s err=%v", address, err)
		return nil, &ErrConfiguration{Provider: p.Name(), Reason: fmt.Sprintf("bad base URL %q: %v", p.baseURL, err)}
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	metrics.RecordGeocodeLatency(p.Name(), time.Since(start).Seconds())
	if err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Nominatim request failed: address=%s err=%v", address, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Nominatim API error: address=%s status=%d body=%s", address, resp.StatusCode, string(body))
		return nil, &ErrProvider{
			Provider: p.Name(),
			Address:  address,
			Reason:   fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Failed to decode Nominatim response: address=%s err=%v", address, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: err.Error()}
	}

	if len(results) == 0 {
		metrics.RecordGeocodeRequest(p.Name(), "not_found")
		log.Printf("[NOMINATIM] No results: address=%s", address)
		return nil, &ErrNotFound{Provider: p.Name(), Address: address}
	}

	result := results[0]
	var lat, lng float64
	if _, err := fmt.Sscanf(result.Lat, "%f", &lat); err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Invalid latitude in Nominatim response: address=%s lat=%s err=%v", address, result.Lat, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: "invalid latitude"}
	}
	if _, err := fmt.Sscanf(result.Lon, "%f", &lng); err != nil {
		metrics.RecordGeocodeRequest(p.Name(), "error")
		log.Printf("[ERROR] Invalid longitude in Nominatim response: address=%s lng=%s err=%v", address, result.Lon, err)
		return nil, &ErrProvider{Provider: p.Name(), Address: address, Reason: "invalid longitude"}
	}

	confidence := nominatimConfidence(result.Class, result.Type)

	metrics.RecordGeocodeRequest(p.Name(), "ok")
	log.Printf("[NOMINATIM] Response: address=%s lat=%.6f lng=%.6f class=%s type=%s display_name=%s",
		address, lat, lng, result.Class, result.Type, result.DisplayName)

	return &Result{
		Point:             models.GeoPoint{Lat: lat, Lng: lng},
		Confidence:        confidence,
		Provider:          p.Name(),
		NormalizedAddress: result.DisplayName,
	}, nil
}

// nominatimConfidence maps the OSM class/type pair to a confidence tier
func nominatimConfidence(class, osmType string) models.Confidence {
	switch class {
	case "building":
		return models.ConfidenceHigh
	case "place":
		switch osmType {
		case "house", "residential":
			return models.ConfidenceHigh
		case "city", "town", "village", "municipality", "suburb", "hamlet":
			return models.ConfidenceLow
		}
	case "highway":
		return models.ConfidenceMedium
	case "boundary", "amenity":
		return models.ConfidenceLow
	}
	return models.ConfidenceUnknown
}
