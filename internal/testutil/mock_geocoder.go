package testutil

import (
	"context"

	"internship-router/internal/geocoding"
	"internship-router/internal/models"
)

// MockGeocoder is a scripted geocoding provider for tests. Queries hit
// Overrides first, then Errors; anything unscripted reports not found.
type MockGeocoder struct {
	Overrides map[string]*geocoding.Result
	Errors    map[string]error
	Calls     []string
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		Overrides: make(map[string]*geocoding.Result),
		Errors:    make(map[string]error),
	}
}

func (m *MockGeocoder) Name() string {
	return "mock"
}

// SetPoint makes an exact query string resolve to the given coordinates
func (m *MockGeocoder) SetPoint(query string, lat, lng float64) {
	m.Overrides[query] = &geocoding.Result{
		Point:             models.GeoPoint{Lat: lat, Lng: lng},
		Confidence:        models.ConfidenceHigh,
		Provider:          "mock",
		NormalizedAddress: query,
	}
}

// SetError makes an exact query string fail with the given error
func (m *MockGeocoder) SetError(query string, err error) {
	m.Errors[query] = err
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocoding.Result, error) {
	m.Calls = append(m.Calls, address)

	if err, ok := m.Errors[address]; ok {
		return nil, err
	}
	if override, ok := m.Overrides[address]; ok {
		result := *override
		return &result, nil
	}
	return nil, &geocoding.ErrNotFound{Provider: "mock", Address: address}
}

// ResetCalls clears the recorded queries
func (m *MockGeocoder) ResetCalls() {
	m.Calls = nil
}
