package testutil

import (
	"context"
	"fmt"
	"math"

	"internship-router/internal/distance"
	"internship-router/internal/geo"
	"internship-router/internal/models"
)

// RouteCall tracks one call to the route calculator
type RouteCall struct {
	From models.GeoPoint
	To   models.GeoPoint
}

// MockRouteCalculator is a deterministic distance.Calculator for tests.
// Pairs hit Overrides first, then Errors; anything unscripted gets scaled
// Euclidean metrics at an assumed 50 km/h.
type MockRouteCalculator struct {
	ScaleFactor float64
	Overrides   map[string]*distance.RouteMetrics
	Errors      map[string]error
	Calls       []RouteCall
}

func NewMockRouteCalculator() *MockRouteCalculator {
	return &MockRouteCalculator{
		ScaleFactor: 111000, // 1 degree ≈ 111km in meters
		Overrides:   make(map[string]*distance.RouteMetrics),
		Errors:      make(map[string]error),
	}
}

func (m *MockRouteCalculator) makeKey(from, to models.GeoPoint) string {
	return fmt.Sprintf("%.5f,%.5f->%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}

// SetRoute sets custom metrics for a specific origin-destination pair
func (m *MockRouteCalculator) SetRoute(from, to models.GeoPoint, distMeters, durSecs float64) {
	m.Overrides[m.makeKey(from, to)] = &distance.RouteMetrics{
		DistanceMeters: distMeters,
		DurationSecs:   durSecs,
		Provider:       "mock",
	}
}

// SetError makes a specific origin-destination pair fail
func (m *MockRouteCalculator) SetError(from, to models.GeoPoint, err error) {
	m.Errors[m.makeKey(from, to)] = err
}

func (m *MockRouteCalculator) RouteMetrics(ctx context.Context, from, to models.GeoPoint) (*distance.RouteMetrics, error) {
	m.Calls = append(m.Calls, RouteCall{From: from, To: to})

	key := m.makeKey(from, to)
	if err, ok := m.Errors[key]; ok {
		return nil, err
	}
	if override, ok := m.Overrides[key]; ok {
		result := *override
		return &result, nil
	}

	if geo.SamePoint(from, to) {
		return &distance.RouteMetrics{Provider: "mock"}, nil
	}

	dLat := to.Lat - from.Lat
	dLng := to.Lng - from.Lng
	meters := math.Sqrt(dLat*dLat+dLng*dLng) * m.ScaleFactor
	return &distance.RouteMetrics{
		DistanceMeters: meters,
		DurationSecs:   meters / 50000 * 3600,
		Provider:       "mock",
	}, nil
}

// ResetCalls clears the recorded calls
func (m *MockRouteCalculator) ResetCalls() {
	m.Calls = nil
}
