package geo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"internship-router/internal/models"
)

const (
	// earthRadiusMeters is the mean earth radius used for haversine
	earthRadiusMeters = 6371000.0

	// metersPerDegreeLat is the approximate north-south span of one degree
	metersPerDegreeLat = 111320.0

	// roadDistortionFactor inflates crow-flight distance to a road estimate
	roadDistortionFactor = 1.3

	// assumedSpeedKMH is the average road speed used for duration estimates
	assumedSpeedKMH = 50.0
)

// HaversineMeters returns the great-circle distance between two points in meters
func HaversineMeters(a, b models.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDegrees returns the bearing in degrees from one point to another
// 0° = North, 90° = East, 180° = South, 270° = West
func BearingDegrees(from, to models.GeoPoint) float64 {
	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	// Normalize to 0-360
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// BearingDiff returns the smallest angle between two bearings (0-180)
func BearingDiff(b1, b2 float64) float64 {
	diff := math.Abs(b1 - b2)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

// Bounds is a latitude/longitude bounding box
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point falls inside the box
func (b Bounds) Contains(p models.GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundingBox returns a box around center whose half-width is radiusMeters.
// The longitude delta is corrected for latitude so the box stays roughly
// square on the ground instead of narrowing toward the equator.
func BoundingBox(center models.GeoPoint, radiusMeters float64) Bounds {
	latDelta := radiusMeters / metersPerDegreeLat

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	var lngDelta float64
	if cosLat < 1e-6 {
		// Degenerate near the poles: cover all longitudes
		lngDelta = 180
	} else {
		lngDelta = radiusMeters / (metersPerDegreeLat * cosLat)
	}

	return Bounds{
		MinLat: center.Lat - latDelta,
		MaxLat: center.Lat + latDelta,
		MinLng: center.Lng - lngDelta,
		MaxLng: center.Lng + lngDelta,
	}
}

// RoundCoord rounds a coordinate to 5 decimal places (~1m precision)
func RoundCoord(v float64) float64 {
	return math.Round(v*100000) / 100000
}

// NormalizeAddress lowercases an address and collapses runs of whitespace
// so equivalent spellings share one cache entry
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// AddressHash returns the cache key for an address
func AddressHash(address string) string {
	sum := sha256.Sum256([]byte(NormalizeAddress(address)))
	return hex.EncodeToString(sum[:])
}

// RouteKey returns the cache key for a provider and coordinate pair.
// Coordinates are rounded to 5 decimals so near-identical points share a key.
func RouteKey(provider string, origin, dest models.GeoPoint) string {
	pair := fmt.Sprintf("%s|%.5f,%.5f->%.5f,%.5f", provider,
		RoundCoord(origin.Lat), RoundCoord(origin.Lng),
		RoundCoord(dest.Lat), RoundCoord(dest.Lng))
	sum := sha256.Sum256([]byte(pair))
	return hex.EncodeToString(sum[:])
}

// SamePoint reports whether two points are equal after cache-key rounding
func SamePoint(a, b models.GeoPoint) bool {
	return RoundCoord(a.Lat) == RoundCoord(b.Lat) && RoundCoord(a.Lng) == RoundCoord(b.Lng)
}

// EstimateRoadMeters converts a crow-flight distance to a road distance estimate
func EstimateRoadMeters(crowMeters float64) float64 {
	return crowMeters * roadDistortionFactor
}

// EstimateDurationSecs estimates travel time for a road distance at average speed
func EstimateDurationSecs(roadMeters float64) float64 {
	return roadMeters / (assumedSpeedKMH * 1000) * 3600
}
