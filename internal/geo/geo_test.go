package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"internship-router/internal/models"
)

var (
	metz  = models.GeoPoint{Lat: 49.1193, Lng: 6.1757}
	nancy = models.GeoPoint{Lat: 48.6921, Lng: 6.1844}
	lux   = models.GeoPoint{Lat: 49.6116, Lng: 6.1319}
)

func TestHaversineZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, HaversineMeters(metz, metz))
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := HaversineMeters(metz, nancy)
	d2 := HaversineMeters(nancy, metz)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Metz to Nancy is roughly 47-48km as the crow flies
	d := HaversineMeters(metz, nancy)
	assert.InDelta(t, 47500, d, 1500)
}

func TestBearingCardinalDirections(t *testing.T) {
	origin := models.GeoPoint{Lat: 49.0, Lng: 6.0}

	north := BearingDegrees(origin, models.GeoPoint{Lat: 50.0, Lng: 6.0})
	assert.InDelta(t, 0, north, 0.5)

	east := BearingDegrees(origin, models.GeoPoint{Lat: 49.0, Lng: 7.0})
	assert.InDelta(t, 90, east, 1.0)

	south := BearingDegrees(origin, models.GeoPoint{Lat: 48.0, Lng: 6.0})
	assert.InDelta(t, 180, south, 0.5)

	west := BearingDegrees(origin, models.GeoPoint{Lat: 49.0, Lng: 5.0})
	assert.InDelta(t, 270, west, 1.0)
}

func TestBearingDiffWrapsAround(t *testing.T) {
	assert.InDelta(t, 20, BearingDiff(350, 10), 1e-9)
	assert.InDelta(t, 180, BearingDiff(0, 180), 1e-9)
	assert.InDelta(t, 0, BearingDiff(45, 45), 1e-9)
	assert.InDelta(t, 90, BearingDiff(315, 45), 1e-9)
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox(metz, 50000)

	assert.True(t, box.Contains(metz))
	assert.True(t, box.Contains(nancy))

	paris := models.GeoPoint{Lat: 48.8566, Lng: 2.3522}
	assert.False(t, box.Contains(paris))
}

func TestBoundingBoxLongitudeWidensWithLatitude(t *testing.T) {
	equator := BoundingBox(models.GeoPoint{Lat: 0, Lng: 0}, 10000)
	northern := BoundingBox(models.GeoPoint{Lat: 60, Lng: 0}, 10000)

	equatorWidth := equator.MaxLng - equator.MinLng
	northernWidth := northern.MaxLng - northern.MinLng

	// At 60°N a degree of longitude is half as wide, so the box needs
	// twice the longitude span to cover the same ground distance
	assert.InDelta(t, equatorWidth*2, northernWidth, equatorWidth*0.05)
}

func TestRoundCoord(t *testing.T) {
	assert.Equal(t, 49.11931, RoundCoord(49.119308))
	assert.Equal(t, 49.11931, RoundCoord(49.1193149))
	assert.Equal(t, -6.17570, RoundCoord(-6.1757004))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "12 rue de la paix, 75002 paris",
		NormalizeAddress("  12 Rue  de la Paix,   75002  PARIS "))
	assert.Equal(t, "", NormalizeAddress("   "))
}

func TestAddressHashStableAcrossSpellings(t *testing.T) {
	h1 := AddressHash("12 Rue de la Paix, 75002 Paris")
	h2 := AddressHash("12  rue de la paix,  75002   PARIS")
	h3 := AddressHash("13 Rue de la Paix, 75002 Paris")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestRouteKeyRoundsCoordinates(t *testing.T) {
	a := models.GeoPoint{Lat: 49.1193001, Lng: 6.1757002}
	b := models.GeoPoint{Lat: 49.11930, Lng: 6.17570}

	assert.Equal(t, RouteKey("osrm", a, lux), RouteKey("osrm", b, lux))
	assert.NotEqual(t, RouteKey("osrm", a, lux), RouteKey("osrm", lux, a))
	assert.NotEqual(t, RouteKey("osrm", a, lux), RouteKey("haversine", a, lux))
}

func TestSamePoint(t *testing.T) {
	assert.True(t, SamePoint(models.GeoPoint{Lat: 49.119300004, Lng: 6.1757}, models.GeoPoint{Lat: 49.1193, Lng: 6.1757}))
	assert.False(t, SamePoint(metz, nancy))
}

func TestRoadEstimate(t *testing.T) {
	assert.InDelta(t, 13000, EstimateRoadMeters(10000), 1e-9)
	// 50km of road at 50km/h is one hour
	assert.InDelta(t, 3600, EstimateDurationSecs(50000), 1e-9)
}
