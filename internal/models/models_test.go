package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeoPointValid(t *testing.T) {
	assert.True(t, GeoPoint{Lat: 48.8566, Lng: 2.3522}.Valid())
	assert.True(t, GeoPoint{Lat: -90, Lng: 180}.Valid())
	assert.False(t, GeoPoint{Lat: 91, Lng: 0}.Valid())
	assert.False(t, GeoPoint{Lat: 0, Lng: -181}.Valid())
}

func TestPrecisionRank(t *testing.T) {
	assert.Greater(t, PrecisionFull.Rank(), PrecisionCity.Rank())
	assert.Greater(t, PrecisionCity.Rank(), PrecisionTownHall.Rank())
	assert.Greater(t, PrecisionTownHall.Rank(), PrecisionNone.Rank())
	assert.Equal(t, 0, Precision("").Rank())
}

func TestInternshipHasPoint(t *testing.T) {
	i := &Internship{ID: 1, Address: "4 Rue du Fort, 57000 Metz"}
	assert.False(t, i.HasPoint())

	i.Point = &GeoPoint{Lat: 49.1193, Lng: 6.1757}
	assert.True(t, i.HasPoint())

	i.Point = &GeoPoint{Lat: 200, Lng: 0}
	assert.False(t, i.HasPoint())
}

func TestTeacherHasPoint(t *testing.T) {
	tr := &Teacher{ID: 1, Name: "Dupont", Capacity: 5}
	assert.False(t, tr.HasPoint())

	tr.Point = &GeoPoint{Lat: 49.6116, Lng: 6.1319}
	assert.True(t, tr.HasPoint())
}
