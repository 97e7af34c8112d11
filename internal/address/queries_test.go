package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCityQuery(t *testing.T) {
	parsed := Parse("12 Rue de la Paix, 57000 Metz")
	assert.Equal(t, "57000 Metz", parsed.CityQuery())

	parsed = Parse("12 Rue Large, L-1430 Luxembourg")
	assert.Equal(t, "L-1430 Luxembourg, Luxembourg", parsed.CityQuery())

	parsed = Parse("12 Rue de la Paix 57000")
	assert.Equal(t, "57000", parsed.CityQuery())

	parsed = Parse("12 Rue Victor Hugo")
	assert.Equal(t, "", parsed.CityQuery())
}

func TestTownHallQuery(t *testing.T) {
	parsed := Parse("12 Rue de la Paix, 57000 Metz")
	assert.Equal(t, "mairie de Metz", parsed.TownHallQuery())

	parsed = Parse("4 Am Duerf, 5433 Niederdonven")
	assert.Equal(t, "commune de Niederdonven, Luxembourg", parsed.TownHallQuery())

	parsed = Parse("12 Rue de la Paix 57000")
	assert.Equal(t, "", parsed.TownHallQuery())
}

func TestVariantQueries(t *testing.T) {
	parsed := Parse("12 Rue de la Paix, 57000 Metz")
	variants := parsed.VariantQueries()
	assert.Equal(t, []string{
		"Rue de la Paix, 57000 Metz",
		"Rue de la Paix, Metz",
	}, variants)

	// No street means no simplified variants
	parsed = Parse("57000 Metz")
	assert.Empty(t, parsed.VariantQueries())

	// Variants never repeat the original query
	parsed = Parse("Rue de la Paix, Metz")
	variants = parsed.VariantQueries()
	assert.NotContains(t, variants, "Rue de la Paix, Metz")
}
