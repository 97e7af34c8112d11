package address

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"internship-router/internal/models"
)

func TestParseCountryDetection(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		country models.Country
	}{
		{"five digit postal is France", "12 Rue de la Paix, 57000 Metz", models.CountryFrance},
		{"prefixed postal is Luxembourg", "12 Rue Large, L-1430 Luxembourg", models.CountryLuxembourg},
		{"bare four digit postal is Luxembourg", "4 Am Duerf, 5433 Niederdonven", models.CountryLuxembourg},
		{"trailing france segment", "12 Rue de la Paix, Metz, France", models.CountryFrance},
		{"trailing luxembourg segment overrides shape", "57000 Metz, Luxembourg", models.CountryLuxembourg},
		{"no postal no keyword", "12 Rue Victor Hugo", models.CountryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			assert.Equal(t, tt.country, parsed.Country)
		})
	}
}

func TestParsePatternCascade(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		street string
		number string
		postal string
		city   string
	}{
		{
			name:   "postal city suffix with comma",
			raw:    "12 Rue de la Paix, 57000 Metz",
			street: "Rue de la Paix", number: "12", postal: "57000", city: "Metz",
		},
		{
			name:   "postal city suffix without comma",
			raw:    "12 Rue de la Paix 57000 Metz",
			street: "Rue de la Paix", number: "12", postal: "57000", city: "Metz",
		},
		{
			name:   "city with postal in parentheses",
			raw:    "12 Rue de la Paix, Metz (57000)",
			street: "Rue de la Paix", number: "12", postal: "57000", city: "Metz",
		},
		{
			name:   "city then postal suffix",
			raw:    "12 Rue de la Paix, Metz 57000",
			street: "Rue de la Paix", number: "12", postal: "57000", city: "Metz",
		},
		{
			name:   "postal without city",
			raw:    "12 Rue de la Paix 57000",
			street: "Rue de la Paix", number: "12", postal: "57000", city: "",
		},
		{
			name:   "postal leading with trailing city",
			raw:    "57000 Metz",
			street: "", number: "", postal: "57000", city: "Metz",
		},
		{
			name:   "comma segments without postal",
			raw:    "12 Rue de la Paix, Metz",
			street: "Rue de la Paix", number: "12", postal: "", city: "Metz",
		},
		{
			name:   "street only",
			raw:    "12 Rue Victor Hugo",
			street: "Rue Victor Hugo", number: "12", postal: "", city: "",
		},
		{
			name:   "luxembourg prefixed postal",
			raw:    "12 Rue Large, L-1430 Luxembourg",
			street: "Rue Large", number: "12", postal: "L-1430", city: "Luxembourg",
		},
		{
			name:   "luxembourg spaced prefix normalized",
			raw:    "2 Montée de Clausen, l 1343 Luxembourg",
			street: "Montée de Clausen", number: "2", postal: "L-1343", city: "Luxembourg",
		},
		{
			name:   "luxembourg bare postal stays bare",
			raw:    "4 Am Duerf, 5433 Niederdonven",
			street: "Am Duerf", number: "4", postal: "5433", city: "Niederdonven",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			assert.Equal(t, tt.street, parsed.Street)
			assert.Equal(t, tt.number, parsed.HouseNumber)
			assert.Equal(t, tt.postal, parsed.PostalCode)
			assert.Equal(t, tt.city, parsed.City)
		})
	}
}

func TestParseHouseNumberSuffixes(t *testing.T) {
	parsed := Parse("12 bis Rue du Maréchal Foch, 57000 Metz")
	assert.Equal(t, "12 bis", parsed.HouseNumber)
	assert.Equal(t, "Rue du Maréchal Foch", parsed.Street)

	parsed = Parse("3ter Avenue de Nancy, 57000 Metz")
	assert.Equal(t, "3 ter", parsed.HouseNumber)
	assert.Equal(t, "Avenue de Nancy", parsed.Street)
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		quality models.AddressQuality
		issues  []string
	}{
		{"all parts recovered", "12 Rue de la Paix, 57000 Metz", models.QualityComplete, nil},
		{"postal and city without street", "57000 Metz", models.QualityPartial, []string{"no street", "no house number"}},
		{"street and city without postal", "Place Saint-Jacques, Metz", models.QualityPartial, []string{"no house number", "no postal code"}},
		{"street without locality", "12 Rue Victor Hugo", models.QualityMinimal, []string{"no postal code", "no city"}},
		{"single segment without postal", "Thionville", models.QualityMinimal, nil},
		{"empty input", "", models.QualityInvalid, []string{"empty address"}},
		{"whitespace only", "   ", models.QualityInvalid, []string{"empty address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := Parse(tt.raw)
			assert.Equal(t, tt.quality, parsed.Quality)
			if len(tt.issues) == 0 && tt.quality == models.QualityComplete {
				assert.Empty(t, parsed.Issues)
			}
			for _, issue := range tt.issues {
				assert.Contains(t, parsed.Issues, issue)
			}
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	// Garbage in, structured value out: parsing never fails outright
	inputs := []string{"", "???", ",,,,", "12", "(((57000", "L-"}
	for _, raw := range inputs {
		parsed := Parse(raw)
		assert.NotEmpty(t, parsed.Quality)
	}
}

func TestCleanCity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"METZ", "Metz"},
		{"metz cedex", "Metz"},
		{"METZ CEDEX 01", "Metz"},
		{"vandoeuvre-lès-nancy", "Vandoeuvre-lès-Nancy"},
		{"la maxe", "La Maxe"},
		{"pont-à-mousson", "Pont-à-Mousson"},
		{"le val d'ajol", "Le Val d'Ajol"},
		{"ÉPINAL", "Épinal"},
		{"  thionville  ", "Thionville"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCity(tt.raw), "input %q", tt.raw)
	}
}
