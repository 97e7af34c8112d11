package address

import (
	"fmt"
	"strings"

	"internship-router/internal/models"
)

// CityQuery builds the coarse "postal city" query used when the full address
// cannot be geocoded. Luxembourg queries carry the country name so the
// geocoder does not land in the French commune of the same name.
func (pa *ParsedAddress) CityQuery() string {
	var parts []string
	if pa.PostalCode != "" {
		parts = append(parts, pa.PostalCode)
	}
	if pa.City != "" {
		parts = append(parts, pa.City)
	}
	if len(parts) == 0 {
		return ""
	}
	q := strings.Join(parts, " ")
	if pa.Country == models.CountryLuxembourg {
		q += ", Luxembourg"
	}
	return q
}

// TownHallQuery builds the last-resort query targeting the municipality seat
func (pa *ParsedAddress) TownHallQuery() string {
	if pa.City == "" {
		return ""
	}
	if pa.Country == models.CountryLuxembourg {
		return fmt.Sprintf("commune de %s, Luxembourg", pa.City)
	}
	return fmt.Sprintf("mairie de %s", pa.City)
}

// VariantQueries lists progressively simplified full-address queries, most
// specific first: street without house number, then street with city only.
// The original full address is not included; callers try it before variants.
func (pa *ParsedAddress) VariantQueries() []string {
	var queries []string
	seen := map[string]bool{strings.Join(strings.Fields(pa.Raw), " "): true}

	add := func(q string) {
		if q == "" || seen[q] {
			return
		}
		seen[q] = true
		queries = append(queries, q)
	}

	if pa.Street != "" {
		locality := pa.CityQuery()
		if locality != "" {
			add(fmt.Sprintf("%s, %s", pa.Street, locality))
		}
		if pa.City != "" {
			add(fmt.Sprintf("%s, %s", pa.Street, pa.City))
		}
	}
	return queries
}
