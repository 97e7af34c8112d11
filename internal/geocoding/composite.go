package geocoding

import (
	"context"
	"errors"
	"log"

	"internship-router/internal/address"
	"internship-router/internal/models"
)

// CompositeProvider routes queries to the backend that knows the country:
// BAN for France, Nominatim for Luxembourg. When the country cannot be
// detected it asks BAN first and falls back to Nominatim only when BAN had
// no match at all.
type CompositeProvider struct {
	france        Provider
	international Provider
}

// NewCompositeProvider wires the country router. france is typically a
// BANProvider, international a NominatimProvider.
func NewCompositeProvider(france, international Provider) *CompositeProvider {
	return &CompositeProvider{france: france, international: international}
}

func (p *CompositeProvider) Name() string { return "composite" }

// Geocode dispatches the query by detected country
func (p *CompositeProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	parsed := address.Parse(query)

	switch parsed.Country {
	case models.CountryFrance:
		return p.france.Geocode(ctx, query)
	case models.CountryLuxembourg:
		return p.international.Geocode(ctx, query)
	}

	result, err := p.france.Geocode(ctx, query)
	if err == nil {
		return result, nil
	}

	var notFound *ErrNotFound
	if errors.As(err, &notFound) {
		log.Printf("[GEOCODING] %s empty for unknown-country query, trying %s: query=%s",
			p.france.Name(), p.international.Name(), query)
		return p.international.Geocode(ctx, query)
	}
	return nil, err
}
