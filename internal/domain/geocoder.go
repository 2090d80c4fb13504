package domain

import "context"

// Place is one geocoding match.
type Place struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Geocoder resolves free-text locations.
type Geocoder interface {
	// Search returns the matches for query, best first. An empty slice with a
	// nil error means the provider found nothing.
	Search(ctx context.Context, query string) ([]Place, error)
}
