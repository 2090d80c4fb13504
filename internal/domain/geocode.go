package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NearbyResult is the answer to a location search.
type NearbyResult struct {
	Query    string   `json:"query"`
	Place    Place    `json:"place"`
	RadiusKm float64  `json:"radius_km"`
	IDs      []string `json:"tanks"`
}

// SearchNearby geocodes query, takes the first match and returns the devices
// within radiusKm of it. A query without any match returns ErrNoMatch so
// callers can tell "nowhere" apart from "somewhere with no tanks nearby".
func SearchNearby(ctx context.Context, geocoder Geocoder, query string, devices Devices, radiusKm float64, logger *slog.Logger) (NearbyResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return NearbyResult{}, ErrEmptyQuery
	}

	places, err := geocoder.Search(ctx, query)
	if err != nil {
		logger.Warn("geocoding failed", "query", query, "error", err)
		return NearbyResult{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(places) == 0 {
		return NearbyResult{}, fmt.Errorf("%w: %q", ErrNoMatch, query)
	}

	place := places[0]
	ids := FilterWithinRadius(devices, Point{Lat: place.Lat, Lon: place.Lon}, radiusKm)
	logger.Debug("nearby search resolved",
		"query", query,
		"place", place.DisplayName,
		"radius_km", radiusKm,
		"matches", len(ids),
	)
	return NearbyResult{Query: query, Place: place, RadiusKm: radiusKm, IDs: ids}, nil
}
