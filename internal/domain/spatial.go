package domain

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DefaultSearchRadiusKm is the nearby-search radius used by the dashboard.
const DefaultSearchRadiusKm = 4.0

// Point is a WGS-84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b Point) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(h, 1)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// FilterWithinRadius returns the ids of devices within radiusKm of center,
// sorted. Devices without both coordinates are skipped.
func FilterWithinRadius(devices Devices, center Point, radiusKm float64) []string {
	ids := []string{}
	for id, d := range devices {
		if !d.HasCoordinates() {
			continue
		}
		if HaversineKm(center, Point{Lat: *d.Latitude, Lon: *d.Longitude}) <= radiusKm {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
