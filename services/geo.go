package services

import (
	"math"
	"sort"

	"fithub/models"
)

// EarthRadiusKm is the mean Earth radius used by HaversineDistance.
const EarthRadiusKm = 6371.0

// HaversineDistance returns the great-circle distance between two points in kilometers.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// VenueWithDistance pairs a venue with its distance from the search point.
// Distance is -1 when the venue has no coordinates.
type VenueWithDistance struct {
	models.Venue
	DistanceKm float64 `json:"distance_km"`
}

// SortVenuesByDistance orders venues nearest first; venues without
// coordinates keep their relative order at the end.
func SortVenuesByDistance(venues []models.Venue, lat, lng float64) []VenueWithDistance {
	out := make([]VenueWithDistance, len(venues))
	for i, v := range venues {
		d := -1.0
		if v.HasLocation() {
			d = HaversineDistance(lat, lng, *v.Lat, *v.Lng)
		}
		out[i] = VenueWithDistance{Venue: v, DistanceKm: d}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DistanceKm, out[j].DistanceKm
		if di < 0 || dj < 0 {
			return di >= 0 && dj < 0
		}
		return di < dj
	})
	return out
}
