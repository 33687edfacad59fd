package location

import (
	"math"
)

const earthRadiusKm = 6371.0 // Earth's mean radius in kilometers

// Coordinates is a point in decimal degrees. A nil *Coordinates means the
// position is unknown.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Known reports whether c can take part in a distance calculation.
// A zero latitude or longitude counts as missing, so (0,0) is never used.
func (c *Coordinates) Known() bool {
	return c != nil && c.Latitude != 0 && c.Longitude != 0
}

// HaversineKm calculates the great-circle distance between two points in kilometers
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert to radians
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLon := toRadians(lon2 - lon1)

	// Haversine formula
	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Distance returns the distance between a and b in kilometers rounded to
// two decimals. ok is false when either side is not Known.
func Distance(a, b *Coordinates) (km float64, ok bool) {
	if !a.Known() || !b.Known() {
		return 0, false
	}
	d := HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	return roundTo2(d), true
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
