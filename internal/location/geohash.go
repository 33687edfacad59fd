package location

import "github.com/mmcloughlin/geohash"

// Cell returns the geohash of c at the given precision (1-12 characters).
func Cell(c Coordinates, precision uint) string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, precision)
}
