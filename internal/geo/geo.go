package geo

import (
	"math"
)

// Point is a WGS84 coordinate. Lng is the x axis and Lat the y axis,
// matching the [lng, lat] order zone rings are stored in.
type Point struct {
	Lng float64
	Lat float64
}

// Valid reports whether both coordinates are finite and within the
// usual WGS84 bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Contains reports whether p falls inside the ring using the even-odd
// ray casting rule. The ring is treated as implicitly closed; the guard
// on the y comparison keeps horizontal edges out of the crossing count,
// so the division below cannot hit a zero denominator.
func Contains(p Point, ring []Point) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat

		if (yi > p.Lat) != (yj > p.Lat) && p.Lng < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}

	return inside
}

// Ring converts stored [lng, lat] coordinate pairs into points.
func Ring(coords [][2]float64) []Point {
	ring := make([]Point, 0, len(coords))
	for _, c := range coords {
		ring = append(ring, Point{Lng: c[0], Lat: c[1]})
	}
	return ring
}
