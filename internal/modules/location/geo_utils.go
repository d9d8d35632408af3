// README: Pure geographic helpers for distance, validation and ordering.
package location

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"ridecore/internal/types"
)

const earthRadiusKm = 6371.0

var ErrInvalidPosition = errors.New("invalid position")

// Distance returns the great-circle distance in kilometres between a and b.
// Coordinates are normalised first, so malformed input still yields a finite
// result and Distance(a, b) == Distance(b, a).
func Distance(a, b types.Point) float64 {
	a, b = normalize(a), normalize(b)
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Validate rejects coordinates that Distance would have to repair.
func Validate(p types.Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return ErrInvalidPosition
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidPosition
	}
	return nil
}

func normalize(p types.Point) types.Point {
	if math.IsNaN(p.Lat) {
		p.Lat = 0
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		p.Lng = 0
	}
	p.Lat = math.Max(-90, math.Min(90, p.Lat))
	if p.Lng < -180 || p.Lng >= 180 {
		p.Lng = math.Mod(math.Mod(p.Lng+180, 360)+360, 360) - 180
	}
	return p
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	a = math.Min(1, a)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// SortByDistance sorts items ascending by the accessor's distance. Equal
// distances keep their input order.
func SortByDistance[T any](items []T, dist func(T) float64) {
	slices.SortStableFunc(items, func(a, b T) int {
		return cmp.Compare(dist(a), dist(b))
	})
}
