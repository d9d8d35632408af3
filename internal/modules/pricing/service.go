// README: Pricing computes ride fares from a vehicle's tariff.
package pricing

import "math"

// Quote is the fare for distanceKm at the given tariff:
// distanceKm*perKm + start. Negative or NaN distances count as zero.
func Quote(distanceKm, perKm, start float64) float64 {
	return Itemise(distanceKm, perKm, start).Total
}

// Itemise is Quote with the individual charges kept.
func Itemise(distanceKm, perKm, start float64) Breakdown {
	if math.IsNaN(distanceKm) || distanceKm < 0 {
		distanceKm = 0
	}
	charge := distanceKm * perKm
	return Breakdown{
		DistanceKm: distanceKm,
		PerKm:      perKm,
		Start:      start,
		Distance:   charge,
		Total:      charge + start,
	}
}
