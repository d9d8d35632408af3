// README: Fare breakdown for a single ride.
package pricing

// Breakdown itemises a fare. Total is always Start + Distance.
type Breakdown struct {
	DistanceKm float64 `json:"distance_km"`
	PerKm      float64 `json:"price_per_km"`
	Start      float64 `json:"start_price"`
	Distance   float64 `json:"distance_charge"`
	Total      float64 `json:"total"`
}
