// README: Common value types shared across modules.
package types

// ID identifies vehicles, reviews and riders.
type ID string

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
