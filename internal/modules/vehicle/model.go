// README: Vehicle record, storage patch, and sentinel errors.
package vehicle

import (
	"errors"
	"math"

	"ridecore/internal/types"
)

var (
	ErrNotFound      = errors.New("vehicle not found")
	ErrAlreadyBooked = errors.New("vehicle already booked")
	ErrNotBooked     = errors.New("vehicle not booked")
	ErrConflict      = errors.New("vehicle state conflict")
)

// Vehicle is one fleet record. Field tags mirror the vehicles table columns.
type Vehicle struct {
	ID             types.ID    `json:"id"`
	Brand          string      `json:"brand"`
	OwnerFirstName string      `json:"owner_first_name"`
	OwnerLastName  string      `json:"owner_last_name"`
	Position       types.Point `json:"position"`
	PricePerKm     float64     `json:"price_per_km"`
	StartPrice     float64     `json:"start_price"`
	Booked         bool        `json:"booked"`
}

// Patch is a partial update. Nil fields are left untouched. When IfBooked is
// set the update only applies if the stored booked flag equals *IfBooked.
type Patch struct {
	Position *types.Point
	Booked   *bool
	IfBooked *bool
}

// Apply returns v with the patch's fields written over it.
func (p Patch) Apply(v Vehicle) Vehicle {
	if p.Position != nil {
		v.Position = *p.Position
	}
	if p.Booked != nil {
		v.Booked = *p.Booked
	}
	return v
}

// Matches reports whether v satisfies the patch guard.
func (p Patch) Matches(v Vehicle) bool {
	return p.IfBooked == nil || v.Booked == *p.IfBooked
}

// identical compares float fields bit for bit, so a record holding NaN
// still matches itself.
func identical(a, b Vehicle) bool {
	return a.ID == b.ID &&
		a.Brand == b.Brand &&
		a.OwnerFirstName == b.OwnerFirstName &&
		a.OwnerLastName == b.OwnerLastName &&
		sameFloat(a.Position.Lat, b.Position.Lat) &&
		sameFloat(a.Position.Lng, b.Position.Lng) &&
		sameFloat(a.PricePerKm, b.PricePerKm) &&
		sameFloat(a.StartPrice, b.StartPrice) &&
		a.Booked == b.Booked
}

func sameFloat(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}

func boolPtr(b bool) *bool { return &b }
