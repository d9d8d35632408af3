// README: Vehicle position snapshot for persistence and replay.
package location

import (
	"time"

	"ridecore/internal/types"
)

type Snapshot struct {
	ID         int64       `json:"id"`
	VehicleID  types.ID    `json:"vehicle_id"`
	Position   types.Point `json:"position"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Nearby is a vehicle found by a radius search over last known positions.
type Nearby struct {
	VehicleID  types.ID    `json:"vehicle_id"`
	Position   types.Point `json:"position"`
	DistanceKm float64     `json:"distance_km"`
}
