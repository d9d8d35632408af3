// README: Ride lifecycle events and the publishers that carry them.
package events

import (
	"context"
	"time"

	"ridecore/internal/types"
)

type Type string

const (
	RideBooked   Type = "ride.booked"
	RideFinished Type = "ride.finished"
)

// Event is published once per state change. Price, Position and ReviewID are
// set for RideFinished only.
type Event struct {
	Type       Type         `json:"type"`
	VehicleID  types.ID     `json:"vehicle_id"`
	Email      string       `json:"email"`
	Price      float64      `json:"price,omitempty"`
	Position   *types.Point `json:"position,omitempty"`
	ReviewID   types.ID     `json:"review_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
