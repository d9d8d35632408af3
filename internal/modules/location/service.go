// README: Location service records vehicle positions and answers radius queries.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridecore/internal/types"
)

const defaultHistoryLimit = 50

var ErrBadRequest = errors.New("bad request")

type Storage interface {
	SetGeo(ctx context.Context, id types.ID, pos types.Point) error
	SearchGeo(ctx context.Context, pos types.Point, radiusKm float64) ([]Nearby, error)
	AppendSnapshot(ctx context.Context, snap Snapshot) error
	ListSnapshots(ctx context.Context, vehicleID types.ID, limit int) ([]Snapshot, error)
}

type Service struct {
	store Storage
	now   func() time.Time
}

func NewService(store Storage) *Service {
	return &Service{store: store, now: time.Now}
}

// Track stores pos as the vehicle's last known position and appends it to
// the position history. Both writes are attempted; the first error wins.
func (s *Service) Track(ctx context.Context, vehicleID types.ID, pos types.Point) error {
	if vehicleID == "" {
		return ErrBadRequest
	}
	if err := Validate(pos); err != nil {
		return err
	}
	geoErr := s.store.SetGeo(ctx, vehicleID, pos)
	snapErr := s.store.AppendSnapshot(ctx, Snapshot{
		VehicleID:  vehicleID,
		Position:   pos,
		RecordedAt: s.now().UTC(),
	})
	if geoErr != nil {
		return fmt.Errorf("set geo: %w", geoErr)
	}
	if snapErr != nil {
		return fmt.Errorf("append snapshot: %w", snapErr)
	}
	return nil
}

func (s *Service) Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]Nearby, error) {
	if err := Validate(pos); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		return nil, ErrBadRequest
	}
	return s.store.SearchGeo(ctx, pos, radiusKm)
}

func (s *Service) History(ctx context.Context, vehicleID types.ID, limit int) ([]Snapshot, error) {
	if vehicleID == "" {
		return nil, ErrBadRequest
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.ListSnapshots(ctx, vehicleID, limit)
}
