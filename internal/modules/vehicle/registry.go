// README: Vehicle registry mediates between the fleet cache and persistent storage.
package vehicle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ridecore/internal/observability"
	"ridecore/internal/types"
)

// Storage is the persistent vehicle store consumed by the registry.
type Storage interface {
	FindAll(ctx context.Context) ([]Vehicle, error)
	FindOne(ctx context.Context, id types.ID) (Vehicle, bool, error)
	Update(ctx context.Context, id types.ID, p Patch) error
}

// Registry serves the fleet from the cache once it has been loaded and
// writes every mutation through to storage, cache first.
//
// Booked-flag changes are compare-and-swap in both the cache and storage, so
// two concurrent bookings of the same vehicle cannot both succeed. When the
// storage write fails the cache entry is rolled back, provided nothing else
// has replaced it in the meantime.
type Registry struct {
	cache *Cache
	store Storage
	log   *zap.Logger

	loads singleflight.Group
	// writes hold mu for reading; Reload holds it exclusively.
	mu sync.RWMutex
}

func NewRegistry(cache *Cache, store Storage, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{cache: cache, store: store, log: log}
}

// GetAllVehicles returns the whole fleet, loading it from storage on first use.
func (r *Registry) GetAllVehicles(ctx context.Context) ([]Vehicle, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return r.cache.GetAll(), nil
}

// GetVehicle is cache-first once the fleet is loaded. Before that it reads
// storage directly without triggering a full load.
func (r *Registry) GetVehicle(ctx context.Context, id types.ID) (Vehicle, bool, error) {
	if !r.cache.IsEmpty() {
		v, ok := r.cache.Get(id)
		return v, ok, nil
	}
	v, ok, err := r.store.FindOne(ctx, id)
	if err != nil {
		return Vehicle{}, false, fmt.Errorf("find vehicle %s: %w", id, err)
	}
	return v, ok, nil
}

// Book marks the vehicle booked. It fails with ErrAlreadyBooked if it is.
func (r *Registry) Book(ctx context.Context, id types.ID) (Vehicle, error) {
	return r.writeThrough(ctx, "book", id, Patch{
		Booked:   boolPtr(true),
		IfBooked: boolPtr(false),
	})
}

// FinishRide moves the vehicle to pos and clears its booked flag. It fails
// with ErrNotBooked if the vehicle has no active ride.
func (r *Registry) FinishRide(ctx context.Context, id types.ID, pos types.Point) (Vehicle, error) {
	return r.writeThrough(ctx, "finish_ride", id, Patch{
		Position: &pos,
		Booked:   boolPtr(false),
		IfBooked: boolPtr(true),
	})
}

// Reload replaces the cached fleet with a fresh read from storage. It waits
// for in-flight write-throughs and blocks new ones until it is done.
func (r *Registry) Reload(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	vehicles, err := r.store.FindAll(ctx)
	if err != nil {
		observability.FleetLoads.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("reload fleet: %w", err)
	}
	r.cache.AddAll(vehicles)
	observability.FleetLoads.WithLabelValues("reload").Inc()
	observability.FleetSize.Set(float64(len(vehicles)))
	r.log.Info("fleet cache reloaded", zap.Int("vehicles", len(vehicles)))
	return len(vehicles), nil
}

func (r *Registry) ensureLoaded(ctx context.Context) error {
	if !r.cache.IsEmpty() {
		return nil
	}
	// The load is shared by every caller waiting on it, so it must not be
	// cut short by the first caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	_, err, _ := r.loads.Do("fleet", func() (any, error) {
		if !r.cache.IsEmpty() {
			return nil, nil
		}
		vehicles, err := r.store.FindAll(loadCtx)
		if err != nil {
			observability.FleetLoads.WithLabelValues("error").Inc()
			return nil, err
		}
		r.cache.AddAll(vehicles)
		observability.FleetLoads.WithLabelValues("initial").Inc()
		observability.FleetSize.Set(float64(len(vehicles)))
		r.log.Info("fleet cache loaded", zap.Int("vehicles", len(vehicles)))
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("load fleet: %w", err)
	}
	return nil
}

func (r *Registry) writeThrough(ctx context.Context, op string, id types.ID, p Patch) (Vehicle, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return Vehicle{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	prev, ok := r.cache.Get(id)
	if !ok {
		return Vehicle{}, ErrNotFound
	}
	if !p.Matches(prev) {
		return Vehicle{}, guardError(p)
	}
	next := p.Apply(prev)
	if !r.cache.CompareAndSwap(prev, next) {
		// Lost the race against another write on the same vehicle.
		return Vehicle{}, guardError(p)
	}

	err := r.store.Update(ctx, id, p)
	if err == nil {
		return next, nil
	}

	observability.WriteThroughFailures.WithLabelValues(op).Inc()
	if errors.Is(err, ErrConflict) {
		// Storage disagrees with the cache, e.g. another process wrote it.
		// Adopt the stored record so the cache converges.
		r.refresh(ctx, id, next)
		return Vehicle{}, guardError(p)
	}
	rolledBack := r.cache.CompareAndSwap(next, prev)
	r.log.Warn("vehicle write-through failed",
		zap.String("op", op),
		zap.String("vehicle_id", string(id)),
		zap.Bool("rolled_back", rolledBack),
		zap.Error(err),
	)
	if rolledBack {
		observability.CacheRollbacks.Inc()
	}
	if errors.Is(err, ErrNotFound) {
		return Vehicle{}, ErrNotFound
	}
	return Vehicle{}, fmt.Errorf("%s vehicle %s: %w", op, id, err)
}

func (r *Registry) refresh(ctx context.Context, id types.ID, written Vehicle) {
	stored, ok, err := r.store.FindOne(ctx, id)
	if err != nil || !ok {
		r.log.Warn("vehicle refresh failed", zap.String("vehicle_id", string(id)), zap.Error(err))
		return
	}
	r.cache.CompareAndSwap(written, stored)
}

func guardError(p Patch) error {
	if p.IfBooked != nil && !*p.IfBooked {
		return ErrAlreadyBooked
	}
	if p.IfBooked != nil && *p.IfBooked {
		return ErrNotBooked
	}
	return ErrConflict
}
