package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ridecore/internal/idgen"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

type memStorage struct {
	mu      sync.Mutex
	reviews map[types.ID]Review
}

func newMemStorage() *memStorage {
	return &memStorage{reviews: make(map[types.ID]Review)}
}

func (m *memStorage) filter(keep func(Review) bool) []Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Review
	for _, r := range m.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStorage) FindAllForUser(_ context.Context, email string) ([]Review, error) {
	return m.filter(func(r Review) bool { return r.Email == email }), nil
}

func (m *memStorage) FindAllForVehicle(_ context.Context, vehicleID types.ID) ([]Review, error) {
	return m.filter(func(r Review) bool { return r.VehicleID == vehicleID }), nil
}

func (m *memStorage) FindOne(_ context.Context, id types.ID) (Review, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	return r, ok, nil
}

func (m *memStorage) Insert(_ context.Context, r Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[r.ID]; ok {
		return fmt.Errorf("duplicate review %s", r.ID)
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *memStorage) Complete(_ context.Context, id types.ID, email string, c Completed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok || r.Email != email {
		return ErrNotFound
	}
	if _, done := r.Rated(); done {
		return ErrAlreadyCompleted
	}
	r.Outcome = c
	m.reviews[id] = r
	return nil
}

type vehicleMap map[types.ID]vehicle.Vehicle

func (m vehicleMap) GetVehicle(_ context.Context, id types.ID) (vehicle.Vehicle, bool, error) {
	v, ok := m[id]
	return v, ok, nil
}

func sequentialIDs() idgen.Generator {
	var n atomic.Int64
	return idgen.Func(func() string {
		return fmt.Sprintf("r%d", n.Add(1))
	})
}

func newTestService(vehicles VehicleLookup) (*Service, *memStorage) {
	store := newMemStorage()
	return NewService(store, sequentialIDs(), vehicles), store
}

func TestCreatePendingStoresStub(t *testing.T) {
	svc, store := newTestService(nil)
	rideDate := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	r, err := svc.CreatePending(context.Background(), PendingCommand{
		Email: "ann@example.com", VehicleID: "v1", Price: 25, RideDate: rideDate,
	})
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}
	if r.ID != "r1" {
		t.Fatalf("expected id r1, got %q", r.ID)
	}
	if _, ok := r.Outcome.(Pending); !ok {
		t.Fatalf("expected pending outcome, got %#v", r.Outcome)
	}
	stored, ok, _ := store.FindOne(context.Background(), r.ID)
	if !ok || stored.Price != 25 || !stored.RideDate.Equal(rideDate) {
		t.Fatalf("unexpected stored review: %+v", stored)
	}
}

func TestCreatePendingRejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(nil)
	if _, err := svc.CreatePending(context.Background(), PendingCommand{VehicleID: "v1"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest without email, got %v", err)
	}
	if _, err := svc.CreatePending(context.Background(), PendingCommand{Email: "a@b.c"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest without vehicle, got %v", err)
	}
}

func TestSubmitCompletesOnce(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	r, err := svc.CreatePending(ctx, PendingCommand{Email: "ann@example.com", VehicleID: "v1", Price: 10})
	if err != nil {
		t.Fatalf("create pending: %v", err)
	}

	done, err := svc.Submit(ctx, SubmitCommand{ReviewID: r.ID, Email: "ann@example.com", Rating: 4, Comment: "smooth"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	c, ok := done.Rated()
	if !ok || c.Rating != 4 || c.Comment != "smooth" {
		t.Fatalf("unexpected outcome: %#v", done.Outcome)
	}

	_, err = svc.Submit(ctx, SubmitCommand{ReviewID: r.ID, Email: "ann@example.com", Rating: 1})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
	again, _, _ := svc.Get(ctx, r.ID)
	if c, _ := again.Rated(); c.Rating != 4 {
		t.Fatalf("second submit must not overwrite rating, got %v", c.Rating)
	}
}

func TestSubmitConcurrentOnlyOneWins(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	r, _ := svc.CreatePending(ctx, PendingCommand{Email: "ann@example.com", VehicleID: "v1"})

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(rating float64) {
			defer wg.Done()
			<-start
			if _, err := svc.Submit(ctx, SubmitCommand{ReviewID: r.ID, Email: "ann@example.com", Rating: rating}); err == nil {
				wins.Add(1)
			}
		}(float64(i%5 + 1))
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one successful submit, got %d", wins.Load())
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	r, _ := svc.CreatePending(ctx, PendingCommand{Email: "ann@example.com", VehicleID: "v1"})

	for _, rating := range []float64{0, 0.5, 5.5, -1} {
		_, err := svc.Submit(ctx, SubmitCommand{ReviewID: r.ID, Email: "ann@example.com", Rating: rating})
		if !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %v: expected ErrInvalidRating, got %v", rating, err)
		}
	}
	if _, err := svc.Submit(ctx, SubmitCommand{ReviewID: "missing", Email: "ann@example.com", Rating: 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown review, got %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitCommand{ReviewID: r.ID, Email: "bob@example.com", Rating: 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another rider, got %v", err)
	}
}

func TestGetMissingIsAbsent(t *testing.T) {
	svc, _ := newTestService(nil)
	_, ok, err := svc.Get(context.Background(), "nope")
	if err != nil || ok {
		t.Fatalf("expected absent result, got ok=%v err=%v", ok, err)
	}
}

func TestListForUserJoinsVehicleSnapshot(t *testing.T) {
	vehicles := vehicleMap{"v1": {ID: "v1", Brand: "Tesla"}}
	svc, _ := newTestService(vehicles)
	ctx := context.Background()
	if _, err := svc.CreatePending(ctx, PendingCommand{Email: "ann@example.com", VehicleID: "v1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePending(ctx, PendingCommand{Email: "ann@example.com", VehicleID: "gone"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePending(ctx, PendingCommand{Email: "bob@example.com", VehicleID: "v1"}); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListForUser(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(list))
	}
	if list[0].Vehicle == nil || list[0].Vehicle.Brand != "Tesla" {
		t.Fatalf("expected vehicle snapshot, got %+v", list[0].Vehicle)
	}
	if list[1].Vehicle != nil {
		t.Fatalf("expected nil snapshot for missing vehicle, got %+v", list[1].Vehicle)
	}
}

func TestListForVehicle(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	svc.CreatePending(ctx, PendingCommand{Email: "a@x.io", VehicleID: "v1"})
	svc.CreatePending(ctx, PendingCommand{Email: "b@x.io", VehicleID: "v1"})
	svc.CreatePending(ctx, PendingCommand{Email: "c@x.io", VehicleID: "v2"})

	list, err := svc.ListForVehicle(ctx, "v1")
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 reviews for v1, got %d (err=%v)", len(list), err)
	}
}

func TestAverageRating(t *testing.T) {
	cases := []struct {
		name    string
		reviews []Review
		want    float64
	}{
		{"none", nil, 0},
		{"only pending", []Review{{Outcome: Pending{}}}, 0},
		{"mixed", []Review{
			{Outcome: Completed{Rating: 4}},
			{Outcome: Completed{Rating: 5}},
			{Outcome: Pending{}},
		}, 4.5},
	}
	for _, tc := range cases {
		if got := AverageRating(tc.reviews); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestReviewJSONShape(t *testing.T) {
	pending, _ := json.Marshal(Review{ID: "r1", Outcome: Pending{}})
	if !strings.Contains(string(pending), `"completed":false`) || strings.Contains(string(pending), "rating") {
		t.Fatalf("unexpected pending json: %s", pending)
	}
	done, _ := json.Marshal(Review{ID: "r1", Outcome: Completed{Rating: 5, Comment: "great"}})
	if !strings.Contains(string(done), `"rating":5`) || !strings.Contains(string(done), `"comment":"great"`) {
		t.Fatalf("unexpected completed json: %s", done)
	}
}
