package maps

import (
	"context"
	"errors"
	"math"
	"testing"

	"googlemaps.github.io/maps"

	"ridecore/internal/modules/location"
	"ridecore/internal/types"
)

type stubMatrix struct {
	resp *maps.DistanceMatrixResponse
	err  error
	req  *maps.DistanceMatrixRequest
}

func (s *stubMatrix) DistanceMatrix(_ context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	s.req = r
	return s.resp, s.err
}

func matrixWith(status string, meters int) *maps.DistanceMatrixResponse {
	return &maps.DistanceMatrixResponse{
		Rows: []maps.DistanceMatrixElementsRow{{
			Elements: []*maps.DistanceMatrixElement{{
				Status:   status,
				Distance: maps.Distance{Meters: meters},
			}},
		}},
	}
}

func TestRouteServiceDistanceKm(t *testing.T) {
	stub := &stubMatrix{resp: matrixWith("OK", 12500)}
	s := &RouteService{client: stub}

	km, err := s.DistanceKm(context.Background(), types.Point{Lat: 25.03, Lng: 121.56}, types.Point{Lat: 25.1, Lng: 121.6})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if km != 12.5 {
		t.Fatalf("expected 12.5 km, got %v", km)
	}
	if stub.req.Origins[0] != "25.03,121.56" {
		t.Fatalf("unexpected origin %q", stub.req.Origins[0])
	}
}

func TestRouteServiceNoRoute(t *testing.T) {
	for _, resp := range []*maps.DistanceMatrixResponse{
		{},
		matrixWith("ZERO_RESULTS", 0),
	} {
		s := &RouteService{client: &stubMatrix{resp: resp}}
		if _, err := s.DistanceKm(context.Background(), types.Point{}, types.Point{Lat: 1}); !errors.Is(err, ErrNoRoute) {
			t.Fatalf("expected ErrNoRoute, got %v", err)
		}
	}
}

type stubDistancer struct {
	km  float64
	err error
}

func (s stubDistancer) DistanceKm(context.Context, types.Point, types.Point) (float64, error) {
	return s.km, s.err
}

func TestFallbackDistancer(t *testing.T) {
	a, b := types.Point{Lat: 0, Lng: 0}, types.Point{Lat: 0, Lng: 1}
	straight := location.Distance(a, b)

	cases := []struct {
		name  string
		route Distancer
		want  float64
	}{
		{"route ok", stubDistancer{km: 150}, 150},
		{"route error", stubDistancer{err: errors.New("quota")}, straight},
		{"no route service", nil, straight},
	}
	for _, tc := range cases {
		km, err := NewFallbackDistancer(tc.route, nil).DistanceKm(context.Background(), a, b)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if math.Abs(km-tc.want) > 1e-9 {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, km)
		}
	}
}
