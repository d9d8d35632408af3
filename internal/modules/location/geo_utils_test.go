package location

import (
	"math"
	"testing"

	"ridecore/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 25.033, Lng: 121.565},
			b:         types.Point{Lat: 25.033, Lng: 121.565},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Taipei 101 to Taipei Main Station",
			a:         types.Point{Lat: 25.0340, Lng: 121.5645},
			b:         types.Point{Lat: 25.0478, Lng: 121.5170},
			wantKm:    5.0,
			tolerance: 1.0,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
		{
			name:      "one degree of latitude",
			a:         types.Point{Lat: 0, Lng: 0},
			b:         types.Point{Lat: 1, Lng: 0},
			wantKm:    111.19,
			tolerance: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("Distance() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][2]types.Point{
		{{Lat: 25.0, Lng: 121.0}, {Lat: 26.0, Lng: 122.0}},
		{{Lat: -33.86, Lng: 151.2}, {Lat: 51.5, Lng: -0.12}},
		{{Lat: 0, Lng: 179.9}, {Lat: 0, Lng: -179.9}},
	}
	for _, p := range pairs {
		if d1, d2 := Distance(p[0], p[1]), Distance(p[1], p[0]); d1 != d2 {
			t.Errorf("distance is not symmetric for %v: %f vs %f", p, d1, d2)
		}
	}
}

func TestDistance_MalformedInputIsDeterministic(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		a, b types.Point
		want types.Point
	}{
		{"NaN treated as zero", types.Point{Lat: nan, Lng: nan}, types.Point{Lat: 1, Lng: 1}, types.Point{Lat: 0, Lng: 0}},
		{"latitude clamped", types.Point{Lat: 120, Lng: 10}, types.Point{Lat: 0, Lng: 0}, types.Point{Lat: 90, Lng: 10}},
		{"longitude wrapped", types.Point{Lat: 10, Lng: 370}, types.Point{Lat: 0, Lng: 0}, types.Point{Lat: 10, Lng: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distance(tc.a, tc.b)
			want := Distance(tc.want, tc.b)
			if math.IsNaN(got) || got < 0 {
				t.Fatalf("Distance() = %f, want finite non-negative", got)
			}
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("Distance() = %f, want %f", got, want)
			}
			if again := Distance(tc.a, tc.b); again != got {
				t.Errorf("Distance() not deterministic: %f vs %f", got, again)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(types.Point{Lat: 25, Lng: 121}); err != nil {
		t.Fatalf("valid point rejected: %v", err)
	}
	bad := []types.Point{
		{Lat: math.NaN(), Lng: 0},
		{Lat: 91, Lng: 0},
		{Lat: 0, Lng: -181},
	}
	for _, p := range bad {
		if err := Validate(p); err != ErrInvalidPosition {
			t.Errorf("Validate(%v) = %v, want ErrInvalidPosition", p, err)
		}
	}
}

type ranked struct {
	id   string
	dist float64
}

func TestSortByDistance(t *testing.T) {
	items := []ranked{{"c", 5.0}, {"a", 1.0}, {"b", 3.0}}
	SortByDistance(items, func(r ranked) float64 { return r.dist })
	if items[0].id != "a" || items[1].id != "b" || items[2].id != "c" {
		t.Errorf("unexpected sort order: %v", items)
	}
}

func TestSortByDistance_StableOnTies(t *testing.T) {
	items := []ranked{{"x", 2}, {"a", 1}, {"y", 2}, {"z", 2}}
	SortByDistance(items, func(r ranked) float64 { return r.dist })
	got := []string{items[0].id, items[1].id, items[2].id, items[3].id}
	want := []string{"a", "x", "y", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order not preserved: got %v, want %v", got, want)
		}
	}
}

func TestSortByDistance_Empty(t *testing.T) {
	var items []ranked
	SortByDistance(items, func(r ranked) float64 { return r.dist })
}
