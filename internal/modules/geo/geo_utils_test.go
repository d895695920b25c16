package geo

import (
	"math"
	"math/rand"
	"testing"

	"ridematch/internal/types"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
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
			name:      "Taipei 101 to Taipei Main Station (~5km)",
			a:         types.Point{Lat: 25.0340, Lng: 121.5645},
			b:         types.Point{Lat: 25.0478, Lng: 121.5170},
			wantKm:    5.0,
			tolerance: 0.5,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
		{
			name:      "antipodal points (half circumference)",
			a:         types.Point{Lat: 0, Lng: 0},
			b:         types.Point{Lat: 0, Lng: 180},
			wantKm:    math.Pi * EarthRadiusKm,
			tolerance: 0.001,
		},
		{
			name:      "pole to pole",
			a:         types.Point{Lat: 90, Lng: 0},
			b:         types.Point{Lat: -90, Lng: 45},
			wantKm:    math.Pi * EarthRadiusKm,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_SymmetryAndIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a := types.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := types.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		if d := DistanceKm(a, a); d != 0 {
			t.Fatalf("DistanceKm(a, a) = %f for %v", d, a)
		}
		d1, d2 := DistanceKm(a, b), DistanceKm(b, a)
		if math.Abs(d1-d2) > 1e-9 {
			t.Fatalf("not symmetric for %v/%v: %f vs %f", a, b, d1, d2)
		}
		if math.IsNaN(d1) || d1 < 0 || d1 > math.Pi*EarthRadiusKm+1e-6 {
			t.Fatalf("distance out of range for %v/%v: %f", a, b, d1)
		}
	}
}

func TestDegreesToRadians(t *testing.T) {
	if got := DegreesToRadians(180); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("DegreesToRadians(180) = %v", got)
	}
	if got := DegreesToRadians(-90); math.Abs(got+math.Pi/2) > 1e-12 {
		t.Errorf("DegreesToRadians(-90) = %v", got)
	}
}

func TestPathLengthKm(t *testing.T) {
	a := types.Point{Lat: 0, Lng: 0}
	b := types.Point{Lat: 0, Lng: 1}
	c := types.Point{Lat: 1, Lng: 1}
	want := DistanceKm(a, b) + DistanceKm(b, c)
	if got := PathLengthKm([]types.Point{a, b, c}); math.Abs(got-want) > 1e-9 {
		t.Errorf("PathLengthKm() = %f, want %f", got, want)
	}
	if got := PathLengthKm([]types.Point{a}); got != 0 {
		t.Errorf("single point path length = %f", got)
	}
}

type item struct {
	id   string
	dist float64
}

func TestSortByDistance(t *testing.T) {
	items := []item{{"c", 5}, {"a", 1}, {"b", 3}, {"a2", 1}}
	SortByDistance(items, func(i item) float64 { return i.dist })
	want := []string{"a", "a2", "b", "c"}
	for i, w := range want {
		if items[i].id != w {
			t.Fatalf("unexpected order at %d: %v", i, items)
		}
	}
}

func TestSortByDistance_Empty(t *testing.T) {
	var items []item
	SortByDistance(items, func(i item) float64 { return i.dist })
}
