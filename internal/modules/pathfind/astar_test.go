package pathfind

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"ridematch/internal/modules/geo"
	"ridematch/internal/types"
)

func TestFindPath_SamePoint(t *testing.T) {
	p := types.Point{Lat: 0, Lng: 0}
	res, err := FindPath(p, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Path) < 1 {
		t.Fatalf("expected non-empty path")
	}
	if res.TotalDistance != 0 {
		t.Errorf("TotalDistance = %f, want 0", res.TotalDistance)
	}
	if res.Degenerate != 0 {
		t.Errorf("expected no degenerate segments, got %d", res.Degenerate)
	}
}

func TestFindPath_DiagonalOnGrid(t *testing.T) {
	start := types.Point{Lat: 0, Lng: 0}
	goal := types.Point{Lat: 0.05, Lng: 0.05}
	res, err := FindPath(start, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degenerate != 0 {
		t.Fatalf("expected grid search to reach the goal, got degenerate fallback")
	}
	if len(res.Path) != 6 {
		t.Fatalf("expected 6 points, got %d: %v", len(res.Path), res.Path)
	}
	if res.Path[0] != start {
		t.Errorf("path must start at start, got %v", res.Path[0])
	}
	if geo.DistanceKm(res.Path[len(res.Path)-1], goal) >= goalToleranceKm {
		t.Errorf("path must end within tolerance of goal, got %v", res.Path[len(res.Path)-1])
	}
	direct := geo.DistanceKm(start, goal)
	if math.Abs(res.TotalDistance-direct) > direct*0.01 {
		t.Errorf("TotalDistance = %f, want about %f", res.TotalDistance, direct)
	}
	if res.DurationMin <= 0 {
		t.Errorf("expected positive duration, got %f", res.DurationMin)
	}
}

func TestFindPath_OvershootFallsBackToStraightSegment(t *testing.T) {
	start := types.Point{Lat: 0, Lng: 0}
	goal := types.Point{Lat: 0.035, Lng: 0}
	res, err := FindPath(start, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degenerate != 1 {
		t.Fatalf("expected one degenerate segment, got %d", res.Degenerate)
	}
	if len(res.Path) != 2 || res.Path[0] != start || res.Path[1] != goal {
		t.Fatalf("expected straight [start, goal], got %v", res.Path)
	}
	if want := geo.DistanceKm(start, goal); res.TotalDistance != want {
		t.Errorf("TotalDistance = %f, want %f", res.TotalDistance, want)
	}
}

func TestFindPath_Waypoints(t *testing.T) {
	start := types.Point{Lat: 0, Lng: 0}
	via := types.Point{Lat: 0.02, Lng: 0}
	goal := types.Point{Lat: 0.02, Lng: 0.03}
	res, err := FindPath(start, goal, via)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Degenerate != 0 {
		t.Fatalf("expected both legs to reach their goals")
	}
	if len(res.Path) != 6 {
		t.Fatalf("expected junction to be shared, got %d points: %v", len(res.Path), res.Path)
	}
	want := geo.DistanceKm(start, via) + geo.DistanceKm(via, goal)
	if math.Abs(res.TotalDistance-want) > 0.01 {
		t.Errorf("TotalDistance = %f, want about %f", res.TotalDistance, want)
	}
}

func TestFindPath_InvalidCoordinate(t *testing.T) {
	_, err := FindPath(types.Point{Lat: 91, Lng: 0}, types.Point{})
	if !errors.Is(err, types.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	_, err = FindPath(types.Point{}, types.Point{}, types.Point{Lat: 0, Lng: 200})
	if !errors.Is(err, types.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate for waypoint, got %v", err)
	}
}

// TestFindPath_AlwaysTerminates checks random pairs, including near-antipodal
// ones, return a non-empty path that starts at start.
func TestFindPath_AlwaysTerminates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pairs := [][2]types.Point{
		{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 179.99}},
		{{Lat: 89.9, Lng: 10}, {Lat: -89.9, Lng: -170}},
		{{Lat: 45, Lng: -180}, {Lat: -45, Lng: 180}},
	}
	for i := 0; i < 30; i++ {
		a := types.Point{Lat: rng.Float64()*180 - 90, Lng: rng.Float64()*360 - 180}
		b := types.Point{Lat: a.Lat + rng.Float64()*0.2 - 0.1, Lng: a.Lng + rng.Float64()*0.2 - 0.1}
		b.Lat = math.Max(-90, math.Min(90, b.Lat))
		b.Lng = math.Max(-180, math.Min(180, b.Lng))
		pairs = append(pairs, [2]types.Point{a, b})
	}
	for _, pr := range pairs {
		res, err := FindPath(pr[0], pr[1])
		if err != nil {
			t.Fatalf("FindPath(%v, %v): %v", pr[0], pr[1], err)
		}
		if len(res.Path) == 0 || res.Path[0] != pr[0] {
			t.Fatalf("bad path for %v -> %v: %v", pr[0], pr[1], res.Path)
		}
		if math.IsNaN(res.TotalDistance) || res.TotalDistance < 0 {
			t.Fatalf("bad distance for %v -> %v: %f", pr[0], pr[1], res.TotalDistance)
		}
	}
}

func FuzzFindPath(f *testing.F) {
	f.Add(0.0, 0.0, 0.0, 0.0)
	f.Add(25.033, 121.565, 25.047, 121.517)
	f.Add(0.0, 0.0, 0.0, 179.9)
	f.Fuzz(func(t *testing.T, lat1, lng1, lat2, lng2 float64) {
		a := types.Point{Lat: math.Mod(lat1, 90), Lng: math.Mod(lng1, 180)}
		b := types.Point{Lat: math.Mod(lat2, 90), Lng: math.Mod(lng2, 180)}
		res, err := FindPath(a, b)
		if err != nil {
			if errors.Is(err, types.ErrInvalidCoordinate) {
				return
			}
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Path) == 0 {
			t.Fatalf("empty path for %v -> %v", a, b)
		}
	})
}

func TestNeighbors(t *testing.T) {
	p := types.Point{Lat: 1, Lng: 1}
	got := neighbors(p, types.Point{Lat: 0, Lng: 2})
	want := []types.Point{{Lat: 0.99, Lng: 1.01}, {Lat: 0.99, Lng: 1}, {Lat: 1, Lng: 1.01}}
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbors, got %v", len(want), got)
	}
	for i := range want {
		if !sameNode(got[i], want[i]) {
			t.Errorf("neighbor %d = %v, want %v", i, got[i], want[i])
		}
	}
	if n := neighbors(p, types.Point{Lat: 1, Lng: 5}); len(n) != 2 {
		t.Errorf("aligned goal should yield 2 moving neighbors, got %v", n)
	}
}

func TestFindPath_StaysOnValidCoordinates(t *testing.T) {
	cases := []struct {
		name       string
		start, end types.Point
	}{
		{"north pole", types.Point{Lat: 89.9905, Lng: 0}, types.Point{Lat: 90, Lng: 0}},
		{"south pole", types.Point{Lat: -89.9905, Lng: 10}, types.Point{Lat: -90, Lng: 10}},
		{"antimeridian", types.Point{Lat: 0, Lng: 179.995}, types.Point{Lat: 0, Lng: 180}},
		{"both edges", types.Point{Lat: 89.995, Lng: -179.995}, types.Point{Lat: 90, Lng: -180}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := FindPath(tc.start, tc.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, p := range res.Path {
				if err := p.Validate(); err != nil {
					t.Fatalf("path point %d %v is invalid", i, p)
				}
			}
			if res.Degenerate != 0 {
				t.Errorf("expected a grid path, got %d degenerate segments", res.Degenerate)
			}
		})
	}
}

func TestNeighbors_ClampedAtEdges(t *testing.T) {
	for _, n := range neighbors(types.Point{Lat: 89.995, Lng: 179.995}, types.Point{Lat: 90, Lng: 180}) {
		if err := n.Validate(); err != nil {
			t.Errorf("neighbor %v out of range", n)
		}
	}
}
