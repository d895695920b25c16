package pathfind

import (
	"fmt"
	"math"

	"ridematch/internal/modules/geo"
	"ridematch/internal/types"
)

// FindPath estimates a path from start to goal through the given waypoints.
// Each leg between consecutive points is searched independently and the
// results are concatenated. It only fails on invalid coordinates.
func FindPath(start, goal types.Point, waypoints ...types.Point) (Result, error) {
	stops := make([]types.Point, 0, len(waypoints)+2)
	stops = append(stops, start)
	stops = append(stops, waypoints...)
	stops = append(stops, goal)
	for i, p := range stops {
		if err := p.Validate(); err != nil {
			return Result{}, fmt.Errorf("stop %d: %w", i, err)
		}
	}

	var res Result
	for i := 1; i < len(stops); i++ {
		seg := searchSegment(stops[i-1], stops[i])
		if seg.degenerate {
			res.Degenerate++
		}
		path := seg.path
		if len(res.Path) > 0 && sameNode(res.Path[len(res.Path)-1], path[0]) {
			path = path[1:]
		}
		res.Path = append(res.Path, path...)
		res.TotalDistance += seg.distance
	}
	res.DurationMin = res.TotalDistance / averageSpeedKmph * 60
	return res, nil
}

type segment struct {
	path       []types.Point
	distance   float64
	degenerate bool
}

// searchSegment runs one A* search from s to e over the synthetic grid.
func searchSegment(s, e types.Point) segment {
	arena := []node{{pos: s, g: 0, h: geo.DistanceKm(s, e), parent: -1}}
	open := &frontier{}
	open.push(frontierItem{idx: 0, f: arena[0].f(), seq: 0})
	seq := 1

	// openIdx maps a cell to the arena index of its current open entry.
	openIdx := map[cellKey]int{keyOf(s): 0}
	closed := map[cellKey]struct{}{}

	for expansions := 0; open.Len() > 0 && expansions < maxExpansions; {
		it := open.pop()
		k := keyOf(arena[it.idx].pos)
		if cur, ok := openIdx[k]; !ok || cur != it.idx {
			// Superseded by a cheaper entry for the same cell.
			continue
		}
		delete(openIdx, k)
		expansions++

		current := arena[it.idx]
		if current.h < goalToleranceKm {
			return segment{path: reconstruct(arena, it.idx), distance: current.g}
		}
		closed[k] = struct{}{}

		for _, p := range neighbors(current.pos, e) {
			nk := keyOf(p)
			if _, done := closed[nk]; done {
				continue
			}
			g := current.g + geo.DistanceKm(current.pos, p)
			if existing, ok := openIdx[nk]; ok && arena[existing].g <= g {
				continue
			}
			arena = append(arena, node{pos: p, g: g, h: geo.DistanceKm(p, e), parent: it.idx})
			idx := len(arena) - 1
			openIdx[nk] = idx
			open.push(frontierItem{idx: idx, f: arena[idx].f(), seq: seq})
			seq++
		}
	}

	return segment{
		path:       []types.Point{s, e},
		distance:   geo.DistanceKm(s, e),
		degenerate: true,
	}
}

// neighbors returns the diagonal, latitude-only and longitude-only steps
// toward goal, clamped to valid coordinates. Steps that do not move are dropped.
func neighbors(p, goal types.Point) []types.Point {
	lat := clampDegrees(p.Lat+stepToward(p.Lat, goal.Lat), 90)
	lng := clampDegrees(p.Lng+stepToward(p.Lng, goal.Lng), 180)
	candidates := [3]types.Point{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: p.Lng},
		{Lat: p.Lat, Lng: lng},
	}
	out := make([]types.Point, 0, len(candidates))
	for _, c := range candidates {
		if !sameNode(c, p) {
			out = append(out, c)
		}
	}
	return out
}

func stepToward(from, to float64) float64 {
	switch {
	case to > from:
		return stepDegrees
	case to < from:
		return -stepDegrees
	default:
		return 0
	}
}

func clampDegrees(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

func reconstruct(arena []node, idx int) []types.Point {
	var path []types.Point
	for i := idx; i >= 0; i = arena[i].parent {
		path = append(path, arena[i].pos)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

func keyOf(p types.Point) cellKey {
	return cellKey{
		lat: int64(math.Round(p.Lat / sameNodeDegrees)),
		lng: int64(math.Round(p.Lng / sameNodeDegrees)),
	}
}

func sameNode(a, b types.Point) bool {
	return math.Abs(a.Lat-b.Lat) < sameNodeDegrees && math.Abs(a.Lng-b.Lng) < sameNodeDegrees
}
