// README: Fallback pathfinder result and search node types.
//
// The pathfinder is a heuristic approximation used only when the road
// routing provider is unreachable. It walks a synthetic 0.01 degree grid
// biased toward the goal; it knows nothing about real roads.
package pathfind

import "ridematch/internal/types"

const (
	// stepDegrees is the fixed grid offset used for neighbor generation.
	stepDegrees = 0.01
	// sameNodeDegrees is the per-axis tolerance under which two nodes are the same.
	sameNodeDegrees = 0.0001
	// goalToleranceKm is how close a node must be to the segment end to count as the goal.
	goalToleranceKm = 0.1
	// maxExpansions caps the nodes expanded per segment before falling back
	// to a straight segment.
	maxExpansions = 10000
	// averageSpeedKmph converts the estimated distance into a duration.
	averageSpeedKmph = 30.0
)

// Result is the concatenated path over every segment of a journey.
type Result struct {
	Path          []types.Point
	TotalDistance float64 // km
	DurationMin   float64
	// Degenerate counts segments that ended with the straight-line fallback.
	Degenerate int
}

// node lives in a per-segment arena. parent is an arena index (-1 for the
// segment start) and is fixed at creation.
type node struct {
	pos    types.Point
	g, h   float64
	parent int
}

func (n node) f() float64 { return n.g + n.h }

// cellKey quantizes a coordinate to the sameNodeDegrees grid.
type cellKey struct {
	lat, lng int64
}
