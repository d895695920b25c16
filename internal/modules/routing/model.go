// README: Route estimate types and the routing provider boundary.
package routing

import (
	"context"
	"errors"

	"ridematch/internal/types"
)

var ErrNoRoute = errors.New("no route found")

// Route is one alternative returned by a routing provider.
type Route struct {
	Path         []types.Point `json:"path"`
	DistanceKm   float64       `json:"distance_km"`
	DurationMin  float64       `json:"duration_min"`
	Instructions []string      `json:"instructions,omitempty"`
}

// Provider is an authoritative road routing service.
type Provider interface {
	Routes(ctx context.Context, from, to types.Point) ([]Route, error)
}

// Cache stores provider routes keyed by journey.
type Cache interface {
	Get(ctx context.Context, key string) (*Route, bool, error)
	Set(ctx context.Context, key string, r Route) error
}

type Source string

const (
	SourceProvider Source = "provider"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

type Estimate struct {
	Route
	Source Source `json:"source"`
	// Degenerate counts fallback legs that ended as straight lines.
	Degenerate int `json:"degenerate,omitempty"`
}

// Shortest returns the alternative with the minimum distance.
func Shortest(routes []Route) (Route, bool) {
	if len(routes) == 0 {
		return Route{}, false
	}
	best := routes[0]
	for _, r := range routes[1:] {
		if r.DistanceKm < best.DistanceKm {
			best = r
		}
	}
	return best, true
}
