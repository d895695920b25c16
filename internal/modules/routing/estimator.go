// README: Estimator picks the shortest provider route and falls back to the local pathfinder.
package routing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ridematch/internal/modules/pathfind"
	"ridematch/internal/types"
)

type Estimator struct {
	provider Provider
	cache    Cache
	log      *zap.Logger
}

// NewEstimator builds an estimator. provider and cache may be nil.
func NewEstimator(provider Provider, cache Cache, log *zap.Logger) *Estimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Estimator{provider: provider, cache: cache, log: log}
}

// Estimate returns a route from `from` to `to` through waypoints. Provider
// failures are never returned: the local pathfinder answers instead. The
// only error is an invalid coordinate.
func (e *Estimator) Estimate(ctx context.Context, from, to types.Point, waypoints ...types.Point) (Estimate, error) {
	stops := make([]types.Point, 0, len(waypoints)+2)
	stops = append(stops, from)
	stops = append(stops, waypoints...)
	stops = append(stops, to)
	for i, p := range stops {
		if err := p.Validate(); err != nil {
			return Estimate{}, fmt.Errorf("stop %d: %w", i, err)
		}
	}

	key := JourneyKey(stops...)
	if e.cache != nil {
		r, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			e.log.Warn("route cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return Estimate{Route: *r, Source: SourceCache}, nil
		}
	}

	if e.provider != nil {
		r, err := e.fromProvider(ctx, stops)
		if err == nil {
			if e.cache != nil {
				if err := e.cache.Set(ctx, key, r); err != nil {
					e.log.Warn("route cache write failed", zap.String("key", key), zap.Error(err))
				}
			}
			return Estimate{Route: r, Source: SourceProvider}, nil
		}
		e.log.Warn("routing provider unavailable, using fallback pathfinder",
			zap.Stringer("from", from), zap.Stringer("to", to), zap.Error(err))
	}

	res, err := pathfind.FindPath(from, to, waypoints...)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{
		Route: Route{
			Path:        res.Path,
			DistanceKm:  res.TotalDistance,
			DurationMin: res.DurationMin,
		},
		Source:     SourceFallback,
		Degenerate: res.Degenerate,
	}, nil
}

// fromProvider asks the provider for every leg and joins the shortest alternatives.
func (e *Estimator) fromProvider(ctx context.Context, stops []types.Point) (Route, error) {
	var out Route
	for i := 1; i < len(stops); i++ {
		routes, err := e.provider.Routes(ctx, stops[i-1], stops[i])
		if err != nil {
			return Route{}, err
		}
		leg, ok := Shortest(routes)
		if !ok {
			return Route{}, ErrNoRoute
		}
		path := leg.Path
		if len(out.Path) > 0 && len(path) > 0 && out.Path[len(out.Path)-1] == path[0] {
			path = path[1:]
		}
		out.Path = append(out.Path, path...)
		out.DistanceKm += leg.DistanceKm
		out.DurationMin += leg.DurationMin
		out.Instructions = append(out.Instructions, leg.Instructions...)
	}
	return out, nil
}
