// README: RideFinder wires profile, candidates and ranking with graceful fallbacks.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ridematch/internal/logger"
	"ridematch/internal/modules/matching"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/recommend"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

type Strategy string

const (
	StrategyPipeline  Strategy = "pipeline"
	StrategyProximity Strategy = "proximity"
)

type ProfileLoader interface {
	GetOrDefault(ctx context.Context, id types.ID) profile.RiderProfile
}

type CandidateStore interface {
	GetMany(ctx context.Context, ids []types.ID) ([]ride.Ride, error)
	ListAvailable(ctx context.Context, limit int) ([]ride.Ride, error)
}

// NearbyIndex is satisfied by *matching.Store.
type NearbyIndex interface {
	NearbyRideIDs(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]types.ID, error)
}

type Recommender interface {
	Recommend(ctx context.Context, rides []ride.Ride, p profile.RiderProfile, req recommend.Request) ([]recommend.Result, error)
}

type FinderConfig struct {
	RadiusKm       float64
	CandidateLimit int
}

type RideFinder struct {
	profiles ProfileLoader
	rides    CandidateStore
	index    NearbyIndex
	rec      Recommender
	cfg      FinderConfig
	log      *zap.Logger
}

// NewRideFinder builds a finder; index may be nil, in which case candidates
// come from a scan of available rides.
func NewRideFinder(profiles ProfileLoader, rides CandidateStore, index NearbyIndex, rec Recommender, cfg FinderConfig, log *zap.Logger) *RideFinder {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = matching.DefaultRadiusKm
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 200
	}
	return &RideFinder{profiles: profiles, rides: rides, index: index, rec: rec, cfg: cfg, log: logger.OrNop(log)}
}

type Recommendations struct {
	Strategy Strategy           `json:"strategy"`
	Results  []recommend.Result `json:"results"`
}

// Recommend ranks available rides for riderID. When the pipeline fails the
// proximity matcher ranks the same candidates instead.
func (f *RideFinder) Recommend(ctx context.Context, riderID types.ID, req recommend.Request) (Recommendations, error) {
	if err := req.Pickup.Validate(); err != nil {
		return Recommendations{}, fmt.Errorf("pickup: %w", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return Recommendations{}, fmt.Errorf("destination: %w", err)
	}

	candidates, err := f.candidates(ctx, req.Pickup)
	if err != nil {
		return Recommendations{}, err
	}
	p := f.profiles.GetOrDefault(ctx, riderID)

	results, err := f.rec.Recommend(ctx, candidates, p, req)
	if err == nil {
		return Recommendations{Strategy: StrategyPipeline, Results: results}, nil
	}
	f.log.Warn("recommendation pipeline failed, ranking by proximity",
		zap.String("rider_id", string(riderID)), zap.Error(err))

	matches := matching.Match(matching.Request{Pickup: req.Pickup, Dropoff: req.Destination}, candidates)
	out := make([]recommend.Result, len(matches))
	for i, m := range matches {
		out[i] = recommend.Result{
			Ride:  m.Ride,
			Score: m.Score,
			Reasoning: []string{
				fmt.Sprintf("pickup %.1f km away", m.PickupDistanceKm),
				fmt.Sprintf("dropoff %.1f km from destination", m.DropoffDistanceKm),
				fmt.Sprintf("route differs by %.1f km", m.RouteDeviationKm),
				fmt.Sprintf("%s (%.1f)", recommend.Label(m.Score), m.Score),
			},
		}
	}
	return Recommendations{Strategy: StrategyProximity, Results: out}, nil
}

// Nearby lists available rides whose pickup is within radiusKm of p, closest first.
func (f *RideFinder) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]matching.Nearby, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = f.cfg.RadiusKm
	}
	candidates, err := f.candidatesWithin(ctx, p, radiusKm)
	if err != nil {
		return nil, err
	}
	return matching.FindNearby(p, candidates, radiusKm), nil
}

func (f *RideFinder) candidates(ctx context.Context, p types.Point) ([]ride.Ride, error) {
	return f.candidatesWithin(ctx, p, f.cfg.RadiusKm)
}

// candidatesWithin prefers the GEO index and falls back to a status scan.
func (f *RideFinder) candidatesWithin(ctx context.Context, p types.Point, radiusKm float64) ([]ride.Ride, error) {
	if f.index != nil {
		ids, err := f.index.NearbyRideIDs(ctx, p, radiusKm, f.cfg.CandidateLimit)
		if err == nil {
			rides, err := f.rides.GetMany(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("loading candidate rides: %w", err)
			}
			return onlyAvailable(rides), nil
		}
		f.log.Warn("ride geo index unavailable, scanning available rides", zap.Error(err))
	}
	rides, err := f.rides.ListAvailable(ctx, f.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("listing available rides: %w", err)
	}
	return rides, nil
}

// onlyAvailable drops rides the index still holds after they were taken.
func onlyAvailable(rides []ride.Ride) []ride.Ride {
	out := rides[:0]
	for _, r := range rides {
		if r.Status == ride.StatusAvailable {
			out = append(out, r)
		}
	}
	return out
}
