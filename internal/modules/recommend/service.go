// README: Recommendation service adds the bounded peer-profile fetch around the pipeline.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ridematch/internal/logger"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

var ErrPipeline = errors.New("recommendation pipeline failed")

// PeerSource is satisfied by *profile.Service.
type PeerSource interface {
	PeerIDs(ctx context.Context, exclude types.ID, limit int) ([]types.ID, error)
	Profile(ctx context.Context, id types.ID) (profile.RiderProfile, error)
}

type Config struct {
	PeerLimit   int
	PeerTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{PeerLimit: 20, PeerTimeout: 1500 * time.Millisecond}
}

type Service struct {
	peers PeerSource
	cfg   Config
	log   *zap.Logger
}

// NewService builds the service. peers may be nil, in which case the
// collaborative stage is always neutral.
func NewService(peers PeerSource, cfg Config, log *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.PeerLimit <= 0 {
		cfg.PeerLimit = def.PeerLimit
	}
	if cfg.PeerTimeout <= 0 {
		cfg.PeerTimeout = def.PeerTimeout
	}
	return &Service{peers: peers, cfg: cfg, log: logger.OrNop(log)}
}

// Recommend fetches peers and runs the pipeline. It fails only on invalid
// request coordinates or an internal pipeline fault.
func (s *Service) Recommend(ctx context.Context, rides []ride.Ride, p profile.RiderProfile, req Request) (results []Result, err error) {
	if err := req.Pickup.Validate(); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	peers := s.fetchPeers(ctx, p.ID)

	defer func() {
		if r := recover(); r != nil {
			results, err = nil, fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()
	results, rejected := recommend(rides, p, req, peers)
	s.log.Debug("recommendation pipeline finished",
		zap.String("rider_id", string(p.ID)),
		zap.Int("candidates", len(rides)),
		zap.Int("rejected", len(rejected)),
		zap.Int("peers", len(peers)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// fetchPeers loads up to PeerLimit peer profiles concurrently under
// PeerTimeout. Any failure drops all peers.
func (s *Service) fetchPeers(ctx context.Context, self types.ID) []profile.RiderProfile {
	if s.peers == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PeerTimeout)
	defer cancel()

	ids, err := s.peers.PeerIDs(ctx, self, s.cfg.PeerLimit)
	if err != nil {
		s.log.Warn("listing peer profiles failed", zap.String("rider_id", string(self)), zap.Error(err))
		return nil
	}
	if len(ids) > s.cfg.PeerLimit {
		ids = ids[:s.cfg.PeerLimit]
	}

	out := make([]profile.RiderProfile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.peers.Profile(gctx, id)
			if err != nil {
				return fmt.Errorf("peer %s: %w", id, err)
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("fetching peer profiles failed, collaborative score is neutral", zap.String("rider_id", string(self)), zap.Error(err))
		return nil
	}
	return out
}
