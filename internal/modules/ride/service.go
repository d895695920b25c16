// README: Ride service creates priced rides and applies status transitions.
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ridematch/internal/logger"
	"ridematch/internal/modules/routing"
	"ridematch/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("ride not found")
	ErrConflict     = errors.New("ride state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Repository interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	GetMany(ctx context.Context, ids []types.ID) ([]Ride, error)
	ListByStatus(ctx context.Context, status Status, limit int) ([]Ride, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error)
}

type RouteEstimator interface {
	Estimate(ctx context.Context, from, to types.Point, waypoints ...types.Point) (routing.Estimate, error)
}

type Pricer interface {
	Quote(ctx context.Context, distanceKm float64, vehicleClass string) (types.Money, error)
}

// GeoIndex tracks pickups of rides that are still available.
type GeoIndex interface {
	IndexRide(ctx context.Context, id types.ID, pickup types.Point) error
	RemoveRide(ctx context.Context, id types.ID) error
}

type StatusPublisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}

type Deps struct {
	Store   Repository
	Routes  RouteEstimator
	Pricing Pricer
	Geo     GeoIndex        // optional
	Events  StatusPublisher // optional
	Log     *zap.Logger
}

type Service struct {
	store   Repository
	routes  RouteEstimator
	pricing Pricer
	geo     GeoIndex
	events  StatusPublisher
	log     *zap.Logger
	now     func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		store:   d.Store,
		routes:  d.Routes,
		pricing: d.Pricing,
		geo:     d.Geo,
		events:  d.Events,
		log:     logger.OrNop(d.Log),
		now:     time.Now,
	}
}

type CreateCommand struct {
	Driver       Driver
	Pickup       types.Point
	Dropoff      types.Point
	VehicleClass string
}

type TransitionCommand struct {
	RideID types.ID
	To     Status
}

// Create prices a new available ride using whatever distance is authoritative now.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Ride, error) {
	if cmd.Driver.ID == "" {
		return nil, fmt.Errorf("%w: missing driver", ErrBadRequest)
	}
	if cmd.VehicleClass == "" {
		cmd.VehicleClass = cmd.Driver.VehicleClass
	}
	if cmd.VehicleClass == "" {
		return nil, fmt.Errorf("%w: missing vehicle class", ErrBadRequest)
	}
	if err := cmd.Pickup.Validate(); err != nil {
		return nil, fmt.Errorf("%w: pickup: %v", ErrBadRequest, err)
	}
	if err := cmd.Dropoff.Validate(); err != nil {
		return nil, fmt.Errorf("%w: dropoff: %v", ErrBadRequest, err)
	}

	est, err := s.routes.Estimate(ctx, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, fmt.Errorf("estimating route: %w", err)
	}
	fare, err := s.pricing.Quote(ctx, est.DistanceKm, cmd.VehicleClass)
	if err != nil {
		return nil, fmt.Errorf("pricing ride: %w", err)
	}

	driver := cmd.Driver
	driver.VehicleClass = cmd.VehicleClass
	r := &Ride{
		ID:           types.ID(uuid.NewString()),
		Driver:       driver,
		Pickup:       cmd.Pickup,
		Dropoff:      cmd.Dropoff,
		Price:        fare.Amount,
		Currency:     fare.Currency,
		VehicleClass: cmd.VehicleClass,
		DistanceKm:   est.DistanceKm,
		DurationMin:  est.DurationMin,
		Status:       StatusAvailable,
		CreatedAt:    s.now(),
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}

	if s.geo != nil {
		if err := s.geo.IndexRide(ctx, r.ID, r.Pickup); err != nil {
			s.log.Warn("indexing ride pickup failed", zap.String("ride_id", string(r.ID)), zap.Error(err))
		}
	}
	s.publish(ctx, StatusChanged{RideID: r.ID, DriverID: driver.ID, FromStatus: StatusNone, ToStatus: StatusAvailable, At: r.CreatedAt})
	s.log.Info("ride created",
		zap.String("ride_id", string(r.ID)),
		zap.String("route_source", string(est.Source)),
		zap.Float64("distance_km", r.DistanceKm),
		zap.Float64("price", r.Price),
	)
	return r, nil
}

// Transition moves a ride to cmd.To and returns the updated value.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*Ride, error) {
	r, err := s.store.Get(ctx, cmd.RideID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, cmd.To) {
		return nil, ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, cmd.To, r.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	from := r.Status
	updated := *r
	updated.Status = cmd.To
	updated.StatusVersion++

	if from == StatusAvailable && s.geo != nil {
		if err := s.geo.RemoveRide(ctx, r.ID); err != nil {
			s.log.Warn("removing ride pickup failed", zap.String("ride_id", string(r.ID)), zap.Error(err))
		}
	}
	s.publish(ctx, StatusChanged{RideID: r.ID, DriverID: r.Driver.ID, FromStatus: from, ToStatus: cmd.To, At: s.now()})
	return &updated, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Ride, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []types.ID) ([]Ride, error) {
	return s.store.GetMany(ctx, ids)
}

func (s *Service) ListAvailable(ctx context.Context, limit int) ([]Ride, error) {
	return s.store.ListByStatus(ctx, StatusAvailable, limit)
}

func (s *Service) publish(ctx context.Context, ev StatusChanged) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishStatusChanged(ctx, ev); err != nil {
		s.log.Warn("publishing status change failed", zap.String("ride_id", string(ev.RideID)), zap.Error(err))
	}
}
