// README: Profile service loads profiles, learns from feedback and feeds peer lookups.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ridematch/internal/infra"
	"ridematch/internal/logger"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Repository interface {
	Get(ctx context.Context, id types.ID) (*RiderProfile, error)
	PutPreferences(ctx context.Context, id types.ID, prefs Preferences) error
	SaveFeedback(ctx context.Context, p RiderProfile, entry HistoryEntry) error
	PeerIDs(ctx context.Context, exclude types.ID, limit int) ([]types.ID, error)
}

type RideGetter interface {
	Get(ctx context.Context, id types.ID) (*ride.Ride, error)
}

type Service struct {
	store Repository
	rides RideGetter
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Repository, rides RideGetter, log *zap.Logger) *Service {
	return &Service{store: store, rides: rides, log: logger.OrNop(log), now: time.Now}
}

func (s *Service) Get(ctx context.Context, id types.ID) (RiderProfile, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return RiderProfile{}, err
	}
	return *p, nil
}

// GetOrDefault never fails: a missing or unreadable profile yields DefaultProfile.
func (s *Service) GetOrDefault(ctx context.Context, id types.ID) RiderProfile {
	p, err := s.store.Get(ctx, id)
	if err == nil {
		return *p
	}
	if !errors.Is(err, ErrNotFound) {
		s.log.Warn("loading rider profile failed, using default", zap.String("rider_id", string(id)), zap.Error(err))
	}
	return DefaultProfile(id)
}

func (s *Service) UpdatePreferences(ctx context.Context, id types.ID, prefs Preferences) (RiderProfile, error) {
	if math.IsNaN(prefs.MaxPrice) || math.IsInf(prefs.MaxPrice, 0) {
		return RiderProfile{}, fmt.Errorf("%w: max price %v", ErrBadRequest, prefs.MaxPrice)
	}
	if prefs.MaxPrice < 0 {
		prefs.MaxPrice = NoPriceLimit
	}
	if prefs.MinDriverRating < 0 || prefs.MinDriverRating > 5 || math.IsNaN(prefs.MinDriverRating) {
		return RiderProfile{}, fmt.Errorf("%w: min driver rating %v", ErrBadRequest, prefs.MinDriverRating)
	}
	if prefs.ConversationStyle == "" {
		prefs.ConversationStyle = types.ConversationModerate
	}
	if !prefs.ConversationStyle.Valid() {
		return RiderProfile{}, fmt.Errorf("%w: conversation style %q", ErrBadRequest, prefs.ConversationStyle)
	}
	if err := s.store.PutPreferences(ctx, id, prefs); err != nil {
		return RiderProfile{}, err
	}
	return s.Get(ctx, id)
}

// Feedback learns from one ride outcome and persists the result.
func (s *Service) Feedback(ctx context.Context, msg FeedbackMessage) (RiderProfile, error) {
	if msg.RiderID == "" || msg.RideID == "" {
		return RiderProfile{}, fmt.Errorf("%w: rider and ride ids are required", ErrBadRequest)
	}
	r, err := s.rides.Get(ctx, msg.RideID)
	if err != nil {
		return RiderProfile{}, err
	}

	current, err := s.store.Get(ctx, msg.RiderID)
	switch {
	case errors.Is(err, ErrNotFound):
		p := DefaultProfile(msg.RiderID)
		current = &p
	case err != nil:
		return RiderProfile{}, err
	}

	at := msg.At
	if at.IsZero() {
		at = s.now()
	}
	updated, err := ApplyFeedback(*current, *r, msg.Rating, msg.Accepted, at)
	if err != nil {
		return RiderProfile{}, err
	}
	if err := s.store.SaveFeedback(ctx, updated, updated.History[len(updated.History)-1]); err != nil {
		return RiderProfile{}, err
	}
	s.log.Info("rider profile updated",
		zap.String("rider_id", string(msg.RiderID)),
		zap.String("ride_id", string(msg.RideID)),
		zap.Float64("rating", msg.Rating),
		zap.Bool("accepted", msg.Accepted),
	)
	return updated, nil
}

// PeerIDs and Profile let the recommendation pipeline fetch peer profiles.
func (s *Service) PeerIDs(ctx context.Context, exclude types.ID, limit int) ([]types.ID, error) {
	return s.store.PeerIDs(ctx, exclude, limit)
}

func (s *Service) Profile(ctx context.Context, id types.ID) (RiderProfile, error) {
	return s.Get(ctx, id)
}

// SubscribeFeedback blocks, applying every ride.feedback.* message until ctx is done.
// Malformed or invalid messages are marked permanent and dropped. Store
// failures are returned as-is so the message is redelivered.
func SubscribeFeedback(ctx context.Context, c ride.Consumer, svc *Service) {
	c.Consume(ctx, infra.FeedbackQueue, func(ctx context.Context, d amqp.Delivery) error {
		var msg FeedbackMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return infra.Permanent(fmt.Errorf("decode feedback: %w", err))
		}
		if _, err := svc.Feedback(ctx, msg); err != nil {
			if permanentFeedbackError(err) {
				return infra.Permanent(err)
			}
			return err
		}
		return nil
	})
}

func permanentFeedbackError(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ride.ErrNotFound) ||
		errors.Is(err, types.ErrInvalidCoordinate)
}

func FeedbackRoutingKey(riderID types.ID) string {
	return "ride.feedback." + string(riderID)
}

// PublishFeedback queues msg for SubscribeFeedback instead of applying it inline.
func PublishFeedback(ctx context.Context, pub ride.Publisher, msg FeedbackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	if err := pub.Publish(ctx, infra.RideExchange, FeedbackRoutingKey(msg.RiderID), body); err != nil {
		return fmt.Errorf("publish feedback: %w", err)
	}
	return nil
}

// FeedbackPublisher queues feedback on the broker.
type FeedbackPublisher struct {
	pub ride.Publisher
}

func NewFeedbackPublisher(pub ride.Publisher) *FeedbackPublisher {
	return &FeedbackPublisher{pub: pub}
}

func (p *FeedbackPublisher) Enqueue(ctx context.Context, msg FeedbackMessage) error {
	return PublishFeedback(ctx, p.pub, msg)
}
