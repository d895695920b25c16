// README: RideFinder and TripQuoter tests with in-memory collaborators.
package service

import (
	"context"
	"errors"
	"testing"

	"ridematch/internal/modules/pricing"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/recommend"
	"ridematch/internal/modules/ride"
	"ridematch/internal/modules/routing"
	"ridematch/internal/types"
)

var pickup = types.Point{Lat: 25.033, Lng: 121.565}
var destination = types.Point{Lat: 25.08, Lng: 121.6}

type stubProfiles struct{}

func (stubProfiles) GetOrDefault(_ context.Context, id types.ID) profile.RiderProfile {
	return profile.DefaultProfile(id)
}

type stubRides struct {
	byID      map[types.ID]ride.Ride
	available []ride.Ride
	listCalls int
}

func (s *stubRides) GetMany(_ context.Context, ids []types.ID) ([]ride.Ride, error) {
	var out []ride.Ride
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRides) ListAvailable(_ context.Context, _ int) ([]ride.Ride, error) {
	s.listCalls++
	return s.available, nil
}

type stubIndex struct {
	ids []types.ID
	err error
}

func (s stubIndex) NearbyRideIDs(context.Context, types.Point, float64, int) ([]types.ID, error) {
	return s.ids, s.err
}

type failingRecommender struct{}

func (failingRecommender) Recommend(context.Context, []ride.Ride, profile.RiderProfile, recommend.Request) ([]recommend.Result, error) {
	return nil, recommend.ErrPipeline
}

func availableRide(id string, p types.Point) ride.Ride {
	return ride.Ride{
		ID:           types.ID(id),
		Driver:       ride.Driver{ID: "d", Rating: 4.8, TotalRides: 80, Cabin: ride.CabinPreferences{ConversationStyle: types.ConversationModerate}},
		Pickup:       p,
		Dropoff:      destination,
		Price:        12,
		VehicleClass: pricing.ClassEconomy,
		Status:       ride.StatusAvailable,
	}
}

func TestRideFinder_PipelineWithIndex(t *testing.T) {
	near := availableRide("near", pickup)
	taken := availableRide("taken", pickup)
	taken.Status = ride.StatusAccepted
	rides := &stubRides{byID: map[types.ID]ride.Ride{"near": near, "taken": taken}}

	f := NewRideFinder(stubProfiles{}, rides, stubIndex{ids: []types.ID{"taken", "near"}},
		recommend.NewService(nil, recommend.Config{}, nil), FinderConfig{}, nil)

	got, err := f.Recommend(context.Background(), "rider", recommend.Request{Pickup: pickup, Destination: destination})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if got.Strategy != StrategyPipeline {
		t.Errorf("strategy = %s, want pipeline", got.Strategy)
	}
	if len(got.Results) != 1 || got.Results[0].Ride.ID != "near" {
		t.Fatalf("unexpected results: %+v", got.Results)
	}
	if rides.listCalls != 0 {
		t.Error("status scan must not run when the index answers")
	}
}

func TestRideFinder_IndexFailureScansStore(t *testing.T) {
	rides := &stubRides{available: []ride.Ride{availableRide("a", pickup)}}
	f := NewRideFinder(stubProfiles{}, rides, stubIndex{err: errors.New("redis down")},
		recommend.NewService(nil, recommend.Config{}, nil), FinderConfig{}, nil)

	got, err := f.Recommend(context.Background(), "rider", recommend.Request{Pickup: pickup, Destination: destination})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if rides.listCalls != 1 || len(got.Results) != 1 {
		t.Fatalf("expected one scanned result, got calls=%d results=%+v", rides.listCalls, got.Results)
	}
}

func TestRideFinder_FallsBackToProximity(t *testing.T) {
	rides := &stubRides{available: []ride.Ride{
		availableRide("close", pickup),
		availableRide("far", types.Point{Lat: 26, Lng: 121.565}),
	}}
	f := NewRideFinder(stubProfiles{}, rides, nil, failingRecommender{}, FinderConfig{}, nil)

	got, err := f.Recommend(context.Background(), "rider", recommend.Request{Pickup: pickup, Destination: destination})
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if got.Strategy != StrategyProximity {
		t.Fatalf("strategy = %s, want proximity", got.Strategy)
	}
	if len(got.Results) != 1 || got.Results[0].Ride.ID != "close" {
		t.Fatalf("unexpected fallback results: %+v", got.Results)
	}
	if len(got.Results[0].Reasoning) == 0 {
		t.Error("fallback results need reasoning")
	}
}

func TestRideFinder_InvalidRequest(t *testing.T) {
	f := NewRideFinder(stubProfiles{}, &stubRides{}, nil, failingRecommender{}, FinderConfig{}, nil)
	_, err := f.Recommend(context.Background(), "rider", recommend.Request{Pickup: types.Point{Lat: 91}, Destination: destination})
	if !errors.Is(err, types.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestRideFinder_Nearby(t *testing.T) {
	rides := &stubRides{available: []ride.Ride{
		availableRide("mid", types.Point{Lat: pickup.Lat + 0.02, Lng: pickup.Lng}),
		availableRide("near", pickup),
		availableRide("out", types.Point{Lat: pickup.Lat + 0.5, Lng: pickup.Lng}),
	}}
	f := NewRideFinder(stubProfiles{}, rides, nil, failingRecommender{}, FinderConfig{}, nil)

	got, err := f.Nearby(context.Background(), pickup, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 2 || got[0].Ride.ID != "near" || got[1].Ride.ID != "mid" {
		t.Fatalf("unexpected nearby rides: %+v", got)
	}
}

func TestTripQuoter_Fallback(t *testing.T) {
	q := NewTripQuoter(routing.NewEstimator(nil, nil, nil), pricing.NewService("USD"))
	got, err := q.Quote(context.Background(), types.Point{}, types.Point{Lat: 0.05, Lng: 0.05}, nil)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if got.Source != routing.SourceFallback {
		t.Errorf("source = %s, want fallback", got.Source)
	}
	if len(got.Fares) != 3 {
		t.Fatalf("expected a fare per class, got %+v", got.Fares)
	}
	for _, f := range got.Fares {
		if want := pricing.Price(got.Route.DistanceKm, f.VehicleClass); f.Price.Amount != want || f.Price.Currency != "USD" {
			t.Errorf("%s fare = %+v, want %v USD", f.VehicleClass, f.Price, want)
		}
	}

	one, err := q.Quote(context.Background(), types.Point{}, types.Point{Lat: 0.05, Lng: 0.05}, nil, pricing.ClassPremium)
	if err != nil || len(one.Fares) != 1 {
		t.Fatalf("expected a single premium fare, got %+v, %v", one.Fares, err)
	}
}
