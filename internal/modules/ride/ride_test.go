// README: Ride service tests (transition table, create/transition flow, events).
package ride

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"ridematch/internal/infra"
	"ridematch/internal/modules/pricing"
	"ridematch/internal/modules/routing"
	"ridematch/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusAvailable, StatusAccepted, true},
		{StatusAvailable, StatusCancelled, true},
		{StatusAccepted, StatusInProgress, true},
		{StatusAccepted, StatusCancelled, true},
		{StatusInProgress, StatusCompleted, true},
		// terminal states have no outgoing transitions
		{StatusCompleted, StatusAvailable, false},
		{StatusCancelled, StatusAvailable, false},
		// skipping states
		{StatusAvailable, StatusInProgress, false},
		{StatusAvailable, StatusCompleted, false},
		{StatusInProgress, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// memRepo is an in-memory Repository.
type memRepo struct {
	mu    sync.Mutex
	rides map[types.ID]Ride
}

func newMemRepo() *memRepo { return &memRepo{rides: map[types.ID]Ride{}} }

func (m *memRepo) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[r.ID] = *r
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memRepo) GetMany(ctx context.Context, ids []types.ID) ([]Ride, error) {
	var out []Ride
	for _, id := range ids {
		if r, err := m.Get(ctx, id); err == nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRepo) ListByStatus(_ context.Context, status Status, limit int) ([]Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Ride
	for _, r := range m.rides {
		if r.Status == status && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != from || r.StatusVersion != version {
		return false, nil
	}
	r.Status = to
	r.StatusVersion++
	m.rides[id] = r
	return true, nil
}

type stubGeo struct {
	indexed map[types.ID]types.Point
}

func (g *stubGeo) IndexRide(_ context.Context, id types.ID, p types.Point) error {
	g.indexed[id] = p
	return nil
}

func (g *stubGeo) RemoveRide(_ context.Context, id types.ID) error {
	delete(g.indexed, id)
	return nil
}

type recordingPublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, exchange, key string, body []byte) error {
	if exchange != infra.RideExchange {
		return errors.New("unexpected exchange " + exchange)
	}
	p.keys = append(p.keys, key)
	p.bodies = append(p.bodies, body)
	return p.err
}

func newTestService(repo *memRepo, geo *stubGeo, pub *recordingPublisher) *Service {
	d := Deps{
		Store:   repo,
		Routes:  routing.NewEstimator(nil, nil, nil),
		Pricing: pricing.NewService("USD"),
		Events:  NewEventBus(pub),
	}
	if geo != nil {
		d.Geo = geo
	}
	return NewService(d)
}

func testCreateCommand() CreateCommand {
	return CreateCommand{
		Driver:       Driver{ID: "d1", Rating: 4.7, TotalRides: 120, VehicleClass: pricing.ClassEconomy},
		Pickup:       types.Point{Lat: 0, Lng: 0},
		Dropoff:      types.Point{Lat: 0.05, Lng: 0.05},
		VehicleClass: pricing.ClassComfort,
	}
}

func TestCreate_PricesFromEstimatedDistance(t *testing.T) {
	repo, geo, pub := newMemRepo(), &stubGeo{indexed: map[types.ID]types.Point{}}, &recordingPublisher{}
	svc := newTestService(repo, geo, pub)

	r, err := svc.Create(context.Background(), testCreateCommand())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != StatusAvailable {
		t.Errorf("status = %s, want available", r.Status)
	}
	if r.DistanceKm <= 0 {
		t.Fatalf("expected positive distance, got %f", r.DistanceKm)
	}
	if want := pricing.Price(r.DistanceKm, pricing.ClassComfort); r.Price != want {
		t.Errorf("price = %v, want %v", r.Price, want)
	}
	if r.Driver.VehicleClass != pricing.ClassComfort {
		t.Errorf("driver vehicle class = %s, want comfort", r.Driver.VehicleClass)
	}
	if _, ok := geo.indexed[r.ID]; !ok {
		t.Error("expected ride pickup to be indexed")
	}
	if len(pub.keys) != 1 || pub.keys[0] != "ride.status.available" {
		t.Errorf("unexpected published keys: %v", pub.keys)
	}
}

func TestCreate_BadRequests(t *testing.T) {
	svc := newTestService(newMemRepo(), nil, &recordingPublisher{})
	ctx := context.Background()

	noDriver := testCreateCommand()
	noDriver.Driver.ID = ""
	badPickup := testCreateCommand()
	badPickup.Pickup = types.Point{Lat: 95}
	noClass := testCreateCommand()
	noClass.VehicleClass = ""
	noClass.Driver.VehicleClass = ""

	for name, cmd := range map[string]CreateCommand{"no driver": noDriver, "bad pickup": badPickup, "no class": noClass} {
		if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: expected ErrBadRequest, got %v", name, err)
		}
	}
}

func TestTransition_FlowAndEvents(t *testing.T) {
	repo, geo, pub := newMemRepo(), &stubGeo{indexed: map[types.ID]types.Point{}}, &recordingPublisher{}
	svc := newTestService(repo, geo, pub)
	ctx := context.Background()

	r, err := svc.Create(ctx, testCreateCommand())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, to := range []Status{StatusAccepted, StatusInProgress, StatusCompleted} {
		updated, err := svc.Transition(ctx, TransitionCommand{RideID: r.ID, To: to})
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if updated.Status != to {
			t.Fatalf("status = %s, want %s", updated.Status, to)
		}
	}
	if _, ok := geo.indexed[r.ID]; ok {
		t.Error("accepted ride must leave the geo index")
	}
	if len(pub.keys) != 4 || pub.keys[3] != "ride.status.completed" {
		t.Fatalf("unexpected published keys: %v", pub.keys)
	}
	var ev StatusChanged
	if err := json.Unmarshal(pub.bodies[3], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.FromStatus != StatusInProgress || ev.ToStatus != StatusCompleted || ev.RideID != r.ID {
		t.Errorf("unexpected event: %+v", ev)
	}

	if _, err := svc.Transition(ctx, TransitionCommand{RideID: r.ID, To: StatusCancelled}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState from terminal status, got %v", err)
	}
	if _, err := svc.Transition(ctx, TransitionCommand{RideID: "missing", To: StatusAccepted}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransition_PublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(newMemRepo(), nil, pub)
	ctx := context.Background()

	r, err := svc.Create(ctx, testCreateCommand())
	if err != nil {
		t.Fatalf("create must succeed without broker: %v", err)
	}
	if _, err := svc.Transition(ctx, TransitionCommand{RideID: r.ID, To: StatusCancelled}); err != nil {
		t.Fatalf("transition must succeed without broker: %v", err)
	}
}

func TestTransition_ConcurrentAcceptOnlyOneWins(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo, nil, &recordingPublisher{})
	ctx := context.Background()
	r, err := svc.Create(ctx, testCreateCommand())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 5
	errs := make(chan error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Transition(ctx, TransitionCommand{RideID: r.ID, To: StatusAccepted})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one accept to win, got %d", wins)
	}
}

type stubConsumer struct {
	bodies [][]byte
	errs   []error
}

func (c *stubConsumer) Consume(ctx context.Context, queue string, handler func(context.Context, amqp.Delivery) error) {
	for _, b := range c.bodies {
		c.errs = append(c.errs, handler(ctx, amqp.Delivery{Body: b, RoutingKey: queue}))
	}
}

func TestSubscribeStatus(t *testing.T) {
	good, _ := json.Marshal(StatusChanged{RideID: "r1", FromStatus: StatusAvailable, ToStatus: StatusAccepted})
	c := &stubConsumer{bodies: [][]byte{good, []byte("{not json")}}

	var got []StatusChanged
	SubscribeStatus(context.Background(), c, func(_ context.Context, ev StatusChanged) error {
		got = append(got, ev)
		return nil
	})

	if len(got) != 1 || got[0].RideID != "r1" || got[0].ToStatus != StatusAccepted {
		t.Fatalf("unexpected events: %+v", got)
	}
	if c.errs[0] != nil || !errors.Is(c.errs[1], infra.ErrPermanent) {
		t.Fatalf("expected malformed message to be dropped, got %v", c.errs)
	}
}
