package routing

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"ridematch/internal/modules/geo"
	"ridematch/internal/types"
)

type stubProvider struct {
	routes []Route
	err    error
	calls  int
}

func (s *stubProvider) Routes(_ context.Context, _, _ types.Point) ([]Route, error) {
	s.calls++
	return s.routes, s.err
}

type memCache struct {
	m map[string]Route
}

func (c *memCache) Get(_ context.Context, key string) (*Route, bool, error) {
	r, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *memCache) Set(_ context.Context, key string, r Route) error {
	c.m[key] = r
	return nil
}

var (
	from = types.Point{Lat: 25.0340, Lng: 121.5645}
	to   = types.Point{Lat: 25.0478, Lng: 121.5170}
)

func TestShortest(t *testing.T) {
	if _, ok := Shortest(nil); ok {
		t.Fatal("expected no route from empty list")
	}
	r, _ := Shortest([]Route{{DistanceKm: 7}, {DistanceKm: 5.5}, {DistanceKm: 6}})
	if r.DistanceKm != 5.5 {
		t.Errorf("Shortest() = %v, want 5.5", r.DistanceKm)
	}
}

func TestEstimate_ProviderPicksShortestAndCaches(t *testing.T) {
	p := &stubProvider{routes: []Route{
		{DistanceKm: 7.2, DurationMin: 15},
		{DistanceKm: 6.1, DurationMin: 18},
	}}
	cache := &memCache{m: map[string]Route{}}
	e := NewEstimator(p, cache, nil)

	est, err := e.Estimate(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Source != SourceProvider || est.DistanceKm != 6.1 {
		t.Fatalf("expected provider route 6.1km, got %+v", est)
	}

	est, err = e.Estimate(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Source != SourceCache || est.DistanceKm != 6.1 {
		t.Fatalf("expected cached route, got %+v", est)
	}
	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}
}

func TestEstimate_ProviderFailureFallsBack(t *testing.T) {
	e := NewEstimator(&stubProvider{err: errors.New("unreachable")}, nil, nil)
	est, err := e.Estimate(context.Background(), from, to)
	if err != nil {
		t.Fatalf("provider failure must not surface, got %v", err)
	}
	if est.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", est.Source)
	}
	if len(est.Path) == 0 || est.DistanceKm < geo.DistanceKm(from, to)-0.2 {
		t.Errorf("unexpected fallback estimate: %+v", est)
	}
}

func TestEstimate_EmptyProviderAnswerFallsBack(t *testing.T) {
	e := NewEstimator(&stubProvider{}, nil, nil)
	est, err := e.Estimate(context.Background(), from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Source != SourceFallback {
		t.Fatalf("expected fallback source, got %s", est.Source)
	}
}

func TestEstimate_NoProvider(t *testing.T) {
	e := NewEstimator(nil, nil, nil)
	est, err := e.Estimate(context.Background(), from, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.Source != SourceFallback || est.DistanceKm != 0 {
		t.Fatalf("expected zero-length fallback, got %+v", est)
	}
}

func TestEstimate_InvalidCoordinate(t *testing.T) {
	e := NewEstimator(nil, nil, nil)
	_, err := e.Estimate(context.Background(), types.Point{Lat: 100}, to)
	if !errors.Is(err, types.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestEstimate_WaypointsJoinLegs(t *testing.T) {
	p := &stubProvider{routes: []Route{{
		Path:       []types.Point{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}},
		DistanceKm: 3, DurationMin: 4,
	}}}
	e := NewEstimator(p, nil, nil)
	est, err := e.Estimate(context.Background(), from, to, types.Point{Lat: 25.04, Lng: 121.54})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 2 {
		t.Fatalf("expected one provider call per leg, got %d", p.calls)
	}
	if est.DistanceKm != 6 || est.DurationMin != 8 {
		t.Errorf("expected summed legs, got %+v", est)
	}
}

func TestRedisCache_RoundTrip(t *testing.T) {
	redisAddr := os.Getenv("RIDEMATCH_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("RIDEMATCH_REDIS_ADDR not set; skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	c := NewRedisCache(rdb, time.Minute)
	ctx := context.Background()
	key := JourneyKey(from, to) + time.Now().Format(time.RFC3339Nano)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, key, Route{DistanceKm: 4.2}); err != nil {
		t.Fatalf("set: %v", err)
	}
	r, ok, err := c.Get(ctx, key)
	if err != nil || !ok || r.DistanceKm != 4.2 {
		t.Fatalf("expected cached 4.2km, got %+v ok=%v err=%v", r, ok, err)
	}
}

func TestJourneyKey(t *testing.T) {
	got := JourneyKey(types.Point{Lat: 1.123456, Lng: 2}, types.Point{Lat: -3, Lng: 4.5})
	if got != "1.12346,2.00000;-3.00000,4.50000" {
		t.Errorf("JourneyKey() = %q", got)
	}
}
