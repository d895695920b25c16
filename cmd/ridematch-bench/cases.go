// README: Benchmark cases; schema, ride lifecycle, ranking and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridematch/internal/infra"
	"ridematch/internal/modules/pathfind"
	"ridematch/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

var (
	benchPickup  = types.Point{Lat: 25.0330, Lng: 121.5654}
	benchDropoff = types.Point{Lat: 25.0478, Lng: 121.5170}
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// rideID is the ride created by the lifecycle cases.
	rideID string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Schema: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				if err := infra.Migrate(ctx, r.db); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Schema: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				for _, table := range []string{"drivers", "rides", "rider_profiles", "rider_history"} {
					var exists bool
					err := r.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, "public."+table).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table " + table}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				res, _ := r.call(ctx, http.MethodGet, base+"/health", nil, http.StatusOK)
				return res
			},
		},
		{
			Name: "API: route estimate",
			Run: func(ctx context.Context, r *Runner) Result {
				var out struct {
					Source string `json:"source"`
					Route  struct {
						DistanceKm float64 `json:"distance_km"`
					} `json:"route"`
				}
				res, body := r.call(ctx, http.MethodPost, base+"/api/routes/estimate",
					map[string]any{"from": benchPickup, "to": benchDropoff}, http.StatusOK)
				if res.Status != statusPass {
					return res
				}
				if err := json.Unmarshal(body, &out); err != nil || out.Route.DistanceKm <= 0 {
					return Result{Status: statusFail, Latency: res.Latency, Note: "no distance in response"}
				}
				res.Note = fmt.Sprintf("source=%s km=%.2f", out.Source, out.Route.DistanceKm)
				return res
			},
		},
		{
			Name: "Ride: create",
			Run: func(ctx context.Context, r *Runner) Result {
				res, body := r.call(ctx, http.MethodPost, base+"/api/rides", newRidePayload(), http.StatusCreated)
				if res.Status != statusPass {
					return res
				}
				var out struct {
					ID string `json:"id"`
				}
				if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
					return Result{Status: statusFail, Latency: res.Latency, Note: "missing ride id"}
				}
				r.rideID = out.ID
				return res
			},
		},
		{
			Name: "Ride: nearby lists new ride",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.rideID == "" {
					return Result{Status: statusSkip, Note: "no ride created"}
				}
				url := fmt.Sprintf("%s/api/rides/nearby?lat=%f&lng=%f", base, benchPickup.Lat, benchPickup.Lng)
				res, body := r.call(ctx, http.MethodGet, url, nil, http.StatusOK)
				if res.Status != statusPass {
					return res
				}
				if !bytes.Contains(body, []byte(r.rideID)) {
					return Result{Status: statusFail, Latency: res.Latency, Note: "ride not in nearby list"}
				}
				return res
			},
		},
		{
			Name: "Rider: recommendations",
			Run: func(ctx context.Context, r *Runner) Result {
				res, body := r.call(ctx, http.MethodPost, base+"/api/riders/bench-rider/recommendations", recommendPayload(), http.StatusOK)
				if res.Status != statusPass {
					return res
				}
				var out struct {
					Strategy string            `json:"strategy"`
					Results  []json.RawMessage `json:"results"`
				}
				if err := json.Unmarshal(body, &out); err != nil {
					return Result{Status: statusFail, Latency: res.Latency, Note: err.Error()}
				}
				res.Note = fmt.Sprintf("strategy=%s results=%d", out.Strategy, len(out.Results))
				return res
			},
		},
		{
			Name: "Concurrency: only one accept wins",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.rideID == "" {
					return Result{Status: statusSkip, Note: "no ride created"}
				}
				return concurrentAccept(ctx, r, base+"/api/rides/"+r.rideID+"/status")
			},
		},
		{
			Name: "Rider: feedback",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.rideID == "" {
					return Result{Status: statusSkip, Note: "no ride created"}
				}
				payload := map[string]any{"ride_id": r.rideID, "rating": 5, "accepted": true}
				res, _ := r.call(ctx, http.MethodPost, base+"/api/riders/bench-rider/feedback", payload, http.StatusOK, http.StatusAccepted)
				return res
			},
		},
		{
			Name: "Perf: recommendations load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/riders/bench-rider/recommendations", recommendPayload())
			},
		},
		{
			Name: "Perf: fallback pathfinder (local)",
			Run: func(ctx context.Context, r *Runner) Result {
				return pathfinderLoad(r.cfg.Duration)
			},
		},
	}
}

func newRidePayload() map[string]any {
	return map[string]any{
		"driver": map[string]any{
			"id":          fmt.Sprintf("bench-driver-%d", time.Now().UnixNano()),
			"rating":      4.8,
			"total_rides": 120,
			"cabin_preferences": map[string]any{
				"smoking_allowed":    false,
				"conversation_style": "moderate",
			},
		},
		"pickup":        benchPickup,
		"dropoff":       benchDropoff,
		"vehicle_class": "economy",
	}
}

func recommendPayload() map[string]any {
	return map[string]any{"pickup": benchPickup, "destination": benchDropoff}
}

// call performs one JSON request and passes when the status is one of want.
func (r *Runner) call(ctx context.Context, method, url string, payload any, want ...int) (Result, []byte) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.httpc.Do(req)
	latency := time.Since(start)
	if err != nil {
		return Result{Status: statusFail, Latency: latency, Note: err.Error()}, nil
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if contains(want, resp.StatusCode) {
		return Result{Status: statusPass, Latency: latency}, respBody
	}
	return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}, respBody
}

func concurrentAccept(ctx context.Context, r *Runner, url string) Result {
	b, _ := json.Marshal(map[string]string{"status": "accepted"})
	var wg sync.WaitGroup
	var mu sync.Mutex
	succ, conflicts := 0, 0

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			mu.Lock()
			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				succ++
			case resp.StatusCode == http.StatusConflict:
				conflicts++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflicts=%d", succ, conflicts)
	if succ == 1 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				mu.Lock()
				if err != nil || resp.StatusCode >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

// pathfinderLoad runs FindPath on random nearby pairs for d and reports throughput.
func pathfinderLoad(d time.Duration) Result {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	end := time.Now().Add(d)
	var n, degenerate int
	var worst time.Duration
	for time.Now().Before(end) {
		from := types.Point{Lat: benchPickup.Lat + rng.Float64()*0.1, Lng: benchPickup.Lng + rng.Float64()*0.1}
		to := types.Point{Lat: benchDropoff.Lat + rng.Float64()*0.1, Lng: benchDropoff.Lng + rng.Float64()*0.1}
		start := time.Now()
		res, err := pathfind.FindPath(from, to)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if el := time.Since(start); el > worst {
			worst = el
		}
		degenerate += res.Degenerate
		n++
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("ops/s=%.0f worst=%s degenerate=%d/%d", float64(n)/d.Seconds(), worst, degenerate, n)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}
