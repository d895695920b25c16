// README: Five-stage recommendation pipeline (deductive, inductive, content, collaborative, hybrid).
package recommend

import (
	"math"
	"sort"
	"time"

	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
)

// Recommend ranks rides for the rider described by p. It never fails: sparse
// or malformed data falls back to neutral scores, and an empty result means
// nothing passed the deductive filter. Equal scores keep input order.
func Recommend(rides []ride.Ride, p profile.RiderProfile, req Request, peers []profile.RiderProfile) []Result {
	results, _ := recommend(rides, p, req, peers)
	return results
}

func recommend(rides []ride.Ride, p profile.RiderProfile, req Request, peers []profile.RiderProfile) ([]Result, []Rejection) {
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	history := recentHistory(p.History)

	candidates := make([]ride.Ride, len(rides))
	for i, r := range rides {
		candidates[i] = sanitize(r)
	}
	kept, rejected := Deductive(candidates, p.Preferences, req.Pickup)

	similar := similarPeers(p, peers)
	results := make([]Result, 0, len(kept))
	for _, r := range kept {
		b := Breakdown{
			Inductive:     Inductive(r, history, p.Preferences, req.Pickup, at).Total(),
			ContentBased:  ContentBased(r, p, history),
			Collaborative: collaborativeScore(r, similar),
		}
		final := Hybrid(b.Inductive, b.ContentBased, b.Collaborative)
		results = append(results, Result{
			Ride:      r,
			Score:     final,
			Reasoning: reasoning(b, final),
			Breakdown: b,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results, rejected
}

// recentHistory returns at most HistoryWindow entries, newest first,
// without reordering the caller's slice. Entries with invalid coordinates
// are skipped.
func recentHistory(h []profile.HistoryEntry) []profile.HistoryEntry {
	out := make([]profile.HistoryEntry, 0, len(h))
	for _, e := range h {
		if e.Pickup.Validate() != nil || e.Dropoff.Validate() != nil {
			continue
		}
		out = append(out, sanitizeEntry(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > profile.HistoryWindow {
		out = out[:profile.HistoryWindow]
	}
	return out
}

// sanitize replaces missing or impossible values so one bad record
// cannot poison the scores.
func sanitize(r ride.Ride) ride.Ride {
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price < 0 {
		r.Price = ride.DefaultPrice
	}
	if math.IsNaN(r.Driver.Rating) || r.Driver.Rating < 0 || r.Driver.Rating > 5 {
		r.Driver.Rating = ride.DefaultDriverRating
	}
	if r.Driver.TotalRides < 0 {
		r.Driver.TotalRides = 0
	}
	if r.VehicleClass == "" {
		r.VehicleClass = r.Driver.VehicleClass
	}
	return r
}

func sanitizeEntry(e profile.HistoryEntry) profile.HistoryEntry {
	if math.IsNaN(e.Price) || math.IsInf(e.Price, 0) || e.Price < 0 {
		e.Price = ride.DefaultPrice
	}
	if math.IsNaN(e.RiderRating) || e.RiderRating < 1 || e.RiderRating > 5 {
		e.RiderRating = profile.DefaultRiderRating
	}
	if e.TimeOfDay == "" && !e.At.IsZero() {
		e.TimeOfDay = profile.BucketOf(e.At)
	}
	return e
}
