package recommend

import (
	"math"
	"time"

	"ridematch/internal/modules/geo"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

// InductiveScores holds the normalized sub-scores of the pattern scorer.
// DriverCompatibility is on a 0-100 scale, the others on [0,1].
type InductiveScores struct {
	Route               float64
	TimeOfDay           float64
	Price               float64
	DriverCompatibility float64
	Proximity           float64
}

// Total is the weighted sum clamped to [0,100].
func (s InductiveScores) Total() float64 {
	sum := s.Route*routeWeight +
		s.TimeOfDay*timeWeight +
		s.Price*priceWeight +
		s.DriverCompatibility*driverWeight +
		s.Proximity*proximityWeight
	return clamp(sum, 0, 100)
}

// Inductive scores r against patterns in history, which must be sorted
// newest first.
func Inductive(r ride.Ride, history []profile.HistoryEntry, prefs profile.Preferences, pickup types.Point, at time.Time) InductiveScores {
	return InductiveScores{
		Route:               routeSimilarity(r, history),
		TimeOfDay:           timePreference(r, history, profile.BucketOf(at)),
		Price:               priceSensitivity(r.Price, history),
		DriverCompatibility: driverCompatibility(r.Driver, prefs),
		Proximity:           proximityPreference(r, history, pickup),
	}
}

func routeSimilarity(r ride.Ride, history []profile.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	var matches int
	var ratingSum float64
	for _, e := range history {
		if geo.DistanceKm(e.Pickup, r.Pickup) <= routeMatchKm && geo.DistanceKm(e.Dropoff, r.Dropoff) <= routeMatchKm {
			matches++
			ratingSum += e.RiderRating
		}
	}
	if matches == 0 {
		return 0
	}
	fraction := float64(matches) / float64(len(history))
	return fraction * (ratingSum / float64(matches) / 5)
}

func timePreference(r ride.Ride, history []profile.HistoryEntry, bucket profile.TimeBucket) float64 {
	var n int
	var ratingSum float64
	for _, e := range history {
		if e.TimeOfDay == bucket && e.VehicleClass == r.VehicleClass {
			n++
			ratingSum += e.RiderRating
		}
	}
	if n == 0 {
		return 0.5
	}
	return ratingSum / float64(n) / 5
}

func priceSensitivity(price float64, history []profile.HistoryEntry) float64 {
	if len(history) == 0 {
		return 0.5
	}
	avg := averagePrice(history)
	if avg == 0 {
		if price == 0 {
			return 1
		}
		return 0
	}
	return math.Max(0, 1-math.Abs(price-avg)/avg)
}

// driverCompatibility returns a 0-100 value, unlike the other sub-scores.
// TODO: confirm whether it should be divided by 100 before weighting.
func driverCompatibility(d ride.Driver, prefs profile.Preferences) float64 {
	style := 0.15
	if d.Cabin.ConversationStyle == prefs.ConversationStyle {
		style = 0.3
	}
	score := 0.4*(d.Rating/5) + 0.3*math.Min(1, float64(d.TotalRides)/100) + style
	return score * 100
}

func proximityPreference(r ride.Ride, history []profile.HistoryEntry, pickup types.Point) float64 {
	d := geo.DistanceKm(pickup, r.Pickup)
	if len(history) == 0 {
		return math.Max(0, 1-d/proximityScaleKm)
	}
	var sum float64
	for _, e := range history {
		sum += geo.DistanceKm(pickup, e.Pickup)
	}
	avg := sum / float64(len(history))
	return math.Max(0, 1-math.Abs(d-avg)/proximityScaleKm)
}

func averagePrice(history []profile.HistoryEntry) float64 {
	var sum float64
	for _, e := range history {
		sum += e.Price
	}
	return sum / float64(len(history))
}

// clamp bounds v to [lo,hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
