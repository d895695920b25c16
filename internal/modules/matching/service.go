// README: Proximity matcher ranks rides by pickup/dropoff distance and route deviation.
package matching

import (
	"math"
	"sort"

	"ridematch/internal/modules/geo"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

// FindNearby returns rides whose pickup lies within maxKm of p, closest first.
// maxKm <= 0 uses DefaultRadiusKm.
func FindNearby(p types.Point, rides []ride.Ride, maxKm float64) []Nearby {
	if maxKm <= 0 {
		maxKm = DefaultRadiusKm
	}
	out := make([]Nearby, 0, len(rides))
	for _, r := range rides {
		d := geo.DistanceKm(p, r.Pickup)
		if d <= maxKm {
			out = append(out, Nearby{Ride: r, DistanceKm: d})
		}
	}
	geo.SortByDistance(out, func(n Nearby) float64 { return n.DistanceKm })
	return out
}

// MatchScore is a linear penalty model floored at zero.
func MatchScore(pickupDistanceKm, dropoffDistanceKm, routeDeviationKm float64) float64 {
	score := 100 - (pickupDistanceKm*pickupPenalty + dropoffDistanceKm*dropoffPenalty + routeDeviationKm*deviationPenalty)
	return math.Max(0, score)
}

// Match scores every ride against req and keeps those above MinScore,
// best first. Equal scores keep their input order.
func Match(req Request, rides []ride.Ride) []Result {
	tripKm := req.EstimatedDistanceKm
	if tripKm <= 0 {
		tripKm = geo.DistanceKm(req.Pickup, req.Dropoff)
	}

	out := make([]Result, 0, len(rides))
	for _, r := range rides {
		pickup := geo.DistanceKm(req.Pickup, r.Pickup)
		dropoff := geo.DistanceKm(req.Dropoff, r.Dropoff)
		deviation := math.Abs(tripKm - r.DistanceKm)
		score := MatchScore(pickup, dropoff, deviation)
		if score <= MinScore {
			continue
		}
		out = append(out, Result{
			Ride:              r,
			Score:             score,
			PickupDistanceKm:  pickup,
			DropoffDistanceKm: dropoff,
			RouteDeviationKm:  deviation,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
