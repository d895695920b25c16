// README: Proximity matching request/result types and scoring constants.
package matching

import (
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

const (
	// DefaultRadiusKm bounds FindNearby when the caller passes no radius.
	DefaultRadiusKm = 5.0
	// MinScore is the exclusive lower bound for a match to be returned.
	MinScore = 30.0

	pickupPenalty    = 10.0
	dropoffPenalty   = 5.0
	deviationPenalty = 3.0
)

// Request describes the trip a rider wants to take.
type Request struct {
	Pickup  types.Point `json:"pickup"`
	Dropoff types.Point `json:"dropoff"`
	// EstimatedDistanceKm is the rider's own trip length. Zero means
	// "use the straight-line distance between Pickup and Dropoff".
	EstimatedDistanceKm float64 `json:"estimated_distance_km,omitempty"`
}

// Nearby is a ride together with the straight-line distance to its pickup.
type Nearby struct {
	Ride       ride.Ride `json:"ride"`
	DistanceKm float64   `json:"distance_km"`
}

type Result struct {
	Ride              ride.Ride `json:"ride"`
	Score             float64   `json:"score"`
	PickupDistanceKm  float64   `json:"pickup_distance_km"`
	DropoffDistanceKm float64   `json:"dropoff_distance_km"`
	RouteDeviationKm  float64   `json:"route_deviation_km"`
}
