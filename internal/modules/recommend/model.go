// README: Recommendation request/result types and stage weights.
package recommend

import (
	"time"

	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

// NeutralScore is returned by a stage that has no data to judge by.
const NeutralScore = 50.0

// MaxPickupKm is the farthest a ride's pickup may be from the rider.
const MaxPickupKm = 5.0

// Hybrid weights.
const (
	inductiveWeight     = 0.4
	contentWeight       = 0.35
	collaborativeWeight = 0.25
)

// Inductive sub-score weights.
const (
	routeWeight     = 30.0
	timeWeight      = 20.0
	priceWeight     = 15.0
	driverWeight    = 25.0
	proximityWeight = 10.0

	// routeMatchKm is how close past pickups/dropoffs must be to count as the same route.
	routeMatchKm = 1.0
	// proximityScaleKm turns a pickup distance gap into a [0,1] penalty.
	proximityScaleKm = 5.0
)

// Content-based weights.
const (
	contentVehicleWeight  = 0.3
	contentPriceWeight    = 0.25
	contentDistanceWeight = 0.2
	contentRatingWeight   = 0.25
)

// Collaborative filter limits.
const (
	maxSimilarPeers     = 10
	similarityThreshold = 0.5
	peerPriceTolerance  = 0.2
	peerGoodRating      = 4.0
)

// Request is the trip a rider is looking for. At selects the time-of-day
// bucket; zero means now.
type Request struct {
	Pickup      types.Point `json:"pickup"`
	Destination types.Point `json:"destination"`
	At          time.Time   `json:"at,omitempty"`
}

type Breakdown struct {
	Inductive     float64 `json:"inductive"`
	ContentBased  float64 `json:"content_based"`
	Collaborative float64 `json:"collaborative"`
}

type Result struct {
	Ride      ride.Ride `json:"ride"`
	Score     float64   `json:"score"`
	Reasoning []string  `json:"reasoning"`
	Breakdown Breakdown `json:"breakdown"`
}

// Rejection explains why the deductive filter dropped a ride.
type Rejection struct {
	RideID  types.ID `json:"ride_id"`
	Reasons []string `json:"reasons"`
}
