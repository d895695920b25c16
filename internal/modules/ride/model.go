// README: Ride aggregate, driver snapshot and status definitions.
package ride

import (
	"time"

	"ridematch/internal/types"
)

type Status string

const (
	StatusNone       Status = "none"
	StatusAvailable  Status = "available"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Defaults applied when a stored record is missing a value.
const (
	DefaultDriverRating = 4.0
	DefaultPrice        = 0.0
)

type CabinPreferences struct {
	SmokingAllowed    bool                    `json:"smoking_allowed"`
	ConversationStyle types.ConversationStyle `json:"conversation_style"`
}

type Driver struct {
	ID           types.ID         `json:"id"`
	Rating       float64          `json:"rating"`
	TotalRides   int              `json:"total_rides"`
	VehicleClass string           `json:"vehicle_class"`
	Cabin        CabinPreferences `json:"cabin_preferences"`
}

type Ride struct {
	ID            types.ID    `json:"id"`
	Driver        Driver      `json:"driver"`
	Pickup        types.Point `json:"pickup"`
	Dropoff       types.Point `json:"dropoff"`
	Price         float64     `json:"price_amount"`
	Currency      string      `json:"currency"`
	VehicleClass  string      `json:"vehicle_class"`
	DistanceKm    float64     `json:"distance_km"`
	DurationMin   float64     `json:"duration_min"`
	Status        Status      `json:"status"`
	StatusVersion int         `json:"status_version"`
	CreatedAt     time.Time   `json:"created_at"`
}

// StatusChanged is published whenever a ride moves between statuses.
type StatusChanged struct {
	RideID     types.ID  `json:"ride_id"`
	DriverID   types.ID  `json:"driver_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	At         time.Time `json:"at"`
}

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusAvailable:  {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}
