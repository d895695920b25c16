// README: Rider profile, preferences and ride history types.
package profile

import (
	"time"

	"ridematch/internal/types"
)

// HistoryWindow is how many of the most recent rides are loaded and scored.
const HistoryWindow = 50

// Defaults for a rider with no stored profile.
const (
	DefaultMaxPrice        = 100.0
	DefaultMinDriverRating = 3.0
	// DefaultRiderRating replaces a missing rating on a stored history entry.
	DefaultRiderRating = 4.0
)

// NoPriceLimit disables the max price rule. A MaxPrice of 0 only admits free rides.
const NoPriceLimit = -1.0

type TimeBucket string

const (
	Morning   TimeBucket = "morning"
	Afternoon TimeBucket = "afternoon"
	Evening   TimeBucket = "evening"
	Night     TimeBucket = "night"
)

// BucketOf maps a local time to its time-of-day bucket.
func BucketOf(t time.Time) TimeBucket {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 22:
		return Evening
	default:
		return Night
	}
}

type Preferences struct {
	PreferredVehicleClasses []string                `json:"preferred_vehicle_classes"`
	MaxPrice                float64                 `json:"max_price"`
	MinDriverRating         float64                 `json:"min_driver_rating"`
	SmokingAllowed          bool                    `json:"smoking_allowed"`
	ConversationStyle       types.ConversationStyle `json:"conversation_style"`
}

// HasPriceLimit reports whether MaxPrice caps the ride price.
func (p Preferences) HasPriceLimit() bool { return p.MaxPrice >= 0 }

// Prefers reports whether class is in the preferred set.
func (p Preferences) Prefers(class string) bool {
	for _, c := range p.PreferredVehicleClasses {
		if c == class {
			return true
		}
	}
	return false
}

type HistoryEntry struct {
	Pickup       types.Point  `json:"pickup"`
	Dropoff      types.Point  `json:"dropoff"`
	At           time.Time    `json:"timestamp"`
	Price        float64      `json:"price"`
	VehicleClass string       `json:"vehicle_class"`
	RiderRating  float64      `json:"rider_rating"`
	TimeOfDay    TimeBucket   `json:"time_of_day"`
	DayOfWeek    time.Weekday `json:"day_of_week"`
}

type RiderProfile struct {
	ID           types.ID       `json:"id"`
	History      []HistoryEntry `json:"ride_history"`
	Preferences  Preferences    `json:"preferences"`
	RatingsGiven []float64      `json:"ratings_given"`
}

// DefaultProfile is the profile used when a rider has none stored or it cannot be loaded.
func DefaultProfile(id types.ID) RiderProfile {
	return RiderProfile{
		ID: id,
		Preferences: Preferences{
			MaxPrice:          DefaultMaxPrice,
			MinDriverRating:   DefaultMinDriverRating,
			SmokingAllowed:    false,
			ConversationStyle: types.ConversationModerate,
		},
	}
}

// Clone returns a deep copy; the result shares no slices with p.
func (p RiderProfile) Clone() RiderProfile {
	out := p
	out.History = append([]HistoryEntry(nil), p.History...)
	out.RatingsGiven = append([]float64(nil), p.RatingsGiven...)
	out.Preferences.PreferredVehicleClasses = append([]string(nil), p.Preferences.PreferredVehicleClasses...)
	return out
}

// FeedbackMessage is the body of a ride.feedback.* event.
type FeedbackMessage struct {
	RiderID  types.ID  `json:"rider_id"`
	RideID   types.ID  `json:"ride_id"`
	Rating   float64   `json:"rating"`
	Accepted bool      `json:"accepted"`
	At       time.Time `json:"at"`
}
