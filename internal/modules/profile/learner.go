// README: Profile learner folds one ride outcome into a rider profile.
package profile

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ridematch/internal/modules/ride"
)

var ErrInvalidRating = errors.New("rider rating must be within [1,5]")

// ApplyFeedback returns p with one history entry appended for r. When the
// ride was accepted and rated 4 or more, its vehicle class joins the
// preferred set. p is never modified.
func ApplyFeedback(p RiderProfile, r ride.Ride, rating float64, accepted bool, at time.Time) (RiderProfile, error) {
	if math.IsNaN(rating) || rating < 1 || rating > 5 {
		return RiderProfile{}, fmt.Errorf("%w: %v", ErrInvalidRating, rating)
	}

	out := p.Clone()
	out.History = append(out.History, HistoryEntry{
		Pickup:       r.Pickup,
		Dropoff:      r.Dropoff,
		At:           at,
		Price:        r.Price,
		VehicleClass: r.VehicleClass,
		RiderRating:  rating,
		TimeOfDay:    BucketOf(at),
		DayOfWeek:    at.Weekday(),
	})
	out.RatingsGiven = append(out.RatingsGiven, rating)

	if accepted && rating >= 4 && r.VehicleClass != "" && !out.Preferences.Prefers(r.VehicleClass) {
		out.Preferences.PreferredVehicleClasses = append(out.Preferences.PreferredVehicleClasses, r.VehicleClass)
	}
	return out, nil
}
