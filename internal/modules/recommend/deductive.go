package recommend

import (
	"fmt"

	"ridematch/internal/modules/geo"
	"ridematch/internal/modules/profile"
	"ridematch/internal/modules/ride"
	"ridematch/internal/types"
)

// Deductive applies the hard eligibility rules. A ride is dropped when any
// rule fails; every failing rule is reported. A ride with invalid coordinates
// is rejected without evaluating the other rules.
func Deductive(rides []ride.Ride, prefs profile.Preferences, pickup types.Point) ([]ride.Ride, []Rejection) {
	kept := make([]ride.Ride, 0, len(rides))
	var rejected []Rejection
	for _, r := range rides {
		if reasons := rejectReasons(r, prefs, pickup); len(reasons) > 0 {
			rejected = append(rejected, Rejection{RideID: r.ID, Reasons: reasons})
			continue
		}
		kept = append(kept, r)
	}
	return kept, rejected
}

func rejectReasons(r ride.Ride, prefs profile.Preferences, pickup types.Point) []string {
	if r.Pickup.Validate() != nil || r.Dropoff.Validate() != nil {
		return []string{"invalid coordinates"}
	}
	var reasons []string
	if prefs.HasPriceLimit() && r.Price > prefs.MaxPrice {
		reasons = append(reasons, fmt.Sprintf("price %.2f above max %.2f", r.Price, prefs.MaxPrice))
	}
	if r.Driver.Rating < prefs.MinDriverRating {
		reasons = append(reasons, fmt.Sprintf("driver rating %.1f below min %.1f", r.Driver.Rating, prefs.MinDriverRating))
	}
	if len(prefs.PreferredVehicleClasses) > 0 && !prefs.Prefers(r.VehicleClass) {
		reasons = append(reasons, fmt.Sprintf("vehicle class %q not preferred", r.VehicleClass))
	}
	if prefs.SmokingAllowed != r.Driver.Cabin.SmokingAllowed {
		reasons = append(reasons, "smoking preference mismatch")
	}
	if d := geo.DistanceKm(pickup, r.Pickup); d > MaxPickupKm {
		reasons = append(reasons, fmt.Sprintf("pickup %.1f km away", d))
	}
	return reasons
}
