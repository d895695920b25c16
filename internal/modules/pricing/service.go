// README: Pricing service computes fare estimates.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ridematch/internal/types"
)

var ErrNegativeDistance = errors.New("negative distance")

// RateFor returns the rate applied to vehicleClass. Unknown classes get the default per-km rate.
func RateFor(vehicleClass string) Rate {
	perKm, ok := perKmRates[vehicleClass]
	if !ok {
		perKm = defaultPerKm
	}
	return Rate{VehicleClass: vehicleClass, BaseFare: BaseFare, PerKm: perKm}
}

// Price is baseFare + distanceKm * perKm, rounded to cents.
func Price(distanceKm float64, vehicleClass string) float64 {
	r := RateFor(vehicleClass)
	return types.RoundCents(r.BaseFare + distanceKm*r.PerKm)
}

type Service struct {
	currency string
}

func NewService(currency string) *Service {
	if currency == "" {
		currency = "USD"
	}
	return &Service{currency: currency}
}

// Quote prices a ride, rejecting negative or non-finite distances.
func (s *Service) Quote(_ context.Context, distanceKm float64, vehicleClass string) (types.Money, error) {
	if distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return types.Money{}, fmt.Errorf("%w: %f", ErrNegativeDistance, distanceKm)
	}
	return types.Money{Amount: Price(distanceKm, vehicleClass), Currency: s.currency}, nil
}
