// README: TripQuoter combines a route estimate with fares for each vehicle class.
package service

import (
	"context"

	"ridematch/internal/modules/pricing"
	"ridematch/internal/modules/routing"
	"ridematch/internal/types"
)

type RouteEstimator interface {
	Estimate(ctx context.Context, from, to types.Point, waypoints ...types.Point) (routing.Estimate, error)
}

type Pricer interface {
	Quote(ctx context.Context, distanceKm float64, vehicleClass string) (types.Money, error)
}

type TripQuoter struct {
	routes  RouteEstimator
	pricing Pricer
}

func NewTripQuoter(routes RouteEstimator, pricing Pricer) *TripQuoter {
	return &TripQuoter{routes: routes, pricing: pricing}
}

type Fare struct {
	VehicleClass string      `json:"vehicle_class"`
	Price        types.Money `json:"price"`
}

type TripQuote struct {
	Route      routing.Route  `json:"route"`
	Source     routing.Source `json:"source"`
	Degenerate int            `json:"degenerate_segments"`
	Fares      []Fare         `json:"fares"`
}

// Quote estimates the journey and prices it for classes, or for every
// known class when none are given.
func (q *TripQuoter) Quote(ctx context.Context, from, to types.Point, waypoints []types.Point, classes ...string) (TripQuote, error) {
	est, err := q.routes.Estimate(ctx, from, to, waypoints...)
	if err != nil {
		return TripQuote{}, err
	}
	if len(classes) == 0 {
		classes = []string{pricing.ClassEconomy, pricing.ClassComfort, pricing.ClassPremium}
	}
	out := TripQuote{Route: est.Route, Source: est.Source, Degenerate: est.Degenerate, Fares: make([]Fare, 0, len(classes))}
	for _, c := range classes {
		m, err := q.pricing.Quote(ctx, est.DistanceKm, c)
		if err != nil {
			return TripQuote{}, err
		}
		out.Fares = append(out.Fares, Fare{VehicleClass: c, Price: m})
	}
	return out, nil
}
