package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"ridematch/internal/modules/routing"
	"ridematch/internal/types"
)

// RouteService handles interactions with the Google Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Routes returns every driving alternative between two coordinates.
func (s *RouteService) Routes(ctx context.Context, from, to types.Point) ([]routing.Route, error) {
	r := &maps.DirectionsRequest{
		Origin:       from.String(),
		Destination:  to.String(),
		Mode:         maps.TravelModeDriving,
		Alternatives: true,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 {
		return nil, routing.ErrNoRoute
	}

	out := make([]routing.Route, 0, len(routes))
	for _, rt := range routes {
		out = append(out, convertRoute(rt))
	}
	return out, nil
}

func convertRoute(rt maps.Route) routing.Route {
	var meters int
	var dur time.Duration
	var steps []string
	for _, leg := range rt.Legs {
		meters += leg.Distance.Meters
		dur += leg.Duration
		for _, st := range leg.Steps {
			if st.HTMLInstructions != "" {
				steps = append(steps, st.HTMLInstructions)
			}
		}
	}

	var path []types.Point
	if decoded, err := rt.OverviewPolyline.Decode(); err == nil {
		path = make([]types.Point, len(decoded))
		for i, ll := range decoded {
			path[i] = types.Point{Lat: ll.Lat, Lng: ll.Lng}
		}
	}

	return routing.Route{
		Path:         path,
		DistanceKm:   float64(meters) / 1000,
		DurationMin:  dur.Minutes(),
		Instructions: steps,
	}
}
