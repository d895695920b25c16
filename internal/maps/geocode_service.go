package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"ridematch/internal/types"
)

var ErrNoGeocodeResult = errors.New("no geocoding result")

// Place represents a simplified geocoding result.
type Place struct {
	Address  string      `json:"address"`
	PlaceID  string      `json:"place_id"`
	Location types.Point `json:"location"`
}

// GeocodeService resolves addresses to coordinates and back.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// Geocode returns the candidate places for a free-text address, best match first.
func (s *GeocodeService) Geocode(ctx context.Context, address string) ([]Place, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("maps geocode error: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoGeocodeResult
	}
	return toPlaces(results), nil
}

// Reverse returns the addresses known for a coordinate, most specific first.
func (s *GeocodeService) Reverse(ctx context.Context, p types.Point) ([]Place, error) {
	results, err := s.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: p.Lat, Lng: p.Lng},
	})
	if err != nil {
		return nil, fmt.Errorf("maps reverse geocode error: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoGeocodeResult
	}
	return toPlaces(results), nil
}

func toPlaces(results []maps.GeocodingResult) []Place {
	out := make([]Place, len(results))
	for i, r := range results {
		out[i] = Place{
			Address:  r.FormattedAddress,
			PlaceID:  r.PlaceID,
			Location: types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		}
	}
	return out
}
