// README: Redis GEO index of available ride pickups.
package matching

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ridematch/internal/types"
)

const rideGeoKey = "matching:rides"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) IndexRide(ctx context.Context, id types.ID, pickup types.Point) error {
	return s.redis.GeoAdd(ctx, rideGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pickup.Lng,
		Latitude:  pickup.Lat,
	}).Err()
}

func (s *Store) RemoveRide(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, rideGeoKey, string(id)).Err()
}

// NearbyRideIDs returns ids of indexed pickups within radiusKm of p, nearest first.
func (s *Store) NearbyRideIDs(ctx context.Context, p types.Point, radiusKm float64, limit int) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, rideGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
		Count:      limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
