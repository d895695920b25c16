// README: Route cache backed by Redis.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ridematch/internal/types"
)

const routeKeyPrefix = "routing:route:"

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisCache(redis *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{redis: redis, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Route, bool, error) {
	val, err := c.redis.Get(ctx, routeKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var r Route
	if err := json.Unmarshal(val, &r); err != nil {
		return nil, false, fmt.Errorf("decoding cached route: %w", err)
	}
	return &r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r Route) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, routeKeyPrefix+key, body, c.ttl).Err()
}

// JourneyKey identifies a journey rounded to 5 decimal places (~1m).
func JourneyKey(stops ...types.Point) string {
	parts := make([]string, len(stops))
	for i, p := range stops {
		parts[i] = fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
	}
	return strings.Join(parts, ";")
}
