// README: Idempotent schema setup for rides, drivers and rider profiles.
package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		id                 TEXT PRIMARY KEY,
		rating             DOUBLE PRECISION,
		total_rides        INTEGER NOT NULL DEFAULT 0,
		smoking_allowed    BOOLEAN NOT NULL DEFAULT FALSE,
		conversation_style TEXT NOT NULL DEFAULT 'moderate'
	)`,
	`CREATE TABLE IF NOT EXISTS rides (
		id             TEXT PRIMARY KEY,
		driver_id      TEXT NOT NULL,
		pickup_lat     DOUBLE PRECISION NOT NULL,
		pickup_lng     DOUBLE PRECISION NOT NULL,
		dropoff_lat    DOUBLE PRECISION NOT NULL,
		dropoff_lng    DOUBLE PRECISION NOT NULL,
		price_amount   DOUBLE PRECISION,
		currency       TEXT NOT NULL DEFAULT 'USD',
		vehicle_class  TEXT NOT NULL,
		distance_km    DOUBLE PRECISION NOT NULL DEFAULT 0,
		duration_min   DOUBLE PRECISION NOT NULL DEFAULT 0,
		status         TEXT NOT NULL,
		status_version INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS rides_status_created_idx ON rides (status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS rider_profiles (
		id            TEXT PRIMARY KEY,
		preferences   JSONB NOT NULL,
		ratings_given JSONB NOT NULL DEFAULT '[]',
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS rider_history (
		id            BIGSERIAL PRIMARY KEY,
		rider_id      TEXT NOT NULL REFERENCES rider_profiles (id),
		pickup_lat    DOUBLE PRECISION NOT NULL,
		pickup_lng    DOUBLE PRECISION NOT NULL,
		dropoff_lat   DOUBLE PRECISION NOT NULL,
		dropoff_lng   DOUBLE PRECISION NOT NULL,
		ride_at       TIMESTAMPTZ NOT NULL,
		price         DOUBLE PRECISION,
		vehicle_class TEXT NOT NULL,
		rider_rating  DOUBLE PRECISION,
		time_of_day   TEXT NOT NULL,
		day_of_week   SMALLINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS rider_history_rider_idx ON rider_history (rider_id, ride_at DESC)`,
}

// Migrate applies every schema statement; each is safe to re-run.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
