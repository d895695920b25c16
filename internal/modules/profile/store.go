// README: Rider profile store backed by PostgreSQL.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridematch/internal/types"
)

var ErrNotFound = errors.New("profile not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Get loads the profile with its HistoryWindow most recent rides, newest first.
func (s *Store) Get(ctx context.Context, id types.ID) (*RiderProfile, error) {
	var prefsRaw, ratingsRaw []byte
	err := s.db.QueryRow(ctx, `
		SELECT preferences, ratings_given
		FROM rider_profiles
		WHERE id = $1`, string(id)).Scan(&prefsRaw, &ratingsRaw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p := DefaultProfile(id)
	if err := json.Unmarshal(prefsRaw, &p.Preferences); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if len(ratingsRaw) > 0 {
		if err := json.Unmarshal(ratingsRaw, &p.RatingsGiven); err != nil {
			return nil, fmt.Errorf("decode ratings: %w", err)
		}
	}

	rows, err := s.db.Query(ctx, `
		SELECT pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, ride_at,
		       price, vehicle_class, rider_rating, time_of_day, day_of_week
		FROM rider_history
		WHERE rider_id = $1
		ORDER BY ride_at DESC
		LIMIT $2`, string(id), HistoryWindow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e HistoryEntry
		var price, rating sql.NullFloat64
		var bucket string
		var day int16
		if err := rows.Scan(
			&e.Pickup.Lat, &e.Pickup.Lng, &e.Dropoff.Lat, &e.Dropoff.Lng, &e.At,
			&price, &e.VehicleClass, &rating, &bucket, &day,
		); err != nil {
			return nil, err
		}
		e.RiderRating = DefaultRiderRating
		if rating.Valid {
			e.RiderRating = rating.Float64
		}
		if price.Valid {
			e.Price = price.Float64
		}
		e.TimeOfDay = TimeBucket(bucket)
		e.DayOfWeek = time.Weekday(day)
		p.History = append(p.History, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutPreferences creates the profile row or replaces its preferences.
func (s *Store) PutPreferences(ctx context.Context, id types.ID, prefs Preferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rider_profiles (id, preferences)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			preferences = EXCLUDED.preferences,
			updated_at = NOW()`, string(id), raw)
	return err
}

// SaveFeedback persists a learned profile: preferences and ratings are
// replaced, entry is appended to the rider's history.
func (s *Store) SaveFeedback(ctx context.Context, p RiderProfile, entry HistoryEntry) error {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return err
	}
	ratings, err := json.Marshal(p.RatingsGiven)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO rider_profiles (id, preferences, ratings_given)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			preferences = EXCLUDED.preferences,
			ratings_given = EXCLUDED.ratings_given,
			updated_at = NOW()`, string(p.ID), prefs, ratings)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rider_history (
			rider_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, ride_at,
			price, vehicle_class, rider_rating, time_of_day, day_of_week
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(p.ID),
		entry.Pickup.Lat, entry.Pickup.Lng,
		entry.Dropoff.Lat, entry.Dropoff.Lng,
		entry.At,
		entry.Price,
		entry.VehicleClass,
		entry.RiderRating,
		string(entry.TimeOfDay),
		int16(entry.DayOfWeek),
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PeerIDs lists other riders, most recently active first.
func (s *Store) PeerIDs(ctx context.Context, exclude types.ID, limit int) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM rider_profiles
		WHERE id <> $1
		ORDER BY updated_at DESC
		LIMIT $2`, string(exclude), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, types.ID(id))
	}
	return ids, rows.Err()
}
