// README: Ride store backed by PostgreSQL.
package ride

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridematch/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectRide = `
	SELECT r.id, r.driver_id, d.rating, COALESCE(d.total_rides, 0),
	       COALESCE(d.smoking_allowed, FALSE), COALESCE(d.conversation_style, 'moderate'),
	       r.pickup_lat, r.pickup_lng, r.dropoff_lat, r.dropoff_lng,
	       r.price_amount, r.currency, r.vehicle_class, r.distance_km, r.duration_min,
	       r.status, r.status_version, r.created_at
	FROM rides r
	LEFT JOIN drivers d ON d.id = r.driver_id`

// Create upserts the driver snapshot and inserts the ride in one transaction.
func (s *Store) Create(ctx context.Context, r *Ride) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO drivers (id, rating, total_rides, smoking_allowed, conversation_style)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			rating = EXCLUDED.rating,
			total_rides = EXCLUDED.total_rides,
			smoking_allowed = EXCLUDED.smoking_allowed,
			conversation_style = EXCLUDED.conversation_style`,
		string(r.Driver.ID),
		r.Driver.Rating,
		r.Driver.TotalRides,
		r.Driver.Cabin.SmokingAllowed,
		string(conversationOrDefault(r.Driver.Cabin.ConversationStyle)),
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rides (
			id, driver_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			price_amount, currency, vehicle_class, distance_km, duration_min,
			status, status_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		string(r.ID),
		string(r.Driver.ID),
		r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Lat, r.Dropoff.Lng,
		r.Price,
		r.Currency,
		r.VehicleClass,
		r.DistanceKm,
		r.DurationMin,
		string(r.Status),
		r.StatusVersion,
		r.CreatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func conversationOrDefault(c types.ConversationStyle) types.ConversationStyle {
	if c.Valid() {
		return c
	}
	return types.ConversationModerate
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, selectRide+` WHERE r.id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// GetMany returns the rides with the given ids in the order requested; unknown ids are skipped.
func (s *Store) GetMany(ctx context.Context, ids []types.ID) ([]Ride, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, selectRide+` WHERE r.id = ANY($1)`, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[types.ID]Ride, len(ids))
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		byID[r.ID] = *r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]Ride, 0, len(byID))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]Ride, error) {
	rows, err := s.db.Query(ctx, selectRide+`
		WHERE r.status = $1
		ORDER BY r.created_at DESC
		LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateStatus applies an optimistic status change; false means another writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE rides
		SET status = $1,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var rating, price sql.NullFloat64
	var style string

	err := row.Scan(
		&r.ID, &r.Driver.ID, &rating, &r.Driver.TotalRides,
		&r.Driver.Cabin.SmokingAllowed, &style,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&price, &r.Currency, &r.VehicleClass, &r.DistanceKm, &r.DurationMin,
		&r.Status, &r.StatusVersion, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Driver.Rating = DefaultDriverRating
	if rating.Valid {
		r.Driver.Rating = rating.Float64
	}
	r.Price = DefaultPrice
	if price.Valid {
		r.Price = price.Float64
	}
	r.Driver.Cabin.ConversationStyle = types.ConversationStyle(style)
	r.Driver.VehicleClass = r.VehicleClass
	return &r, nil
}
