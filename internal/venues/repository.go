package venues

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/backend/internal/models"
)

var (
	// ErrVenueNotFound is returned when no matching venue row exists.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrVenueInUse is returned when a capacity shrink would drop below the
	// max slots of an event held at the venue.
	ErrVenueInUse = errors.New("venue capacity below max slots of an existing event")
)

// Repository handles venue persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a venues repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all venues ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Venue, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Venue
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// GetByID returns a venue by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	var v models.Venue
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, location, capacity, created_at, updated_at FROM venues WHERE id = $1`, id).
		Scan(&v.ID, &v.Name, &v.Location, &v.Capacity, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a venue.
func (r *Repository) Create(ctx context.Context, v *models.Venue) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO venues (name, location, capacity) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		v.Name, v.Location, v.Capacity).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
}

// Update changes venue fields. Shrinking capacity below the max_slots of any
// event at the venue is rejected, keeping Event.MaxSlots <= Venue.Capacity.
func (r *Repository) Update(ctx context.Context, v *models.Venue) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var maxSlots int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(max_slots), 0) FROM events
		 WHERE venue_id = $1 AND status NOT IN ('completed', 'cancelled')`, v.ID).Scan(&maxSlots)
	if err != nil {
		return err
	}
	if v.Capacity < maxSlots {
		return ErrVenueInUse
	}

	err = tx.QueryRow(ctx,
		`UPDATE venues SET name = $1, location = $2, capacity = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING updated_at`,
		v.Name, v.Location, v.Capacity, v.ID).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVenueNotFound
		}
		return err
	}
	return tx.Commit(ctx)
}
