package registrations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/backend/internal/models"
)

// Sentinel errors for the registration engine and repository.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationClosed   = errors.New("event is not open for registration")
	ErrAlreadyRegistered    = errors.New("user already has an active registration for this event")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyCancelled     = errors.New("registration is already cancelled")
	ErrNotOwner             = errors.New("registration belongs to another user")
	ErrEventFull            = errors.New("event has no confirmed slots left")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

const regColumns = `id, user_id, event_id, status, registered_at, updated_at`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt, &reg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

// Repository handles the read side of registrations; mutations go through the
// Engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1`, id))
}

// ListByEvent returns all registrations for an event, oldest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE event_id = $1 ORDER BY registered_at, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByUser returns all registrations for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE user_id = $1 ORDER BY registered_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]models.Registration, error) {
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// StatsByEvent returns the per-status registration counts for an event,
// zero-filled for statuses with no rows. Fails with ErrEventNotFound when the
// event does not exist.
func (r *Repository) StatsByEvent(ctx context.Context, eventID int64) (*models.RegistrationStats, error) {
	var exists int
	if err := r.pool.QueryRow(ctx, `SELECT 1 FROM events WHERE id = $1`, eventID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM registrations WHERE event_id = $1 GROUP BY status`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.RegistrationStats{EventID: eventID}
	for rows.Next() {
		var status models.RegStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Add(status, count)
	}
	return stats, rows.Err()
}
