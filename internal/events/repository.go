package events

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/backend/internal/models"
)

var (
	// ErrEventNotFound is returned when no matching event row exists.
	ErrEventNotFound = errors.New("event not found")
	// ErrVenueNotFound is returned when the referenced venue does not exist.
	ErrVenueNotFound = errors.New("venue not found")
	// ErrInvalidWindow is returned when starts_at is not before ends_at.
	ErrInvalidWindow = errors.New("event start must be before end")
	// ErrVenueTooSmall is returned when max_slots exceeds venue capacity.
	ErrVenueTooSmall = errors.New("max slots exceed venue capacity")
	// ErrEventLocked is returned for structural edits once the event is
	// published or has confirmed registrations.
	ErrEventLocked = errors.New("event is published or has confirmed registrations; structural edits rejected")
	// ErrEventNotDeletable is returned when deleting a non-draft event or one
	// with registrations.
	ErrEventNotDeletable = errors.New("only draft events without registrations can be deleted")
	// ErrLifecycle is returned for an illegal event status change.
	ErrLifecycle = errors.New("illegal event status change")
)

const eventColumns = `id, name, description, starts_at, ends_at, max_slots, status, published, venue_id, fee_cents, poster_key, created_by, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt, &e.MaxSlots,
		&e.Status, &e.Published, &e.VenueID, &e.FeeCents, &e.PosterKey, &e.CreatedBy,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event after validating the time window and venue
// capacity. New events start as unpublished drafts.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	if !e.StartsAt.Before(e.EndsAt) {
		return ErrInvalidWindow
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var capacity int
	if err := tx.QueryRow(ctx, `SELECT capacity FROM venues WHERE id = $1`, e.VenueID).Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVenueNotFound
		}
		return err
	}
	if e.MaxSlots > capacity {
		return ErrVenueTooSmall
	}

	const q = `INSERT INTO events (name, description, starts_at, ends_at, max_slots, venue_id, fee_cents, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + eventColumns
	created, err := scanEvent(tx.QueryRow(ctx, q,
		e.Name, e.Description, e.StartsAt, e.EndsAt, e.MaxSlots, e.VenueID, e.FeeCents, e.CreatedBy))
	if err != nil {
		return err
	}
	*e = *created
	return tx.Commit(ctx)
}

// GetByID returns an event by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// ListFilter narrows List results.
type ListFilter struct {
	Status        *models.EventStatus
	PublishedOnly bool
	UpcomingOnly  bool
}

// List returns events matching the filter, soonest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []interface{}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		q += ` AND status = $1`
	}
	if f.PublishedOnly {
		q += ` AND published`
	}
	if f.UpcomingOnly {
		q += ` AND starts_at > NOW()`
	}
	q += ` ORDER BY starts_at ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}

// UpdateParams holds event fields to change; nil means keep the current value.
// StartsAt, EndsAt, MaxSlots and VenueID are structural: once the event is
// published or has confirmed registrations they may no longer change.
type UpdateParams struct {
	Name        *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	MaxSlots    *int
	VenueID     *int64
	FeeCents    *int
}

func (p UpdateParams) structural() bool {
	return p.StartsAt != nil || p.EndsAt != nil || p.MaxSlots != nil || p.VenueID != nil
}

// Update applies params to an event inside one transaction, enforcing the
// structural-edit lock, the time window and the venue capacity invariant.
func (r *Repository) Update(ctx context.Context, id int64, p UpdateParams) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cur, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if p.structural() {
		var confirmed int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'CONFIRMED'`, id).Scan(&confirmed)
		if err != nil {
			return nil, err
		}
		if cur.Published || confirmed > 0 {
			return nil, ErrEventLocked
		}
	}

	next := *cur
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.StartsAt != nil {
		next.StartsAt = *p.StartsAt
	}
	if p.EndsAt != nil {
		next.EndsAt = *p.EndsAt
	}
	if p.MaxSlots != nil {
		next.MaxSlots = *p.MaxSlots
	}
	if p.VenueID != nil {
		next.VenueID = *p.VenueID
	}
	if p.FeeCents != nil {
		next.FeeCents = *p.FeeCents
	}

	if !next.StartsAt.Before(next.EndsAt) {
		return nil, ErrInvalidWindow
	}
	var capacity int
	if err := tx.QueryRow(ctx, `SELECT capacity FROM venues WHERE id = $1`, next.VenueID).Scan(&capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	if next.MaxSlots > capacity {
		return nil, ErrVenueTooSmall
	}

	const q = `UPDATE events SET name = $1, description = $2, starts_at = $3, ends_at = $4,
		max_slots = $5, venue_id = $6, fee_cents = $7, updated_at = NOW()
		WHERE id = $8 RETURNING ` + eventColumns
	updated, err := scanEvent(tx.QueryRow(ctx, q,
		next.Name, next.Description, next.StartsAt, next.EndsAt, next.MaxSlots, next.VenueID, next.FeeCents, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Publish marks the event published and moves drafts to active.
func (r *Repository) Publish(ctx context.Context, id int64) (*models.Event, error) {
	const q = `UPDATE events SET published = TRUE,
		status = CASE WHEN status = 'draft' THEN 'active' ELSE status END,
		updated_at = NOW()
		WHERE id = $1 RETURNING ` + eventColumns
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

// SetStatus changes the event lifecycle status. Completed and cancelled are
// terminal; the only legal moves are draft->active, draft->cancelled,
// active->completed and active->cancelled.
func (r *Repository) SetStatus(ctx context.Context, id int64, status models.EventStatus) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cur, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if !legalLifecycle(cur.Status, status) {
		return nil, ErrLifecycle
	}

	updated, err := scanEvent(tx.QueryRow(ctx,
		`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+eventColumns,
		string(status), id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func legalLifecycle(from, to models.EventStatus) bool {
	switch from {
	case models.EventDraft:
		return to == models.EventActive || to == models.EventCancelled
	case models.EventActive:
		return to == models.EventCompleted || to == models.EventCancelled
	}
	return false
}

// Delete removes a draft event with no registrations. Anything else must be
// cancelled instead.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cur, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return err
	}
	var regs int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, id).Scan(&regs); err != nil {
		return err
	}
	if cur.Status != models.EventDraft || cur.Published || regs > 0 {
		return ErrEventNotDeletable
	}
	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetPosterKey stores the S3 object key of the event poster.
func (r *Repository) SetPosterKey(ctx context.Context, id int64, key string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET poster_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

// CompleteEnded moves active events whose end time has passed to completed.
// Used by the background sweeper; returns the number of events moved.
func (r *Repository) CompleteEnded(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = 'completed', updated_at = NOW()
		 WHERE status = 'active' AND ends_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
