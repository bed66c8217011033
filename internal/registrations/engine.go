package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campus-events/backend/internal/models"
)

// Engine decides registration statuses under event capacity and reallocates
// freed slots to the waitlist. Every mutation runs in a single transaction
// that first locks the event row, so concurrent capacity decisions for the
// same event are serialized: two racing registrations can never both observe
// a free slot.
type Engine struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewEngine creates a registration engine.
func NewEngine(pool *pgxpool.Pool, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{pool: pool, logger: logger}
}

// lockEvent takes the per-event row lock and returns capacity and
// registrability. Every capacity-affecting path starts here, which also fixes
// the lock order (event row before registration rows).
func lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) (maxSlots int, registrable bool, err error) {
	var status models.EventStatus
	var published bool
	err = tx.QueryRow(ctx,
		`SELECT max_slots, status, published FROM events WHERE id = $1 FOR UPDATE`, eventID).
		Scan(&maxSlots, &status, &published)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, ErrEventNotFound
		}
		return 0, false, err
	}
	return maxSlots, published && status == models.EventActive, nil
}

func confirmedCount(ctx context.Context, tx pgx.Tx, eventID int64) (int, error) {
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status = 'CONFIRMED'`, eventID).Scan(&n)
	return n, err
}

// decideStatus picks the initial status for a new registration given the
// confirmed count observed under the event lock.
func decideStatus(confirmed, maxSlots int) models.RegStatus {
	if confirmed < maxSlots {
		return models.RegConfirmed
	}
	return models.RegWaitlisted
}

// Register creates a registration for the user, CONFIRMED while confirmed
// slots remain and WAITLISTED once the event is full.
func (e *Engine) Register(ctx context.Context, userID, eventID int64) (*models.Registration, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	maxSlots, registrable, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if !registrable {
		return nil, ErrRegistrationClosed
	}

	var exists int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2 AND status <> 'CANCELLED'`,
		eventID, userID).Scan(&exists)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	confirmed, err := confirmedCount(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	status := decideStatus(confirmed, maxSlots)

	reg, err := scanRegistration(tx.QueryRow(ctx,
		`INSERT INTO registrations (user_id, event_id, status) VALUES ($1, $2, $3)
		 RETURNING `+regColumns,
		userID, eventID, string(status)))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("registration created",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.String("status", string(reg.Status)))
	return reg, nil
}

// Cancel sets the registration to CANCELLED. The actor must own the
// registration or be an admin. When a CONFIRMED registration is cancelled the
// freed slot goes to the earliest WAITLISTED registration in the same
// transaction, so no concurrent registration can steal it.
func (e *Engine) Cancel(ctx context.Context, regID, eventID, actorID int64, actorIsAdmin bool) (*models.Registration, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// The event_id never changes on a registration, so it is safe to read it
	// before taking the event lock.
	var regEventID int64
	err = tx.QueryRow(ctx, `SELECT event_id FROM registrations WHERE id = $1`, regID).Scan(&regEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if regEventID != eventID {
		return nil, ErrRegistrationNotFound
	}

	if _, _, err := lockEvent(ctx, tx, regEventID); err != nil {
		return nil, err
	}

	reg, err := scanRegistration(tx.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, regID))
	if err != nil {
		return nil, err
	}
	if reg.Status == models.RegCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !actorIsAdmin && reg.UserID != actorID {
		return nil, ErrNotOwner
	}

	prior := reg.Status
	cancelled, err := scanRegistration(tx.QueryRow(ctx,
		`UPDATE registrations SET status = 'CANCELLED', updated_at = NOW() WHERE id = $1
		 RETURNING `+regColumns, regID))
	if err != nil {
		return nil, err
	}

	if prior == models.RegConfirmed {
		promoted, err := promoteNext(ctx, tx, regEventID)
		if err != nil {
			return nil, err
		}
		if promoted != nil {
			e.logger.Info("waitlist promotion",
				zap.Int64("registration_id", promoted.ID),
				zap.Int64("event_id", regEventID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return cancelled, nil
}

// UpdateStatus applies an admin status change, validated against the
// transition table. Transitions into CONFIRMED re-check capacity; a
// CONFIRMED -> CANCELLED change triggers the same waitlist promotion as
// Cancel.
func (e *Engine) UpdateStatus(ctx context.Context, regID int64, newStatus models.RegStatus) (*models.Registration, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var regEventID int64
	err = tx.QueryRow(ctx, `SELECT event_id FROM registrations WHERE id = $1`, regID).Scan(&regEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	maxSlots, _, err := lockEvent(ctx, tx, regEventID)
	if err != nil {
		return nil, err
	}

	reg, err := scanRegistration(tx.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, regID))
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(reg.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, reg.Status, newStatus)
	}

	if newStatus == models.RegConfirmed {
		confirmed, err := confirmedCount(ctx, tx, regEventID)
		if err != nil {
			return nil, err
		}
		if confirmed >= maxSlots {
			return nil, ErrEventFull
		}
	}

	prior := reg.Status
	updated, err := scanRegistration(tx.QueryRow(ctx,
		`UPDATE registrations SET status = $1, updated_at = NOW() WHERE id = $2
		 RETURNING `+regColumns, string(newStatus), regID))
	if err != nil {
		return nil, err
	}

	if prior == models.RegConfirmed && newStatus == models.RegCancelled {
		promoted, err := promoteNext(ctx, tx, regEventID)
		if err != nil {
			return nil, err
		}
		if promoted != nil {
			e.logger.Info("waitlist promotion",
				zap.Int64("registration_id", promoted.ID),
				zap.Int64("event_id", regEventID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// promoteNext confirms the earliest WAITLISTED registration for the event, if
// any. Strict FIFO: registered_at ascending, id as tiebreak. Runs inside the
// caller's transaction, after the event row lock is held.
func promoteNext(ctx context.Context, tx pgx.Tx, eventID int64) (*models.Registration, error) {
	reg, err := scanRegistration(tx.QueryRow(ctx,
		`UPDATE registrations SET status = 'CONFIRMED', updated_at = NOW()
		 WHERE id = (
			SELECT id FROM registrations
			WHERE event_id = $1 AND status = 'WAITLISTED'
			ORDER BY registered_at ASC, id ASC
			LIMIT 1
		 )
		 RETURNING `+regColumns, eventID))
	if err != nil {
		if errors.Is(err, ErrRegistrationNotFound) {
			return nil, nil // empty waitlist
		}
		return nil, err
	}
	return reg, nil
}
