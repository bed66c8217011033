package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/backend/internal/models"
)

// ErrUserNotFound is returned when no matching user row exists.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, student_id, username, email, password_hash, phone, role, branch_id, grad_year, is_active, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.StudentID, &u.Username, &u.Email, &u.Password, &u.Phone, &u.Role,
		&u.BranchID, &u.GradYear, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByLogin returns a user by username or email.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, login))
}

// CreateUserParams holds the fields for signup.
type CreateUserParams struct {
	StudentID    string
	Username     string
	Email        string
	PasswordHash string
	Phone        string
	Role         models.Role
	BranchID     *int64
	GradYear     int
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, p CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (student_id, username, email, password_hash, phone, role, branch_id, grad_year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q,
		p.StudentID, p.Username, p.Email, p.PasswordHash, p.Phone, string(p.Role), p.BranchID, p.GradYear))
}

// UpdateProfile updates mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, phone string, branchID *int64, gradYear int) (*models.User, error) {
	const q = `UPDATE users SET phone = $1, branch_id = $2, grad_year = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, phone, branchID, gradYear, id))
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Deactivate soft-deactivates a user. Users are never hard-deleted.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all users for admin views.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_id, username, email, phone, role, branch_id, grad_year, created_at
		 FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.StudentID, &u.Username, &u.Email, &u.Phone, &u.Role,
			&u.BranchID, &u.GradYear, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
