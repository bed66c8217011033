package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-events/backend/internal/models"
)

// ErrBranchNotFound is returned when no matching branch row exists.
var ErrBranchNotFound = errors.New("branch not found")

// Repository handles branch persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a branches repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all branches ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, code, created_at FROM branches ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Branch
	for rows.Next() {
		var b models.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Code, &b.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// GetByID returns a branch by ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Branch, error) {
	var b models.Branch
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, code, created_at FROM branches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Code, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a branch.
func (r *Repository) Create(ctx context.Context, b *models.Branch) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO branches (name, code) VALUES ($1, $2) RETURNING id, created_at`,
		b.Name, b.Code).Scan(&b.ID, &b.CreatedAt)
}
