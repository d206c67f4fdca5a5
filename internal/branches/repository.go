package branches

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for branches.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a new branch.
func (r *Repository) Create(ctx context.Context, in BranchInput) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `INSERT INTO branches (name, phone, address, created_at)
		VALUES ($1, $2, $3, NOW()) RETURNING id, name, phone, address, created_at`,
		in.Name, in.Phone, in.Address,
	).Scan(&b.ID, &b.Name, &b.Phone, &b.Address, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get retrieves a branch by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `SELECT id, name, phone, address, created_at FROM branches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Phone, &b.Address, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all branches ordered by name.
func (r *Repository) List(ctx context.Context) ([]Branch, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, phone, address, created_at FROM branches ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Phone, &b.Address, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Update rewrites the branch fields.
func (r *Repository) Update(ctx context.Context, id int64, in BranchInput) (*Branch, error) {
	var b Branch
	err := r.pool.QueryRow(ctx, `UPDATE branches SET name = $1, phone = $2, address = $3
		WHERE id = $4 RETURNING id, name, phone, address, created_at`,
		in.Name, in.Phone, in.Address, id,
	).Scan(&b.ID, &b.Name, &b.Phone, &b.Address, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Delete removes a branch. The work_orders foreign key is RESTRICT, so a
// branch with orders is reported as protected and left untouched.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrProtected
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
