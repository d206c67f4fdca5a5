package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `id, name, phone, email, address, memo, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Memo, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create persists a new customer.
func (r *Repository) Create(ctx context.Context, in CustomerInput) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO customers (name, phone, email, address, memo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING `+customerColumns,
		in.Name, in.Phone, in.Email, in.Address, in.Memo)
	return scanCustomer(row)
}

// Get retrieves a customer by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	return scanCustomer(row)
}

// List returns customers matching the request; the free-text query
// matches name and phone substrings.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	whereClause := ""
	var args []any
	argPos := 1
	if q := strings.TrimSpace(req.Query); q != "" {
		whereClause = fmt.Sprintf("WHERE (name ILIKE $%d OR phone ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+q+"%")
		argPos++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := req.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		customerColumns, whereClause, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Memo, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update rewrites the customer fields.
func (r *Repository) Update(ctx context.Context, id int64, in CustomerInput) (*Customer, error) {
	row := r.pool.QueryRow(ctx, `UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, memo = $5, updated_at = NOW()
		WHERE id = $6 RETURNING `+customerColumns,
		in.Name, in.Phone, in.Email, in.Address, in.Memo, id)
	return scanCustomer(row)
}

// Delete removes a customer. Vehicles cascade with it; a vehicle that
// still has work orders blocks the whole delete via its RESTRICT key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
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
