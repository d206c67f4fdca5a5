package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const paymentColumns = `id, work_order_id, method, amount, paid_at, note, reference, created_at`

// Create inserts a payment row. An unknown work order id trips the
// foreign key and is reported as ErrOrderNotFound.
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO payments
		(work_order_id, method, amount, paid_at, note, reference, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id, created_at`,
		p.WorkOrderID, p.Method, p.Amount, p.PaidAt, p.Note, p.Reference)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: work order %d", ErrOrderNotFound, p.WorkOrderID)
		}
		return err
	}
	return nil
}

// ListByOrder returns the payments for a work order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE work_order_id = $1 ORDER BY paid_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.WorkOrderID, &p.Method, &p.Amount,
			&p.PaidAt, &p.Note, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get retrieves a payment scoped to its work order.
func (r *Repository) Get(ctx context.Context, orderID, paymentID int64) (*Payment, error) {
	var p Payment
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE id = $1 AND work_order_id = $2`, paymentID, orderID)
	err := row.Scan(&p.ID, &p.WorkOrderID, &p.Method, &p.Amount,
		&p.PaidAt, &p.Note, &p.Reference, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a payment scoped to its work order.
func (r *Repository) Delete(ctx context.Context, orderID, paymentID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id = $1 AND work_order_id = $2`, paymentID, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
