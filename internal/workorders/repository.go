package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sunbike-erp/sunbike-erp/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for work orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, order_no, branch_id, vehicle_id, status, in_datetime, out_datetime,
	assigned_to, odometer_in, odometer_out, customer_complaint, diagnosis, work_detail,
	recommendations, warranty_until, discount_amount, subtotal_parts, subtotal_labor,
	tax_amount, total_amount, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*WorkOrder, error) {
	var o WorkOrder
	err := row.Scan(
		&o.ID, &o.OrderNo, &o.BranchID, &o.VehicleID, &o.Status, &o.InDatetime, &o.OutDatetime,
		&o.AssignedTo, &o.OdometerIn, &o.OdometerOut, &o.CustomerComplaint, &o.Diagnosis, &o.WorkDetail,
		&o.Recommendations, &o.WarrantyUntil, &o.DiscountAmount, &o.SubtotalParts, &o.SubtotalLabor,
		&o.TaxAmount, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// WithTx wraps fn in a transaction exposing the transactional port.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepositoryPort) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetOrder retrieves a work order by id.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*WorkOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetDetail retrieves a work order with its line items and payments.
func (r *Repository) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{WorkOrder: *order, Parts: []WorkPart{}, Labor: []WorkLabor{}, Payments: []PaymentLine{}}

	rows, err := r.pool.Query(ctx, `SELECT id, work_order_id, part_name, qty, unit_price, line_total
		FROM work_parts WHERE work_order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p WorkPart
		if err := rows.Scan(&p.ID, &p.WorkOrderID, &p.PartName, &p.Qty, &p.UnitPrice, &p.LineTotal); err != nil {
			return nil, err
		}
		detail.Parts = append(detail.Parts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	laborRows, err := r.pool.Query(ctx, `SELECT id, work_order_id, labor_name, minutes, price
		FROM work_labor WHERE work_order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer laborRows.Close()
	for laborRows.Next() {
		var l WorkLabor
		if err := laborRows.Scan(&l.ID, &l.WorkOrderID, &l.LaborName, &l.Minutes, &l.Price); err != nil {
			return nil, err
		}
		detail.Labor = append(detail.Labor, l)
	}
	if err := laborRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := r.pool.Query(ctx, `SELECT id, method, amount, paid_at, note, reference
		FROM payments WHERE work_order_id = $1 ORDER BY paid_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p PaymentLine
		if err := payRows.Scan(&p.ID, &p.Method, &p.Amount, &p.PaidAt, &p.Note, &p.Reference); err != nil {
			return nil, err
		}
		detail.Payments = append(detail.Payments, p)
		detail.PaymentsTotal += p.Amount
	}
	if err := payRows.Err(); err != nil {
		return nil, err
	}

	return detail, nil
}

// List returns work orders matching the request, newest intake first.
// The free-text query matches order number, plate, VIN, vehicle model and
// customer name or phone, like the intake dashboard search.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]WorkOrder, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		pattern := "%" + q + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(o.order_no ILIKE $%d OR v.plate_no ILIKE $%d OR v.vin ILIKE $%d OR v.model ILIKE $%d OR c.name ILIKE $%d OR c.phone ILIKE $%d)",
			argPos, argPos, argPos, argPos, argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	from := `FROM work_orders o
		JOIN vehicles v ON v.id = o.vehicle_id
		JOIN customers c ON c.id = v.customer_id `

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+from+whereClause, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s %s%s ORDER BY o.in_datetime DESC, o.id DESC LIMIT $%d OFFSET $%d`,
		prefixColumns("o"), from, whereClause, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []WorkOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func prefixColumns(alias string) string {
	cols := strings.Split(orderColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

type txRepo struct {
	tx pgx.Tx
}

// LastOrderNoForPrefix locks and returns the greatest issued order number
// for the day prefix, or "" when the day has none. Issued numbers are
// tracked in order_sequences, so deleting an order never frees its
// number; the surviving rows are still consulted because a writer that
// inserts an order number without the allocator leaves the counter
// behind, and the retry after its 23505 must see a higher number than
// the colliding one. The counter row lock persists until the transaction
// ends, serializing same-day allocations.
func (t *txRepo) LastOrderNoForPrefix(ctx context.Context, prefix string) (string, error) {
	if _, err := t.tx.Exec(ctx,
		`INSERT INTO order_sequences (day_prefix, last_seq) VALUES ($1, 0) ON CONFLICT (day_prefix) DO NOTHING`,
		prefix,
	); err != nil {
		return "", err
	}
	var lastSeq int
	err := t.tx.QueryRow(ctx,
		`SELECT last_seq FROM order_sequences WHERE day_prefix = $1 FOR UPDATE`,
		prefix,
	).Scan(&lastSeq)
	if err != nil {
		return "", err
	}

	// Suffixes past 999 are unpadded, so plain lexical order would put
	// "-1000" before "-999"; compare by length first.
	var rowMax string
	err = t.tx.QueryRow(ctx,
		`SELECT order_no FROM work_orders WHERE order_no LIKE $1
		 ORDER BY length(order_no) DESC, order_no DESC LIMIT 1`,
		prefix+"-%",
	).Scan(&rowMax)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	if n := parseSuffix(rowMax); n > lastSeq {
		lastSeq = n
	}

	if lastSeq == 0 {
		return "", nil
	}
	return fmt.Sprintf("%s-%03d", prefix, lastSeq), nil
}

// InsertOrder persists a new order. A uniqueness violation on order_no is
// translated to ErrOrderNoConflict so the caller can reallocate.
func (t *txRepo) InsertOrder(ctx context.Context, o *WorkOrder) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO work_orders (
			order_no, branch_id, vehicle_id, status, in_datetime, out_datetime,
			assigned_to, odometer_in, odometer_out, customer_complaint, diagnosis,
			work_detail, recommendations, warranty_until, discount_amount,
			subtotal_parts, subtotal_labor, tax_amount, total_amount, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,0,0,0,0,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		o.OrderNo, o.BranchID, o.VehicleID, o.Status, o.InDatetime, o.OutDatetime,
		o.AssignedTo, o.OdometerIn, o.OdometerOut, o.CustomerComplaint, o.Diagnosis,
		o.WorkDetail, o.Recommendations, o.WarrantyUntil, o.DiscountAmount,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrOrderNoConflict
		}
		return err
	}
	return t.recordIssuedNo(ctx, o.OrderNo)
}

// recordIssuedNo advances the per-day counter to cover the number just
// written, keeping it retired even if the order is deleted later.
func (t *txRepo) recordIssuedNo(ctx context.Context, orderNo string) error {
	idx := strings.LastIndex(orderNo, "-")
	if idx < 0 {
		return nil
	}
	seq := parseSuffix(orderNo)
	if seq == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO order_sequences (day_prefix, last_seq) VALUES ($1, $2)
		ON CONFLICT (day_prefix) DO UPDATE SET last_seq = GREATEST(order_sequences.last_seq, EXCLUDED.last_seq)`,
		orderNo[:idx], seq)
	return err
}

// GetOrderForUpdate loads the order row under an exclusive lock so
// sibling line-item writes serialize on the parent.
func (t *txRepo) GetOrderForUpdate(ctx context.Context, id int64) (*WorkOrder, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

// UpdateOrder writes the caller-settable fields present in the input.
// Aggregates and order_no are not reachable from here.
func (t *txRepo) UpdateOrder(ctx context.Context, id int64, in UpdateInput) error {
	query := "UPDATE work_orders SET updated_at = NOW()"
	var args []any
	argPos := 1

	set := func(column string, value any) {
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
		argPos++
	}
	if in.AssignedTo != nil {
		set("assigned_to", *in.AssignedTo)
	}
	if in.InDatetime != nil {
		set("in_datetime", *in.InDatetime)
	}
	if in.OutDatetime != nil {
		set("out_datetime", *in.OutDatetime)
	}
	if in.OdometerIn != nil {
		set("odometer_in", *in.OdometerIn)
	}
	if in.OdometerOut != nil {
		set("odometer_out", *in.OdometerOut)
	}
	if in.CustomerComplaint != nil {
		set("customer_complaint", *in.CustomerComplaint)
	}
	if in.Diagnosis != nil {
		set("diagnosis", *in.Diagnosis)
	}
	if in.WorkDetail != nil {
		set("work_detail", *in.WorkDetail)
	}
	if in.Recommendations != nil {
		set("recommendations", *in.Recommendations)
	}
	if in.WarrantyUntil != nil {
		set("warranty_until", *in.WarrantyUntil)
	}
	if in.DiscountAmount != nil {
		set("discount_amount", *in.DiscountAmount)
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE work_orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM work_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertPart(ctx context.Context, p *WorkPart) error {
	return t.tx.QueryRow(ctx, `INSERT INTO work_parts (work_order_id, part_name, qty, unit_price, line_total)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		p.WorkOrderID, p.PartName, p.Qty, p.UnitPrice, p.LineTotal,
	).Scan(&p.ID)
}

func (t *txRepo) GetPart(ctx context.Context, orderID, partID int64) (*WorkPart, error) {
	var p WorkPart
	err := t.tx.QueryRow(ctx, `SELECT id, work_order_id, part_name, qty, unit_price, line_total
		FROM work_parts WHERE id = $1 AND work_order_id = $2`, partID, orderID,
	).Scan(&p.ID, &p.WorkOrderID, &p.PartName, &p.Qty, &p.UnitPrice, &p.LineTotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *txRepo) UpdatePart(ctx context.Context, p *WorkPart) error {
	tag, err := t.tx.Exec(ctx, `UPDATE work_parts SET part_name = $1, qty = $2, unit_price = $3, line_total = $4
		WHERE id = $5 AND work_order_id = $6`,
		p.PartName, p.Qty, p.UnitPrice, p.LineTotal, p.ID, p.WorkOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeletePart(ctx context.Context, orderID, partID int64) (*WorkPart, error) {
	var p WorkPart
	err := t.tx.QueryRow(ctx, `DELETE FROM work_parts WHERE id = $1 AND work_order_id = $2
		RETURNING id, work_order_id, part_name, qty, unit_price, line_total`, partID, orderID,
	).Scan(&p.ID, &p.WorkOrderID, &p.PartName, &p.Qty, &p.UnitPrice, &p.LineTotal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *txRepo) InsertLabor(ctx context.Context, l *WorkLabor) error {
	return t.tx.QueryRow(ctx, `INSERT INTO work_labor (work_order_id, labor_name, minutes, price)
		VALUES ($1,$2,$3,$4) RETURNING id`,
		l.WorkOrderID, l.LaborName, l.Minutes, l.Price,
	).Scan(&l.ID)
}

func (t *txRepo) GetLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error) {
	var l WorkLabor
	err := t.tx.QueryRow(ctx, `SELECT id, work_order_id, labor_name, minutes, price
		FROM work_labor WHERE id = $1 AND work_order_id = $2`, laborID, orderID,
	).Scan(&l.ID, &l.WorkOrderID, &l.LaborName, &l.Minutes, &l.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *txRepo) UpdateLabor(ctx context.Context, l *WorkLabor) error {
	tag, err := t.tx.Exec(ctx, `UPDATE work_labor SET labor_name = $1, minutes = $2, price = $3
		WHERE id = $4 AND work_order_id = $5`,
		l.LaborName, l.Minutes, l.Price, l.ID, l.WorkOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteLabor(ctx context.Context, orderID, laborID int64) (*WorkLabor, error) {
	var l WorkLabor
	err := t.tx.QueryRow(ctx, `DELETE FROM work_labor WHERE id = $1 AND work_order_id = $2
		RETURNING id, work_order_id, labor_name, minutes, price`, laborID, orderID,
	).Scan(&l.ID, &l.WorkOrderID, &l.LaborName, &l.Minutes, &l.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (t *txRepo) SumParts(ctx context.Context, orderID int64) (int64, error) {
	var total int64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(line_total), 0) FROM work_parts WHERE work_order_id = $1`, orderID).Scan(&total)
	return total, err
}

func (t *txRepo) SumLabor(ctx context.Context, orderID int64) (int64, error) {
	var total int64
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(price), 0) FROM work_labor WHERE work_order_id = $1`, orderID).Scan(&total)
	return total, err
}

// SaveTotals overwrites exactly the four aggregate fields.
func (t *txRepo) SaveTotals(ctx context.Context, orderID int64, totals Totals) error {
	tag, err := t.tx.Exec(ctx, `UPDATE work_orders
		SET subtotal_parts = $1, subtotal_labor = $2, tax_amount = $3, total_amount = $4, updated_at = NOW()
		WHERE id = $5`,
		totals.SubtotalParts, totals.SubtotalLabor, totals.TaxAmount, totals.TotalAmount, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
