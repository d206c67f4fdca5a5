package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for vehicles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const vehicleColumns = `id, customer_id, plate_no, vin, make, model, year, displacement_cc, color, drive_type, notes, created_at`

func scanVehicle(row pgx.Row) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.CustomerID, &v.PlateNo, &v.VIN, &v.Make, &v.Model,
		&v.Year, &v.DisplacementCC, &v.Color, &v.DriveType, &v.Notes, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create persists a new vehicle. An unknown customer id trips the
// foreign key and is reported as invalid input.
func (r *Repository) Create(ctx context.Context, in VehicleInput) (*Vehicle, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO vehicles
		(customer_id, plate_no, vin, make, model, year, displacement_cc, color, drive_type, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW()) RETURNING `+vehicleColumns,
		in.CustomerID, in.PlateNo, in.VIN, in.Make, in.Model, in.Year, in.DisplacementCC, in.Color, in.DriveType, in.Notes)
	v, err := scanVehicle(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: customer %d does not exist", ErrInvalidInput, in.CustomerID)
		}
		return nil, err
	}
	return v, nil
}

// Get retrieves a vehicle by id.
func (r *Repository) Get(ctx context.Context, id int64) (*Vehicle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

// List returns vehicles matching the request; the free-text query
// matches plate, VIN and model substrings.
func (r *Repository) List(ctx context.Context, req ListRequest) ([]Vehicle, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if req.CustomerID > 0 {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, req.CustomerID)
		argPos++
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("(plate_no ILIKE $%d OR vin ILIKE $%d OR model ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+q+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM vehicles "+whereClause, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM vehicles %s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		vehicleColumns, whereClause, argPos, argPos+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.CustomerID, &v.PlateNo, &v.VIN, &v.Make, &v.Model,
			&v.Year, &v.DisplacementCC, &v.Color, &v.DriveType, &v.Notes, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

// Update rewrites the vehicle fields.
func (r *Repository) Update(ctx context.Context, id int64, in VehicleInput) (*Vehicle, error) {
	row := r.pool.QueryRow(ctx, `UPDATE vehicles SET customer_id = $1, plate_no = $2, vin = $3, make = $4,
		model = $5, year = $6, displacement_cc = $7, color = $8, drive_type = $9, notes = $10
		WHERE id = $11 RETURNING `+vehicleColumns,
		in.CustomerID, in.PlateNo, in.VIN, in.Make, in.Model, in.Year, in.DisplacementCC, in.Color, in.DriveType, in.Notes, id)
	v, err := scanVehicle(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: customer %d does not exist", ErrInvalidInput, in.CustomerID)
		}
		return nil, err
	}
	return v, nil
}

// Delete removes a vehicle. The work_orders foreign key is RESTRICT, so
// a vehicle with orders is reported as protected and left untouched.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
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
