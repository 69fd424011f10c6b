package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// VehicleRepo implements VehicleRepository using PostgreSQL.
type VehicleRepo struct{ db *DB }

// NewVehicleRepo constructs a vehicle repository.
func NewVehicleRepo(db *DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleCols = `id, client_id, make, model, year, license_plate, mileage, created_at`

func scanVehicle(row rowScanner) (*model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.ClientID, &v.Make, &v.Model, &v.Year, &v.LicensePlate, &v.Mileage, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepo) list(ctx context.Context, q string, args ...any) ([]model.Vehicle, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *v)
	}
	return out, mapErr(rows.Err())
}

// List returns all vehicles.
func (r *VehicleRepo) List(ctx context.Context) ([]model.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleCols+` FROM vehicles ORDER BY make, model`)
}

// ListByClient returns the client's vehicles.
func (r *VehicleRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]model.Vehicle, error) {
	return r.list(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE client_id=$1 ORDER BY make, model`, clientID)
}

// GetByID selects a vehicle by ID.
func (r *VehicleRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	v, err := scanVehicle(r.db.Pool.QueryRow(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return v, nil
}

// Create inserts a vehicle row.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	const q = `
INSERT INTO vehicles (id, client_id, make, model, year, license_plate, mileage)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + vehicleCols
	created, err := scanVehicle(r.db.Pool.QueryRow(ctx, q,
		v.ID, v.ClientID, v.Make, v.Model, v.Year, v.LicensePlate, v.Mileage))
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// Update rewrites the vehicle's mutable fields.
func (r *VehicleRepo) Update(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	const q = `
UPDATE vehicles SET make=$2, model=$3, year=$4, license_plate=$5, mileage=$6
WHERE id=$1
RETURNING ` + vehicleCols
	updated, err := scanVehicle(r.db.Pool.QueryRow(ctx, q,
		v.ID, v.Make, v.Model, v.Year, v.LicensePlate, v.Mileage))
	if err != nil {
		return nil, mapErr(err)
	}
	return updated, nil
}

// Delete removes the vehicle.
func (r *VehicleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
