package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// RepairRepo implements RepairRepository using PostgreSQL.
type RepairRepo struct{ db *DB }

// NewRepairRepo constructs a repair repository.
func NewRepairRepo(db *DB) *RepairRepo { return &RepairRepo{db: db} }

const repairCols = `id, vehicle_id, service_id, date, description, total_cost, mileage_at_service, created_at`

func scanRepair(row rowScanner) (*model.Repair, error) {
	var rec model.Repair
	err := row.Scan(&rec.ID, &rec.VehicleID, &rec.ServiceID, &rec.Date, &rec.Description,
		&rec.TotalCost, &rec.MileageAtService, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RepairRepo) list(ctx context.Context, q string, args ...any) ([]model.Repair, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Repair
	for rows.Next() {
		rec, err := scanRepair(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *rec)
	}
	return out, mapErr(rows.Err())
}

// List returns all repairs, newest first.
func (r *RepairRepo) List(ctx context.Context) ([]model.Repair, error) {
	return r.list(ctx, `SELECT `+repairCols+` FROM repairs ORDER BY date DESC`)
}

// ListByVehicle returns the vehicle's repair history, newest first.
func (r *RepairRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Repair, error) {
	return r.list(ctx, `SELECT `+repairCols+` FROM repairs WHERE vehicle_id=$1 ORDER BY date DESC`, vehicleID)
}

// GetByID selects a repair by ID.
func (r *RepairRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Repair, error) {
	rec, err := scanRepair(r.db.Pool.QueryRow(ctx, `SELECT `+repairCols+` FROM repairs WHERE id=$1`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return rec, nil
}

// Create inserts a repair row.
func (r *RepairRepo) Create(ctx context.Context, rec *model.Repair) (*model.Repair, error) {
	const q = `
INSERT INTO repairs (id, vehicle_id, service_id, date, description, total_cost, mileage_at_service)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + repairCols
	created, err := scanRepair(r.db.Pool.QueryRow(ctx, q,
		rec.ID, rec.VehicleID, rec.ServiceID, rec.Date, rec.Description, rec.TotalCost, rec.MileageAtService))
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// Update rewrites the repair's mutable fields.
func (r *RepairRepo) Update(ctx context.Context, rec *model.Repair) (*model.Repair, error) {
	const q = `
UPDATE repairs SET service_id=$2, date=$3, description=$4, total_cost=$5, mileage_at_service=$6
WHERE id=$1
RETURNING ` + repairCols
	updated, err := scanRepair(r.db.Pool.QueryRow(ctx, q,
		rec.ID, rec.ServiceID, rec.Date, rec.Description, rec.TotalCost, rec.MileageAtService))
	if err != nil {
		return nil, mapErr(err)
	}
	return updated, nil
}

// Delete removes the repair.
func (r *RepairRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM repairs WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListParts returns the parts consumed by a repair.
func (r *RepairRepo) ListParts(ctx context.Context, repairID uuid.UUID) ([]model.RepairPart, error) {
	const q = `SELECT id, repair_id, part_id, quantity, price FROM repair_parts WHERE repair_id=$1`
	rows, err := r.db.Pool.Query(ctx, q, repairID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.RepairPart
	for rows.Next() {
		var p model.RepairPart
		if err := rows.Scan(&p.ID, &p.RepairID, &p.PartID, &p.Quantity, &p.Price); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

// AddPart attaches a consumed part to a repair.
func (r *RepairRepo) AddPart(ctx context.Context, p *model.RepairPart) (*model.RepairPart, error) {
	const q = `
INSERT INTO repair_parts (id, repair_id, part_id, quantity, price)
VALUES ($1,$2,$3,$4,$5)
RETURNING id, repair_id, part_id, quantity, price`
	var created model.RepairPart
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.RepairID, p.PartID, p.Quantity, p.Price).
		Scan(&created.ID, &created.RepairID, &created.PartID, &created.Quantity, &created.Price)
	if err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

// RemovePart detaches a consumed part.
func (r *RepairRepo) RemovePart(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM repair_parts WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListServices returns extra labor lines on a repair.
func (r *RepairRepo) ListServices(ctx context.Context, repairID uuid.UUID) ([]model.RepairService, error) {
	const q = `SELECT id, repair_id, service_id, price FROM repair_services WHERE repair_id=$1`
	rows, err := r.db.Pool.Query(ctx, q, repairID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.RepairService
	for rows.Next() {
		var s model.RepairService
		if err := rows.Scan(&s.ID, &s.RepairID, &s.ServiceID, &s.Price); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

// AddService attaches a labor line to a repair.
func (r *RepairRepo) AddService(ctx context.Context, s *model.RepairService) (*model.RepairService, error) {
	const q = `
INSERT INTO repair_services (id, repair_id, service_id, price)
VALUES ($1,$2,$3,$4)
RETURNING id, repair_id, service_id, price`
	var created model.RepairService
	err := r.db.Pool.QueryRow(ctx, q, s.ID, s.RepairID, s.ServiceID, s.Price).
		Scan(&created.ID, &created.RepairID, &created.ServiceID, &created.Price)
	if err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

// RemoveService detaches a labor line.
func (r *RepairRepo) RemoveService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM repair_services WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
