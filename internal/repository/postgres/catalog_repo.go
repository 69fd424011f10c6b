package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// PartRepo implements PartRepository using PostgreSQL.
type PartRepo struct{ db *DB }

// NewPartRepo constructs a parts-catalog repository.
func NewPartRepo(db *DB) *PartRepo { return &PartRepo{db: db} }

const partCols = `id, name, brand, oem_code, price, created_at`

// List returns the parts catalog ordered by name.
func (r *PartRepo) List(ctx context.Context) ([]model.Part, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+partCols+` FROM parts ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Part
	for rows.Next() {
		var p model.Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.OEMCode, &p.Price, &p.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, p)
	}
	return out, mapErr(rows.Err())
}

// GetByID selects a part by ID.
func (r *PartRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	var p model.Part
	err := r.db.Pool.QueryRow(ctx, `SELECT `+partCols+` FROM parts WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Brand, &p.OEMCode, &p.Price, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// Create inserts a part.
func (r *PartRepo) Create(ctx context.Context, p *model.Part) (*model.Part, error) {
	const q = `
INSERT INTO parts (id, name, brand, oem_code, price)
VALUES ($1,$2,$3,$4,$5)
RETURNING ` + partCols
	var created model.Part
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Brand, p.OEMCode, p.Price).
		Scan(&created.ID, &created.Name, &created.Brand, &created.OEMCode, &created.Price, &created.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

// Update rewrites a part's mutable fields.
func (r *PartRepo) Update(ctx context.Context, p *model.Part) (*model.Part, error) {
	const q = `
UPDATE parts SET name=$2, brand=$3, oem_code=$4, price=$5
WHERE id=$1
RETURNING ` + partCols
	var updated model.Part
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.Name, p.Brand, p.OEMCode, p.Price).
		Scan(&updated.ID, &updated.Name, &updated.Brand, &updated.OEMCode, &updated.Price, &updated.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &updated, nil
}

// Delete removes a part.
func (r *PartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM parts WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ServiceRepo implements ServiceRepository using PostgreSQL.
type ServiceRepo struct{ db *DB }

// NewServiceRepo constructs a services-catalog repository.
func NewServiceRepo(db *DB) *ServiceRepo { return &ServiceRepo{db: db} }

const serviceCols = `id, name, default_price, description, created_at`

// List returns the services catalog ordered by name.
func (r *ServiceRepo) List(ctx context.Context) ([]model.Service, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+serviceCols+` FROM services ORDER BY name`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DefaultPrice, &s.Description, &s.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, s)
	}
	return out, mapErr(rows.Err())
}

// GetByID selects a service by ID.
func (r *ServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	err := r.db.Pool.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.DefaultPrice, &s.Description, &s.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

// Create inserts a service.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) (*model.Service, error) {
	const q = `
INSERT INTO services (id, name, default_price, description)
VALUES ($1,$2,$3,$4)
RETURNING ` + serviceCols
	var created model.Service
	err := r.db.Pool.QueryRow(ctx, q, s.ID, s.Name, s.DefaultPrice, s.Description).
		Scan(&created.ID, &created.Name, &created.DefaultPrice, &created.Description, &created.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &created, nil
}

// Update rewrites a service's mutable fields.
func (r *ServiceRepo) Update(ctx context.Context, s *model.Service) (*model.Service, error) {
	const q = `
UPDATE services SET name=$2, default_price=$3, description=$4
WHERE id=$1
RETURNING ` + serviceCols
	var updated model.Service
	err := r.db.Pool.QueryRow(ctx, q, s.ID, s.Name, s.DefaultPrice, s.Description).
		Scan(&updated.ID, &updated.Name, &updated.DefaultPrice, &updated.Description, &updated.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &updated, nil
}

// Delete removes a service.
func (r *ServiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
