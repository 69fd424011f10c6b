package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// ClientRepo implements ClientRepository using PostgreSQL.
type ClientRepo struct{ db *DB }

// NewClientRepo constructs a client repository.
func NewClientRepo(db *DB) *ClientRepo { return &ClientRepo{db: db} }

const clientCols = `id, user_id, name, phone, email, address, notes, created_at`

func scanClient(row rowScanner) (*model.Client, error) {
	var c model.Client
	var userID *uuid.UUID
	err := row.Scan(&c.ID, &userID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID != nil {
		c.UserID = *userID
	}
	return &c, nil
}

// List returns all clients ordered by name.
func (r *ClientRepo) List(ctx context.Context) ([]model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients ORDER BY name`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *c)
	}
	return out, mapErr(rows.Err())
}

// GetByID selects a client by ID.
func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE id=$1`
	c, err := scanClient(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// GetByUserID resolves the client row linked to an auth account.
func (r *ClientRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	const q = `SELECT ` + clientCols + ` FROM clients WHERE user_id=$1`
	c, err := scanClient(r.db.Pool.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// Create inserts a client row.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) (*model.Client, error) {
	const q = `
INSERT INTO clients (id, user_id, name, phone, email, address, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + clientCols
	created, err := scanClient(r.db.Pool.QueryRow(ctx, q,
		c.ID, nilable(c.UserID), c.Name, c.Phone, c.Email, c.Address, c.Notes))
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// Update rewrites the client's mutable fields.
func (r *ClientRepo) Update(ctx context.Context, c *model.Client) (*model.Client, error) {
	const q = `
UPDATE clients SET name=$2, phone=$3, email=$4, address=$5, notes=$6
WHERE id=$1
RETURNING ` + clientCols
	updated, err := scanClient(r.db.Pool.QueryRow(ctx, q,
		c.ID, c.Name, c.Phone, c.Email, c.Address, c.Notes))
	if err != nil {
		return nil, mapErr(err)
	}
	return updated, nil
}

// Delete removes the client.
func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM clients WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
