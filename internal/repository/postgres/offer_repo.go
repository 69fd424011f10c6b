package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// OfferRepo implements OfferRepository using PostgreSQL.
type OfferRepo struct{ db *DB }

// NewOfferRepo constructs an offer repository.
func NewOfferRepo(db *DB) *OfferRepo { return &OfferRepo{db: db} }

const offerCols = `id, admin_id, client_id, repair_id, title, description, labor_cost,
total_amount, status, created_at, updated_at`

func scanOffer(row rowScanner) (*model.Offer, error) {
	var o model.Offer
	var repairID *uuid.UUID
	err := row.Scan(&o.ID, &o.AdminID, &o.ClientID, &repairID, &o.Title, &o.Description,
		&o.LaborCost, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if repairID != nil {
		o.RepairID = *repairID
	}
	return &o, nil
}

func (r *OfferRepo) listWhere(ctx context.Context, cond string, args ...any) ([]model.Offer, error) {
	q := `SELECT ` + offerCols + ` FROM offers WHERE ` + cond + ` ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	for i := range out {
		if err := r.attachItems(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByAdmin returns offers created by the given admin, children included.
func (r *OfferRepo) ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]model.Offer, error) {
	return r.listWhere(ctx, "admin_id=$1", adminID)
}

// ListPendingByClient returns the client's pending offers, children included.
func (r *OfferRepo) ListPendingByClient(ctx context.Context, clientID uuid.UUID) ([]model.Offer, error) {
	return r.listWhere(ctx, "client_id=$1 AND status=$2", clientID, model.OfferPending)
}

// GetByID returns one offer with its part and service lines.
func (r *OfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	const q = `SELECT ` + offerCols + ` FROM offers WHERE id=$1`
	o, err := scanOffer(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	if err := r.attachItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OfferRepo) attachItems(ctx context.Context, o *model.Offer) error {
	const qp = `SELECT id, offer_id, part_id, name, quantity, price FROM offer_parts WHERE offer_id=$1 ORDER BY name`
	rows, err := r.db.Pool.Query(ctx, qp, o.ID)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()
	o.Parts = o.Parts[:0]
	for rows.Next() {
		var p model.OfferPart
		if err := rows.Scan(&p.ID, &p.OfferID, &p.PartID, &p.Name, &p.Quantity, &p.Price); err != nil {
			return mapErr(err)
		}
		o.Parts = append(o.Parts, p)
	}
	if err := rows.Err(); err != nil {
		return mapErr(err)
	}
	rows.Close()

	const qs = `SELECT id, offer_id, service_id, name, price FROM offer_services WHERE offer_id=$1 ORDER BY name`
	rows, err = r.db.Pool.Query(ctx, qs, o.ID)
	if err != nil {
		return mapErr(err)
	}
	defer rows.Close()
	o.Services = o.Services[:0]
	for rows.Next() {
		var s model.OfferService
		if err := rows.Scan(&s.ID, &s.OfferID, &s.ServiceID, &s.Name, &s.Price); err != nil {
			return mapErr(err)
		}
		o.Services = append(o.Services, s)
	}
	return mapErr(rows.Err())
}

// Create inserts the offer row.
func (r *OfferRepo) Create(ctx context.Context, o *model.Offer) (*model.Offer, error) {
	const q = `
INSERT INTO offers (id, admin_id, client_id, repair_id, title, description, labor_cost, total_amount, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING ` + offerCols
	row := r.db.Pool.QueryRow(ctx, q,
		o.ID, o.AdminID, o.ClientID, nilable(o.RepairID), o.Title, o.Description,
		o.LaborCost, o.TotalAmount, o.Status)
	created, err := scanOffer(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// SetStatus moves the offer through its lifecycle.
func (r *OfferRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error {
	const q = `UPDATE offers SET status=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, status)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// UpdateTotals rewrites labor cost and total amount.
func (r *OfferRepo) UpdateTotals(ctx context.Context, id uuid.UUID, laborCost, totalAmount float64) error {
	const q = `UPDATE offers SET labor_cost=$2, total_amount=$3, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, laborCost, totalAmount)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ReplaceItems deletes the offer's lines and inserts the provided ones.
// The steps run as independent statements, not a transaction: the remote
// boundary offers no cross-statement atomicity, so a failure partway leaves
// the earlier steps applied and the caller must re-fetch to observe state.
func (r *OfferRepo) ReplaceItems(ctx context.Context, offerID uuid.UUID, parts []model.OfferPart, services []model.OfferService) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM offer_parts WHERE offer_id=$1`, offerID); err != nil {
		return fmt.Errorf("delete offer parts: %w", mapErr(err))
	}
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM offer_services WHERE offer_id=$1`, offerID); err != nil {
		return fmt.Errorf("delete offer services: %w", mapErr(err))
	}
	const insPart = `INSERT INTO offer_parts (id, offer_id, part_id, name, quantity, price) VALUES ($1,$2,$3,$4,$5,$6)`
	for i := range parts {
		p := &parts[i]
		if _, err := r.db.Pool.Exec(ctx, insPart, p.ID, offerID, p.PartID, p.Name, p.Quantity, p.Price); err != nil {
			return fmt.Errorf("insert offer part %d: %w", i, mapErr(err))
		}
	}
	const insSvc = `INSERT INTO offer_services (id, offer_id, service_id, name, price) VALUES ($1,$2,$3,$4,$5)`
	for i := range services {
		s := &services[i]
		if _, err := r.db.Pool.Exec(ctx, insSvc, s.ID, offerID, s.ServiceID, s.Name, s.Price); err != nil {
			return fmt.Errorf("insert offer service %d: %w", i, mapErr(err))
		}
	}
	return nil
}

// Delete removes the offer; lines go via FK cascade.
func (r *OfferRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM offers WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
