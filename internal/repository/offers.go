package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// OfferRepository provides CRUD over offers and their part/service lines.
type OfferRepository interface {
	// ListByAdmin returns offers created by the given admin, children included.
	ListByAdmin(ctx context.Context, adminID uuid.UUID) ([]model.Offer, error)

	// ListPendingByClient returns the client's pending offers, children included.
	ListPendingByClient(ctx context.Context, clientID uuid.UUID) ([]model.Offer, error)

	// GetByID returns one offer with its part and service lines.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Offer, error)

	// Create inserts the offer row; children are attached via ReplaceItems.
	Create(ctx context.Context, o *model.Offer) (*model.Offer, error)

	// SetStatus moves the offer through its lifecycle (pending/accepted/declined).
	SetStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error

	// UpdateTotals rewrites labor cost and total amount.
	UpdateTotals(ctx context.Context, id uuid.UUID, laborCost, totalAmount float64) error

	// ReplaceItems deletes the offer's part and service lines and inserts the
	// provided ones. The steps are independent statements with no surrounding
	// transaction: when a later step fails, earlier steps stay applied and the
	// caller must re-fetch to observe actual state.
	ReplaceItems(ctx context.Context, offerID uuid.UUID, parts []model.OfferPart, services []model.OfferService) error

	// Delete removes the offer and, via FK cascade, its lines.
	Delete(ctx context.Context, id uuid.UUID) error
}
