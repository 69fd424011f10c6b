package gateway

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// OffersByAdmin lists the offers an admin has issued, children included.
func (g *Gateway) OffersByAdmin(ctx context.Context, adminID uuid.UUID) ([]model.Offer, error) {
	key := cache.NewView(cache.ViewAdminOffers, adminID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Offer, error) {
		return g.offers.ListByAdmin(ctx, adminID)
	})
}

// PendingOffers lists a client's offers awaiting a decision.
func (g *Gateway) PendingOffers(ctx context.Context, clientID uuid.UUID) ([]model.Offer, error) {
	key := cache.NewView(cache.ViewPendingOffers, clientID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Offer, error) {
		return g.offers.ListPendingByClient(ctx, clientID)
	})
}

// Offer returns one offer with its lines.
func (g *Gateway) Offer(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	key := cache.NewKey(model.KindOffers, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Offer, error) {
		return g.offers.GetByID(ctx, id)
	})
}

func offerTotal(laborCost float64, parts []model.OfferPart, services []model.OfferService) float64 {
	total := laborCost
	for _, p := range parts {
		total += p.Price * float64(p.Quantity)
	}
	for _, s := range services {
		total += s.Price
	}
	return total
}

func ensureItemIDs(offerID uuid.UUID, parts []model.OfferPart, services []model.OfferService) error {
	for i := range parts {
		parts[i].OfferID = offerID
		if err := ensureID(&parts[i].ID); err != nil {
			return err
		}
	}
	for i := range services {
		services[i].OfferID = offerID
		if err := ensureID(&services[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func validateOffer(o *model.Offer) error {
	switch {
	case o.ClientID == uuid.Nil:
		return fmt.Errorf("%w: client id is required", errs.ErrValidation)
	case o.AdminID == uuid.Nil:
		return fmt.Errorf("%w: admin id is required", errs.ErrValidation)
	case o.Title == "":
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	return nil
}

// CreateOffer inserts the offer row, attaches its lines and writes the
// computed totals. The three steps are independent remote statements; a
// failure partway leaves the earlier steps applied, the error reports which
// step broke and the caller re-fetches to see actual state.
func (g *Gateway) CreateOffer(ctx context.Context, o *model.Offer) (*model.Offer, error) {
	if err := validateOffer(o); err != nil {
		return nil, err
	}
	if err := ensureID(&o.ID); err != nil {
		return nil, err
	}
	if err := ensureItemIDs(o.ID, o.Parts, o.Services); err != nil {
		return nil, err
	}
	o.Status = model.OfferPending
	o.TotalAmount = offerTotal(o.LaborCost, o.Parts, o.Services)

	stored, err := g.offers.Create(ctx, o)
	if err != nil {
		return nil, g.failed(model.KindOffers, err)
	}
	if err := g.offers.ReplaceItems(ctx, stored.ID, o.Parts, o.Services); err != nil {
		return nil, g.failed(model.KindOffers, fmt.Errorf("offer %s created, attaching items: %w", stored.ID, err))
	}
	if err := g.offers.UpdateTotals(ctx, stored.ID, o.LaborCost, o.TotalAmount); err != nil {
		return nil, g.failed(model.KindOffers, fmt.Errorf("offer %s created, writing totals: %w", stored.ID, err))
	}
	stored.Parts = o.Parts
	stored.Services = o.Services
	stored.LaborCost = o.LaborCost
	stored.TotalAmount = o.TotalAmount

	g.wrote(ctx, model.KindOffers, model.EventInsert, model.Row{ID: stored.ID, ClientID: stored.ClientID})
	return stored, nil
}

// UpdateOfferItems replaces the offer's lines and recomputes totals. Same
// non-atomic shape as CreateOffer.
func (g *Gateway) UpdateOfferItems(ctx context.Context, id uuid.UUID, laborCost float64, parts []model.OfferPart, services []model.OfferService) error {
	if err := ensureItemIDs(id, parts, services); err != nil {
		return err
	}
	if err := g.offers.ReplaceItems(ctx, id, parts, services); err != nil {
		return g.failed(model.KindOffers, err)
	}
	total := offerTotal(laborCost, parts, services)
	if err := g.offers.UpdateTotals(ctx, id, laborCost, total); err != nil {
		return g.failed(model.KindOffers, fmt.Errorf("items replaced, writing totals: %w", err))
	}
	owner, err := g.offers.GetByID(ctx, id)
	if err != nil {
		return g.failed(model.KindOffers, err)
	}
	g.wrote(ctx, model.KindOffers, model.EventUpdate, model.Row{ID: id, ClientID: owner.ClientID})
	return nil
}

func (g *Gateway) setOfferStatus(ctx context.Context, id uuid.UUID, status model.OfferStatus) error {
	o, err := g.offers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != model.OfferPending {
		return fmt.Errorf("%w: offer is already %s", errs.ErrConstraint, o.Status)
	}
	if err := g.offers.SetStatus(ctx, id, status); err != nil {
		return g.failed(model.KindOffers, err)
	}
	g.wrote(ctx, model.KindOffers, model.EventUpdate, model.Row{ID: id, ClientID: o.ClientID})
	return nil
}

// AcceptOffer moves a pending offer to accepted.
func (g *Gateway) AcceptOffer(ctx context.Context, id uuid.UUID) error {
	return g.setOfferStatus(ctx, id, model.OfferAccepted)
}

// DeclineOffer moves a pending offer to declined.
func (g *Gateway) DeclineOffer(ctx context.Context, id uuid.UUID) error {
	return g.setOfferStatus(ctx, id, model.OfferDeclined)
}

// DeleteOffer removes the offer; its lines go with it via FK cascade.
func (g *Gateway) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	o, err := g.offers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := g.offers.Delete(ctx, id); err != nil {
		return g.failed(model.KindOffers, err)
	}
	g.wrote(ctx, model.KindOffers, model.EventDelete, model.Row{ID: id, ClientID: o.ClientID})
	return nil
}
