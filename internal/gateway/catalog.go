package gateway

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// Parts lists the parts catalog.
func (g *Gateway) Parts(ctx context.Context) ([]model.Part, error) {
	return cached(ctx, g, cache.NewKey(model.KindParts), func(ctx context.Context) ([]model.Part, error) {
		return g.parts.List(ctx)
	})
}

// Part returns one catalog part.
func (g *Gateway) Part(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	key := cache.NewKey(model.KindParts, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Part, error) {
		return g.parts.GetByID(ctx, id)
	})
}

// CreatePart adds a part to the catalog.
func (g *Gateway) CreatePart(ctx context.Context, p *model.Part) (*model.Part, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if err := ensureID(&p.ID); err != nil {
		return nil, err
	}
	stored, err := g.parts.Create(ctx, p)
	if err != nil {
		return nil, g.failed(model.KindParts, err)
	}
	g.wrote(ctx, model.KindParts, model.EventInsert, model.Row{ID: stored.ID})
	return stored, nil
}

// UpdatePart rewrites a catalog part.
func (g *Gateway) UpdatePart(ctx context.Context, p *model.Part) (*model.Part, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	stored, err := g.parts.Update(ctx, p)
	if err != nil {
		return nil, g.failed(model.KindParts, err)
	}
	g.wrote(ctx, model.KindParts, model.EventUpdate, model.Row{ID: stored.ID})
	return stored, nil
}

// DeletePart removes a catalog part.
func (g *Gateway) DeletePart(ctx context.Context, id uuid.UUID) error {
	if err := g.parts.Delete(ctx, id); err != nil {
		return g.failed(model.KindParts, err)
	}
	g.wrote(ctx, model.KindParts, model.EventDelete, model.Row{ID: id})
	return nil
}

// Services lists the labor catalog.
func (g *Gateway) Services(ctx context.Context) ([]model.Service, error) {
	return cached(ctx, g, cache.NewKey(model.KindServices), func(ctx context.Context) ([]model.Service, error) {
		return g.services.List(ctx)
	})
}

// Service returns one catalog labor item.
func (g *Gateway) Service(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	key := cache.NewKey(model.KindServices, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Service, error) {
		return g.services.GetByID(ctx, id)
	})
}

// CreateService adds a labor item to the catalog.
func (g *Gateway) CreateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if err := ensureID(&s.ID); err != nil {
		return nil, err
	}
	stored, err := g.services.Create(ctx, s)
	if err != nil {
		return nil, g.failed(model.KindServices, err)
	}
	g.wrote(ctx, model.KindServices, model.EventInsert, model.Row{ID: stored.ID})
	return stored, nil
}

// UpdateService rewrites a catalog labor item.
func (g *Gateway) UpdateService(ctx context.Context, s *model.Service) (*model.Service, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	stored, err := g.services.Update(ctx, s)
	if err != nil {
		return nil, g.failed(model.KindServices, err)
	}
	g.wrote(ctx, model.KindServices, model.EventUpdate, model.Row{ID: stored.ID})
	return stored, nil
}

// DeleteService removes a catalog labor item.
func (g *Gateway) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := g.services.Delete(ctx, id); err != nil {
		return g.failed(model.KindServices, err)
	}
	g.wrote(ctx, model.KindServices, model.EventDelete, model.Row{ID: id})
	return nil
}
