package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// PartRepository provides CRUD over the parts catalog.
type PartRepository interface {
	List(ctx context.Context) ([]model.Part, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	Create(ctx context.Context, p *model.Part) (*model.Part, error)
	Update(ctx context.Context, p *model.Part) (*model.Part, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ServiceRepository provides CRUD over the services catalog.
type ServiceRepository interface {
	List(ctx context.Context) ([]model.Service, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Create(ctx context.Context, s *model.Service) (*model.Service, error)
	Update(ctx context.Context, s *model.Service) (*model.Service, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
