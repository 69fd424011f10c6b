package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// ClientRepository provides CRUD over shop customers.
type ClientRepository interface {
	List(ctx context.Context) ([]model.Client, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	// GetByUserID resolves the client row linked to an auth account.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Client, error)
	Create(ctx context.Context, c *model.Client) (*model.Client, error)
	Update(ctx context.Context, c *model.Client) (*model.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// VehicleRepository provides CRUD over vehicles.
type VehicleRepository interface {
	List(ctx context.Context) ([]model.Vehicle, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]model.Vehicle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	Create(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
