package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// RepairRepository provides CRUD over repairs and their line items.
type RepairRepository interface {
	List(ctx context.Context) ([]model.Repair, error)
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Repair, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Repair, error)
	Create(ctx context.Context, r *model.Repair) (*model.Repair, error)
	Update(ctx context.Context, r *model.Repair) (*model.Repair, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Line items consumed by a repair.
	ListParts(ctx context.Context, repairID uuid.UUID) ([]model.RepairPart, error)
	AddPart(ctx context.Context, p *model.RepairPart) (*model.RepairPart, error)
	RemovePart(ctx context.Context, id uuid.UUID) error
	ListServices(ctx context.Context, repairID uuid.UUID) ([]model.RepairService, error)
	AddService(ctx context.Context, s *model.RepairService) (*model.RepairService, error)
	RemoveService(ctx context.Context, id uuid.UUID) error
}
