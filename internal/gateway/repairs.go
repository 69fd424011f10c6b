package gateway

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// Repairs lists every workshop job.
func (g *Gateway) Repairs(ctx context.Context) ([]model.Repair, error) {
	return cached(ctx, g, cache.NewKey(model.KindRepairs), func(ctx context.Context) ([]model.Repair, error) {
		return g.repairs.List(ctx)
	})
}

// RepairsOfVehicle lists one vehicle's service history.
func (g *Gateway) RepairsOfVehicle(ctx context.Context, vehicleID uuid.UUID) ([]model.Repair, error) {
	key := cache.NewKey(model.KindRepairs, "vehicle", vehicleID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Repair, error) {
		return g.repairs.ListByVehicle(ctx, vehicleID)
	})
}

// Repair returns one workshop job.
func (g *Gateway) Repair(ctx context.Context, id uuid.UUID) (*model.Repair, error) {
	key := cache.NewKey(model.KindRepairs, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Repair, error) {
		return g.repairs.GetByID(ctx, id)
	})
}

// RepairParts lists the parts consumed by a repair.
func (g *Gateway) RepairParts(ctx context.Context, repairID uuid.UUID) ([]model.RepairPart, error) {
	key := cache.NewKey(model.KindRepairs, "parts", repairID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.RepairPart, error) {
		return g.repairs.ListParts(ctx, repairID)
	})
}

// RepairServices lists the labor lines attached to a repair.
func (g *Gateway) RepairServices(ctx context.Context, repairID uuid.UUID) ([]model.RepairService, error) {
	key := cache.NewKey(model.KindRepairs, "services", repairID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.RepairService, error) {
		return g.repairs.ListServices(ctx, repairID)
	})
}

func validateRepair(r *model.Repair) error {
	switch {
	case r.VehicleID == uuid.Nil:
		return fmt.Errorf("%w: vehicle id is required", errs.ErrValidation)
	case r.Date.IsZero():
		return fmt.Errorf("%w: date is required", errs.ErrValidation)
	}
	return nil
}

// CreateRepair records a workshop job.
func (g *Gateway) CreateRepair(ctx context.Context, r *model.Repair) (*model.Repair, error) {
	if err := validateRepair(r); err != nil {
		return nil, err
	}
	if err := ensureID(&r.ID); err != nil {
		return nil, err
	}
	stored, err := g.repairs.Create(ctx, r)
	if err != nil {
		return nil, g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventInsert, model.Row{ID: stored.ID})
	return stored, nil
}

// UpdateRepair rewrites a workshop job.
func (g *Gateway) UpdateRepair(ctx context.Context, r *model.Repair) (*model.Repair, error) {
	if err := validateRepair(r); err != nil {
		return nil, err
	}
	stored, err := g.repairs.Update(ctx, r)
	if err != nil {
		return nil, g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventUpdate, model.Row{ID: stored.ID})
	return stored, nil
}

// DeleteRepair removes a workshop job and its line items.
func (g *Gateway) DeleteRepair(ctx context.Context, id uuid.UUID) error {
	if err := g.repairs.Delete(ctx, id); err != nil {
		return g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventDelete, model.Row{ID: id})
	return nil
}

// AddRepairPart attaches a consumed part to a repair.
func (g *Gateway) AddRepairPart(ctx context.Context, p *model.RepairPart) (*model.RepairPart, error) {
	if p.RepairID == uuid.Nil || p.PartID == uuid.Nil {
		return nil, fmt.Errorf("%w: repair id and part id are required", errs.ErrValidation)
	}
	if err := ensureID(&p.ID); err != nil {
		return nil, err
	}
	stored, err := g.repairs.AddPart(ctx, p)
	if err != nil {
		return nil, g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventUpdate, model.Row{ID: stored.RepairID})
	return stored, nil
}

// RemoveRepairPart detaches a consumed part.
func (g *Gateway) RemoveRepairPart(ctx context.Context, repairID, id uuid.UUID) error {
	if err := g.repairs.RemovePart(ctx, id); err != nil {
		return g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventUpdate, model.Row{ID: repairID})
	return nil
}

// AddRepairService attaches a labor line to a repair.
func (g *Gateway) AddRepairService(ctx context.Context, s *model.RepairService) (*model.RepairService, error) {
	if s.RepairID == uuid.Nil || s.ServiceID == uuid.Nil {
		return nil, fmt.Errorf("%w: repair id and service id are required", errs.ErrValidation)
	}
	if err := ensureID(&s.ID); err != nil {
		return nil, err
	}
	stored, err := g.repairs.AddService(ctx, s)
	if err != nil {
		return nil, g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventUpdate, model.Row{ID: stored.RepairID})
	return stored, nil
}

// RemoveRepairService detaches a labor line.
func (g *Gateway) RemoveRepairService(ctx context.Context, repairID, id uuid.UUID) error {
	if err := g.repairs.RemoveService(ctx, id); err != nil {
		return g.failed(model.KindRepairs, err)
	}
	g.wrote(ctx, model.KindRepairs, model.EventUpdate, model.Row{ID: repairID})
	return nil
}
