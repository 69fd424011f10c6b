package gateway

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// Clients lists all shop customers.
func (g *Gateway) Clients(ctx context.Context) ([]model.Client, error) {
	return cached(ctx, g, cache.NewKey(model.KindClients), func(ctx context.Context) ([]model.Client, error) {
		return g.clients.List(ctx)
	})
}

// Client returns one customer by id.
func (g *Gateway) Client(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	key := cache.NewKey(model.KindClients, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Client, error) {
		return g.clients.GetByID(ctx, id)
	})
}

// ClientOfUser returns the customer record linked to an auth account.
func (g *Gateway) ClientOfUser(ctx context.Context, userID uuid.UUID) (*model.Client, error) {
	key := cache.NewKey(model.KindClients, "user", userID.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Client, error) {
		return g.clients.GetByUserID(ctx, userID)
	})
}

// CreateClient inserts a customer. UserID stays uuid.Nil for walk-ins.
func (g *Gateway) CreateClient(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	if err := ensureID(&c.ID); err != nil {
		return nil, err
	}
	stored, err := g.clients.Create(ctx, c)
	if err != nil {
		return nil, g.failed(model.KindClients, err)
	}
	g.wrote(ctx, model.KindClients, model.EventInsert, model.Row{ID: stored.ID, UserID: stored.UserID})
	return stored, nil
}

// UpdateClient rewrites a customer record.
func (g *Gateway) UpdateClient(ctx context.Context, c *model.Client) (*model.Client, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: name is required", errs.ErrValidation)
	}
	stored, err := g.clients.Update(ctx, c)
	if err != nil {
		return nil, g.failed(model.KindClients, err)
	}
	g.wrote(ctx, model.KindClients, model.EventUpdate, model.Row{ID: stored.ID, UserID: stored.UserID})
	return stored, nil
}

// DeleteClient removes a customer.
func (g *Gateway) DeleteClient(ctx context.Context, id uuid.UUID) error {
	c, err := g.clients.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := g.clients.Delete(ctx, id); err != nil {
		return g.failed(model.KindClients, err)
	}
	g.wrote(ctx, model.KindClients, model.EventDelete, model.Row{ID: id, UserID: c.UserID})
	return nil
}

// Vehicles lists every vehicle on file.
func (g *Gateway) Vehicles(ctx context.Context) ([]model.Vehicle, error) {
	return cached(ctx, g, cache.NewKey(model.KindVehicles), func(ctx context.Context) ([]model.Vehicle, error) {
		return g.vehicles.List(ctx)
	})
}

// VehiclesOfClient lists one customer's vehicles.
func (g *Gateway) VehiclesOfClient(ctx context.Context, clientID uuid.UUID) ([]model.Vehicle, error) {
	key := cache.NewKey(model.KindVehicles, "client", clientID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Vehicle, error) {
		return g.vehicles.ListByClient(ctx, clientID)
	})
}

// Vehicle returns one vehicle by id.
func (g *Gateway) Vehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	key := cache.NewKey(model.KindVehicles, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Vehicle, error) {
		return g.vehicles.GetByID(ctx, id)
	})
}

func validateVehicle(v *model.Vehicle) error {
	switch {
	case v.ClientID == uuid.Nil:
		return fmt.Errorf("%w: client id is required", errs.ErrValidation)
	case v.Make == "" || v.Model == "":
		return fmt.Errorf("%w: make and model are required", errs.ErrValidation)
	}
	return nil
}

// CreateVehicle inserts a vehicle for a customer.
func (g *Gateway) CreateVehicle(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	if err := validateVehicle(v); err != nil {
		return nil, err
	}
	if err := ensureID(&v.ID); err != nil {
		return nil, err
	}
	stored, err := g.vehicles.Create(ctx, v)
	if err != nil {
		return nil, g.failed(model.KindVehicles, err)
	}
	g.wrote(ctx, model.KindVehicles, model.EventInsert, model.Row{ID: stored.ID, ClientID: stored.ClientID})
	return stored, nil
}

// UpdateVehicle rewrites a vehicle record.
func (g *Gateway) UpdateVehicle(ctx context.Context, v *model.Vehicle) (*model.Vehicle, error) {
	if err := validateVehicle(v); err != nil {
		return nil, err
	}
	stored, err := g.vehicles.Update(ctx, v)
	if err != nil {
		return nil, g.failed(model.KindVehicles, err)
	}
	g.wrote(ctx, model.KindVehicles, model.EventUpdate, model.Row{ID: stored.ID, ClientID: stored.ClientID})
	return stored, nil
}

// DeleteVehicle removes a vehicle.
func (g *Gateway) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	v, err := g.vehicles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := g.vehicles.Delete(ctx, id); err != nil {
		return g.failed(model.KindVehicles, err)
	}
	g.wrote(ctx, model.KindVehicles, model.EventDelete, model.Row{ID: id, ClientID: v.ClientID})
	return nil
}
