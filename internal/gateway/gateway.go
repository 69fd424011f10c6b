// Package gateway is the single boundary between the application and remote
// data. Reads go through the entity cache; writes go straight to the
// repositories and, only on success, stale the dependent cache prefixes and
// publish a change event. A failed write invalidates nothing, so the cache
// keeps serving the last state the remote confirmed.
package gateway

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/metrics"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/realtime"
	"github.com/mdimitrov/garagesync/internal/repository"
)

// Gateway bundles the per-entity data APIs over one cache and one event
// publisher.
type Gateway struct {
	bookings repository.BookingRepository
	offers   repository.OfferRepository
	clients  repository.ClientRepository
	vehicles repository.VehicleRepository
	repairs  repository.RepairRepository
	parts    repository.PartRepository
	services repository.ServiceRepository

	cache *cache.Store
	pub   realtime.Publisher
	log   *zap.Logger
}

// Repos groups the repositories the gateway is built over.
type Repos struct {
	Bookings repository.BookingRepository
	Offers   repository.OfferRepository
	Clients  repository.ClientRepository
	Vehicles repository.VehicleRepository
	Repairs  repository.RepairRepository
	Parts    repository.PartRepository
	Services repository.ServiceRepository
}

// New constructs a gateway. pub may be nil when no realtime transport is
// wired; local invalidation still happens.
func New(r Repos, c *cache.Store, pub realtime.Publisher, log *zap.Logger) *Gateway {
	return &Gateway{
		bookings: r.Bookings,
		offers:   r.Offers,
		clients:  r.Clients,
		vehicles: r.Vehicles,
		repairs:  r.Repairs,
		parts:    r.Parts,
		services: r.Services,
		cache:    c,
		pub:      pub,
		log:      log,
	}
}

// wrote finalizes a successful mutation: count it, stale the kind's dependent
// prefixes, publish the change event. Publish failures are logged and
// swallowed; other replicas fall back to their own refetch cycle.
func (g *Gateway) wrote(ctx context.Context, kind model.Kind, typ model.EventType, rec model.Row) {
	metrics.GatewayWrites.WithLabelValues(string(kind), "ok").Inc()
	g.cache.InvalidateDependents(kind)

	if g.pub == nil {
		return
	}
	ev := model.ChangeEvent{Kind: kind, Type: typ}
	if typ == model.EventDelete {
		ev.Before = &rec
	} else {
		ev.After = &rec
	}
	if err := g.pub.Publish(ctx, ev); err != nil {
		g.log.Warn("change event publish failed",
			zap.String("kind", string(kind)), zap.Stringer("row_id", rec.ID), zap.Error(err))
	}
}

// failed counts a write failure and passes the error through untouched.
// The cache is deliberately left alone.
func (g *Gateway) failed(kind model.Kind, err error) error {
	metrics.GatewayWrites.WithLabelValues(string(kind), "error").Inc()
	return err
}

// ensureID assigns a fresh id when the caller did not provide one.
func ensureID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV4()
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// cached runs one read through the cache under the given key.
func cached[T any](ctx context.Context, g *Gateway, key cache.Key, load func(context.Context) (T, error)) (T, error) {
	v, err := g.cache.Read(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
