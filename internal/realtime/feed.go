// Package realtime keeps the entity cache coherent with remote writes by
// consuming change events from a feed and turning them into invalidations.
package realtime

import (
	"context"

	"github.com/mdimitrov/garagesync/internal/model"
)

// Filter narrows a subscription to rows where one column equals a value.
// The feed applies it before delivery.
type Filter struct {
	Column string
	Equals string
}

// Subscription is a live feed binding.
type Subscription interface {
	Unsubscribe() error
}

// Feed delivers change events for one resource kind per subscription.
// Handlers of a single subscription are invoked sequentially in arrival order;
// delivery is at-most-once, a missed event is never replayed.
type Feed interface {
	Subscribe(ctx context.Context, kind model.Kind, f *Filter, handler func(model.ChangeEvent)) (Subscription, error)
}

// Publisher emits change events into the feed. The write path publishes one
// event per successful remote mutation.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}
