package realtime

import (
	"context"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/metrics"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/policy"
	"github.com/mdimitrov/garagesync/internal/repository"
)

// State tracks one kind's subscription lifecycle.
type State int

const (
	StateUnsubscribed State = iota
	StateSubscribing
	StateActive
)

// Sessions is the identity surface the controller consumes.
type Sessions interface {
	Identity() model.Identity
	Generation() uint64
	Changes() <-chan struct{}
}

// Controller owns the feed subscriptions for the current identity. It decides,
// per incoming event, whether the signed-in user is affected and invalidates
// the dependent cache prefixes when they are. Events are consumed once; the
// cache refetches on the next read, the controller never patches entries.
type Controller struct {
	feed     Feed
	sessions Sessions
	cache    *cache.Store
	owners   repository.OwnerResolver
	log      *zap.Logger
	kinds    []model.Kind

	mu        sync.Mutex
	subs      []Subscription
	states    map[model.Kind]State
	own       uuid.UUID
	lastUser  uuid.UUID
	boundGen  uint64
	boundRole model.Role
	bound     bool
}

// NewController wires a controller over every kind in kinds. Clients are
// subscribed only to the kinds their role can observe changes for.
func NewController(feed Feed, sessions Sessions, c *cache.Store, owners repository.OwnerResolver, log *zap.Logger, kinds []model.Kind) *Controller {
	states := make(map[model.Kind]State, len(kinds))
	for _, k := range kinds {
		states[k] = StateUnsubscribed
	}
	return &Controller{
		feed:     feed,
		sessions: sessions,
		cache:    c,
		owners:   owners,
		log:      log,
		kinds:    kinds,
		states:   states,
	}
}

// Run binds subscriptions for the current identity and rebinds on every
// identity change until the context is cancelled.
func (c *Controller) Run(ctx context.Context) {
	changes := c.sessions.Changes()
	c.rebind(ctx)
	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return
		case <-changes:
			c.rebind(ctx)
		}
	}
}

// State reports the subscription lifecycle of one kind.
func (c *Controller) State(kind model.Kind) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[kind]
}

// rebind tears down the previous identity's subscriptions and builds the new
// set. A signed-out identity, or one whose role fetch has not resolved yet,
// gets no subscriptions; the next identity change triggers another rebind.
func (c *Controller) rebind(ctx context.Context) {
	id := c.sessions.Identity()
	gen := c.sessions.Generation()

	c.mu.Lock()
	if c.bound && c.boundGen == gen && c.boundRole == id.Role {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.teardown()

	// A different user (or sign-out) must never see the previous identity's
	// rows; stale entries are not enough, the entries go away entirely.
	c.mu.Lock()
	switched := id.UserID != c.lastUser
	c.lastUser = id.UserID
	c.mu.Unlock()
	if switched {
		c.cache.Drop(cache.Key{})
	}

	if !id.Authenticated() || id.Role == "" {
		return
	}

	own := uuid.Nil
	if id.Role == model.RoleClient {
		v, err := c.owners.ClientOfUser(ctx, id.UserID)
		if err != nil {
			c.log.Warn("client linkage lookup failed, subscribing unfiltered",
				zap.Stringer("user_id", id.UserID), zap.Error(err))
		} else {
			own = v
		}
		if c.sessions.Generation() != gen {
			// Identity moved during the lookup; the pending rebind owns it now.
			return
		}
	}

	c.mu.Lock()
	c.own = own
	c.boundGen = gen
	c.boundRole = id.Role
	c.bound = true
	c.mu.Unlock()

	for _, kind := range c.kindsFor(id.Role) {
		c.setState(kind, StateSubscribing)
		sub, err := c.feed.Subscribe(ctx, kind, c.filterFor(id.Role, kind, own), func(ev model.ChangeEvent) {
			c.handle(ctx, gen, ev)
		})
		if err != nil {
			c.setState(kind, StateUnsubscribed)
			c.log.Warn("subscribe failed", zap.String("kind", string(kind)), zap.Error(err))
			continue
		}
		c.setState(kind, StateActive)
		c.mu.Lock()
		c.subs = append(c.subs, sub)
		c.mu.Unlock()
	}
}

// kindsFor gates subscriptions by role: admins track every kind, clients only
// the resources whose changes can reach their views.
func (c *Controller) kindsFor(role model.Role) []model.Kind {
	if role == model.RoleAdmin {
		return c.kinds
	}
	out := make([]model.Kind, 0, 2)
	for _, k := range c.kinds {
		if k == model.KindBookings || k == model.KindOffers {
			out = append(out, k)
		}
	}
	return out
}

// filterFor narrows a client's booking subscription to their own rows when the
// client linkage is known. Offers stay unfiltered; ownership is checked per
// event because declined offers may be reassigned.
func (c *Controller) filterFor(role model.Role, kind model.Kind, own uuid.UUID) *Filter {
	if role == model.RoleClient && kind == model.KindBookings && own != uuid.Nil {
		return &Filter{Column: "client_id", Equals: own.String()}
	}
	return nil
}

// handle classifies one event for the identity the subscription was built for.
// gen is the session generation captured at subscribe time; any mismatch means
// the event belongs to a torn-down identity and is ignored.
func (c *Controller) handle(ctx context.Context, gen uint64, ev model.ChangeEvent) {
	rec := ev.Affected()
	if rec == nil {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "dropped").Inc()
		c.log.Warn("change event without row payload",
			zap.String("kind", string(ev.Kind)), zap.String("type", string(ev.Type)))
		return
	}
	if c.sessions.Generation() != gen {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return
	}

	id := c.sessions.Identity()
	c.mu.Lock()
	own := c.own
	c.mu.Unlock()

	if policy.CanSee(id, ev.Kind, *rec, own) {
		c.invalidate(ev.Kind)
		return
	}
	if id.Role != model.RoleClient {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return
	}

	// Direct linkage was present and did not match: someone else's row.
	if rec.UserID != uuid.Nil || (rec.ClientID != uuid.Nil && own != uuid.Nil) {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return
	}

	// The event carries no usable linkage. One verification lookup resolves
	// the owner chain; the result only counts while the identity is unchanged.
	owner, err := c.resolveOwner(ctx, ev.Kind, rec)
	if err != nil {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "dropped").Inc()
		c.log.Warn("owner verification failed, dropping event",
			zap.String("kind", string(ev.Kind)), zap.Stringer("row_id", rec.ID), zap.Error(err))
		return
	}
	if c.sessions.Generation() != gen {
		metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return
	}
	if owner != uuid.Nil && owner == id.UserID {
		c.invalidate(ev.Kind)
		return
	}
	metrics.RealtimeEvents.WithLabelValues(string(ev.Kind), "ignored").Inc()
}

func (c *Controller) resolveOwner(ctx context.Context, kind model.Kind, rec *model.Row) (uuid.UUID, error) {
	switch {
	case rec.ClientID != uuid.Nil:
		return c.owners.OwnerOfClient(ctx, rec.ClientID)
	case kind == model.KindBookings:
		return c.owners.OwnerOfBooking(ctx, rec.ID)
	case kind == model.KindOffers:
		return c.owners.OwnerOfOffer(ctx, rec.ID)
	case kind == model.KindClients:
		return c.owners.OwnerOfClient(ctx, rec.ID)
	}
	return uuid.Nil, nil
}

func (c *Controller) invalidate(kind model.Kind) {
	c.cache.InvalidateDependents(kind)
	metrics.RealtimeEvents.WithLabelValues(string(kind), "invalidated").Inc()
}

func (c *Controller) setState(kind model.Kind, st State) {
	c.mu.Lock()
	c.states[kind] = st
	c.mu.Unlock()
}

func (c *Controller) teardown() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.bound = false
	c.own = uuid.Nil
	for k := range c.states {
		c.states[k] = StateUnsubscribed
	}
	c.mu.Unlock()

	for _, s := range subs {
		if err := s.Unsubscribe(); err != nil {
			c.log.Debug("unsubscribe failed", zap.Error(err))
		}
	}
}
