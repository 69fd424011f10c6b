package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/model"
)

type memSub struct {
	feed    *memFeed
	kind    model.Kind
	filter  *Filter
	handler func(model.ChangeEvent)
	closed  bool
}

func (s *memSub) Unsubscribe() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()
	s.closed = true
	return nil
}

type memFeed struct {
	mu   sync.Mutex
	subs []*memSub
}

func (f *memFeed) Subscribe(_ context.Context, kind model.Kind, fl *Filter, h func(model.ChangeEvent)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &memSub{feed: f, kind: kind, filter: fl, handler: h}
	f.subs = append(f.subs, s)
	return s, nil
}

// emit delivers the event to every open subscription whose kind and filter
// match, synchronously on the caller's goroutine.
func (f *memFeed) emit(ev model.ChangeEvent) {
	f.mu.Lock()
	var handlers []func(model.ChangeEvent)
	for _, s := range f.subs {
		if s.closed || s.kind != ev.Kind {
			continue
		}
		if s.filter != nil {
			rec := ev.Affected()
			if rec == nil || s.filter.Column != "client_id" || rec.ClientID.String() != s.filter.Equals {
				continue
			}
		}
		handlers = append(handlers, s.handler)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(ev)
	}
}

func (f *memFeed) open(kind model.Kind) []*memSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*memSub
	for _, s := range f.subs {
		if !s.closed && s.kind == kind {
			out = append(out, s)
		}
	}
	return out
}

type fakeSessions struct {
	mu  sync.Mutex
	id  model.Identity
	gen uint64
	ch  chan struct{}
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{ch: make(chan struct{}, 1)}
}

func (f *fakeSessions) Identity() model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *fakeSessions) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeSessions) Changes() <-chan struct{} { return f.ch }

func (f *fakeSessions) set(id model.Identity) {
	f.mu.Lock()
	f.id = id
	f.gen++
	f.mu.Unlock()
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

type fakeOwners struct {
	mu            sync.Mutex
	clientOwners  map[uuid.UUID]uuid.UUID // client id -> user id
	bookingOwners map[uuid.UUID]uuid.UUID // booking id -> user id
	offerOwners   map[uuid.UUID]uuid.UUID // offer id -> user id
	userClients   map[uuid.UUID]uuid.UUID // user id -> client id
	err           error
	gate          chan struct{} // when set, owner lookups block until closed
	lookups       int
}

func (f *fakeOwners) lookup(m map[uuid.UUID]uuid.UUID, id uuid.UUID) (uuid.UUID, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return m[id], nil
}

func (f *fakeOwners) OwnerOfClient(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f.lookup(f.clientOwners, id)
}

func (f *fakeOwners) OwnerOfBooking(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f.lookup(f.bookingOwners, id)
}

func (f *fakeOwners) OwnerOfOffer(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	return f.lookup(f.offerOwners, id)
}

func (f *fakeOwners) ClientOfUser(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userClients[id], nil
}

func (f *fakeOwners) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// prime loads a key and returns a func reporting how many loads have happened.
func prime(t *testing.T, cs *cache.Store, key cache.Key) func() int {
	t.Helper()
	var mu sync.Mutex
	n := 0
	load := func() int {
		_, err := cs.Read(context.Background(), key, func(context.Context) (any, error) {
			mu.Lock()
			n++
			mu.Unlock()
			return n, nil
		})
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		return n
	}
	load()
	return load
}

func event(kind model.Kind, typ model.EventType, rec model.Row) model.ChangeEvent {
	return model.ChangeEvent{Kind: kind, Type: typ, After: &rec}
}

func TestController_AdminEventInvalidatesDependents(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()
	owners := &fakeOwners{}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	admin := uuid.Must(uuid.NewV4())
	sessions.set(model.Identity{UserID: admin, Role: model.RoleAdmin})
	c.rebind(context.Background())

	bookings := prime(t, cs, cache.NewKey(model.KindBookings, "2026-09-01"))
	slots := prime(t, cs, cache.NewView(cache.ViewAvailableSlots, "2026-09-01"))
	parts := prime(t, cs, cache.NewKey(model.KindParts))

	feed.emit(event(model.KindBookings, model.EventInsert, model.Row{
		ID:       uuid.Must(uuid.NewV4()),
		ClientID: uuid.Must(uuid.NewV4()),
	}))

	require.Equal(t, 2, bookings(), "booking lists reload after the event")
	require.Equal(t, 2, slots(), "derived slot view reloads after the event")
	require.Equal(t, 1, parts(), "unrelated kinds keep their cached value")
	require.Zero(t, owners.lookupCount(), "admins never need owner verification")
}

func TestController_ClientDirectMatch(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()

	user := uuid.Must(uuid.NewV4())
	ownClient := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{userClients: map[uuid.UUID]uuid.UUID{user: ownClient}}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	sessions.set(model.Identity{UserID: user, Role: model.RoleClient})
	c.rebind(context.Background())

	offers := prime(t, cs, cache.NewView(cache.ViewPendingOffers, user.String()))

	// Foreign offer first: linkage is present and mismatched, no lookup, no reload.
	feed.emit(event(model.KindOffers, model.EventUpdate, model.Row{
		ID:       uuid.Must(uuid.NewV4()),
		ClientID: uuid.Must(uuid.NewV4()),
	}))
	require.Equal(t, 1, offers())
	require.Zero(t, owners.lookupCount())

	feed.emit(event(model.KindOffers, model.EventUpdate, model.Row{
		ID:       uuid.Must(uuid.NewV4()),
		ClientID: ownClient,
	}))
	require.Equal(t, 2, offers(), "own offer change must stale the pending view")
}

func TestController_ClientVerificationLookup(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()

	user := uuid.Must(uuid.NewV4())
	offerID := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{
		offerOwners: map[uuid.UUID]uuid.UUID{offerID: user},
	}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	sessions.set(model.Identity{UserID: user, Role: model.RoleClient})
	c.rebind(context.Background())

	offers := prime(t, cs, cache.NewView(cache.ViewPendingOffers, user.String()))
	before := owners.lookupCount()

	// Delete events carry no linkage snapshot beyond the row id.
	feed.emit(model.ChangeEvent{
		Kind:   model.KindOffers,
		Type:   model.EventDelete,
		Before: &model.Row{ID: offerID},
	})

	require.Equal(t, 2, offers(), "verified ownership must invalidate")
	require.Equal(t, before+1, owners.lookupCount(), "exactly one verification lookup")
}

func TestController_LookupFailureDropsEvent(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()

	user := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{err: errors.New("connection reset")}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	sessions.set(model.Identity{UserID: user, Role: model.RoleClient})
	c.rebind(context.Background())

	offers := prime(t, cs, cache.NewView(cache.ViewPendingOffers, user.String()))

	feed.emit(model.ChangeEvent{
		Kind:   model.KindOffers,
		Type:   model.EventDelete,
		Before: &model.Row{ID: uuid.Must(uuid.NewV4())},
	})

	require.Equal(t, 1, offers(), "a dropped event must not invalidate")
}

func TestController_StaleGenerationDiscardsVerification(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()

	user := uuid.Must(uuid.NewV4())
	offerID := uuid.Must(uuid.NewV4())
	gate := make(chan struct{})
	owners := &fakeOwners{
		offerOwners: map[uuid.UUID]uuid.UUID{offerID: user},
		gate:        gate,
	}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	sessions.set(model.Identity{UserID: user, Role: model.RoleClient})
	c.rebind(context.Background())

	offers := prime(t, cs, cache.NewView(cache.ViewPendingOffers, user.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		feed.emit(model.ChangeEvent{
			Kind:   model.KindOffers,
			Type:   model.EventDelete,
			Before: &model.Row{ID: offerID},
		})
	}()

	// The identity changes while the verification lookup is still in flight.
	sessions.set(model.Identity{})
	close(gate)
	<-done

	require.Equal(t, 1, offers(), "a lookup result from a dead identity must not invalidate")
}

func TestController_RebindOnIdentityChange(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()

	user := uuid.Must(uuid.NewV4())
	ownClient := uuid.Must(uuid.NewV4())
	owners := &fakeOwners{userClients: map[uuid.UUID]uuid.UUID{user: ownClient}}
	c := NewController(feed, sessions, cs, owners, zap.NewNop(), model.Kinds())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	sessions.set(model.Identity{UserID: uuid.Must(uuid.NewV4()), Role: model.RoleAdmin})
	require.Eventually(t, func() bool {
		return c.State(model.KindRepairs) == StateActive
	}, time.Second, time.Millisecond, "admins subscribe to every kind")

	sessions.set(model.Identity{UserID: user, Role: model.RoleClient})
	require.Eventually(t, func() bool {
		return c.State(model.KindRepairs) == StateUnsubscribed &&
			c.State(model.KindBookings) == StateActive &&
			c.State(model.KindOffers) == StateActive
	}, time.Second, time.Millisecond, "clients only track bookings and offers")

	subs := feed.open(model.KindBookings)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].filter)
	require.Equal(t, "client_id", subs[0].filter.Column)
	require.Equal(t, ownClient.String(), subs[0].filter.Equals)

	sessions.set(model.Identity{})
	require.Eventually(t, func() bool {
		return c.State(model.KindBookings) == StateUnsubscribed
	}, time.Second, time.Millisecond, "sign-out tears every subscription down")
}

func TestController_SignOutDropsCacheEntries(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	cs := cache.New()
	c := NewController(feed, sessions, cs, &fakeOwners{}, zap.NewNop(), model.Kinds())

	sessions.set(model.Identity{UserID: uuid.Must(uuid.NewV4()), Role: model.RoleAdmin})
	c.rebind(context.Background())

	prime(t, cs, cache.NewKey(model.KindBookings))
	prime(t, cs, cache.NewView(cache.ViewAdminOffers, "a1"))
	require.Equal(t, 2, cs.Len())

	sessions.set(model.Identity{})
	c.rebind(context.Background())
	require.Zero(t, cs.Len(), "nothing from the old identity survives sign-out")
}

func TestController_NoSubscriptionsWhileRolePending(t *testing.T) {
	feed := &memFeed{}
	sessions := newFakeSessions()
	c := NewController(feed, sessions, cache.New(), &fakeOwners{}, zap.NewNop(), model.Kinds())

	// Signed in, but the deferred role fetch has not resolved yet.
	sessions.set(model.Identity{UserID: uuid.Must(uuid.NewV4())})
	c.rebind(context.Background())

	for _, kind := range model.Kinds() {
		require.Equal(t, StateUnsubscribed, c.State(kind))
	}
}
