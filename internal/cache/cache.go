// Package cache implements the key-addressed entity cache with prefix
// invalidation and single-flight loading.
//
// Entries decouple "data was fetched" from "data must be fetched again":
// invalidation only marks entries stale, the next read repopulates them
// (pull, not push).
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mdimitrov/garagesync/internal/metrics"
	"github.com/mdimitrov/garagesync/internal/model"
)

// Key addresses one cached query result: a root (a resource kind or a
// derived-view name) plus an optional argument suffix
// ("bookings", "bookings/2026-09-01", "available-slots/2026-09-01").
type Key struct {
	Root string
	Args string
}

// NewKey builds a key rooted at a resource kind.
func NewKey(kind model.Kind, args ...string) Key {
	return Key{Root: string(kind), Args: strings.Join(args, "/")}
}

// NewView builds a key rooted at a derived-view name.
func NewView(view string, args ...string) Key {
	return Key{Root: view, Args: strings.Join(args, "/")}
}

func (k Key) String() string {
	if k.Args == "" {
		return k.Root
	}
	return k.Root + "/" + k.Args
}

// Loader fetches a value from the remote gateway when the entry is stale.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	value any
	fresh bool
	ver   uint64 // bumped on every invalidation; guards in-flight loads
}

type watcher struct {
	prefix string
	ch     chan struct{}
}

// Store is the process-wide entity cache. All mutation goes through Read,
// Invalidate and Drop; entries are never handed out for external writes.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	epoch    uint64 // bumped on every Drop; loads begun under an older epoch never re-enter the cache
	watchers []watcher
	group    singleflight.Group
}

// New constructs an empty cache.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Read returns the cached value when the entry is fresh. A stale or absent
// entry triggers the loader, exactly once per staleness transition even under
// concurrent readers of the same key. A failed load leaves the entry stale and
// surfaces the error; failures are never cached.
func (s *Store) Read(ctx context.Context, key Key, loader Loader) (any, error) {
	ks := key.String()

	s.mu.Lock()
	e := s.entries[ks]
	if e == nil {
		// Placeholder so a concurrent Invalidate can bump ver mid-load.
		e = &entry{}
		s.entries[ks] = e
	}
	if e.fresh {
		v := e.value
		s.mu.Unlock()
		metrics.CacheReads.WithLabelValues(key.Root, "hit").Inc()
		return v, nil
	}
	ver := e.ver
	epoch := s.epoch
	s.mu.Unlock()

	// The flight key includes the epoch and the staleness version: each Drop
	// or invalidation starts a new flight, while concurrent readers of the
	// same stale state share one.
	flight := fmt.Sprintf("%s#%d#%d", ks, epoch, ver)
	v, err, _ := s.group.Do(flight, func() (any, error) {
		val, err := loader(ctx)
		if err != nil {
			metrics.CacheReads.WithLabelValues(key.Root, "load_error").Inc()
			return nil, err
		}
		s.mu.Lock()
		// A Drop that landed during the load wins: the result still goes to
		// the caller but must not resurrect the purged entry.
		if s.epoch == epoch {
			if cur := s.entries[ks]; cur != nil {
				cur.value = val
				// An invalidation that landed during the load wins: keep the
				// value available but leave the entry stale so the next read
				// refetches.
				if cur.ver == ver {
					cur.fresh = true
				}
			}
		}
		s.mu.Unlock()
		metrics.CacheReads.WithLabelValues(key.Root, "load").Inc()
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// matchesPrefix reports whether key k falls under prefix p. Matching is
// segment-aware so "bookings" does not cover "bookings-count-by-status".
// The empty prefix matches everything.
func matchesPrefix(k, p string) bool {
	if p == "" {
		return true
	}
	return k == p || strings.HasPrefix(k, p+"/")
}

// Invalidate marks every entry under the prefix as stale and nudges matching
// watchers. Idempotent; invalidating an already stale entry is harmless.
func (s *Store) Invalidate(prefix Key) {
	p := prefix.String()

	s.mu.Lock()
	for k, e := range s.entries {
		if matchesPrefix(k, p) {
			e.fresh = false
			e.ver++
		}
	}
	notify := make([]chan struct{}, 0, len(s.watchers))
	for _, w := range s.watchers {
		if matchesPrefix(w.prefix, p) || matchesPrefix(p, w.prefix) {
			notify = append(notify, w.ch)
		}
	}
	s.mu.Unlock()

	metrics.CacheInvalidations.WithLabelValues(prefix.Root).Inc()
	for _, ch := range notify {
		select {
		case ch <- struct{}{}:
		default: // watcher already has a pending nudge
		}
	}
}

// Watch registers interest in a key prefix. The returned channel receives a
// nudge (coalesced, capacity 1) whenever a matching invalidation happens;
// the consumer is expected to re-read through the cache, not to be pushed data.
func (s *Store) Watch(prefix Key) <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, watcher{prefix: prefix.String(), ch: ch})
	s.mu.Unlock()
	return ch
}

// Drop removes every entry under the prefix. Used on sign-out so one
// identity's rows never survive into the next session; loads still in flight
// when the purge lands complete without re-entering the cache.
func (s *Store) Drop(prefix Key) {
	p := prefix.String()
	s.mu.Lock()
	s.epoch++
	for k := range s.entries {
		if matchesPrefix(k, p) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
}

// Len reports the number of tracked entries (fresh or stale).
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
