// Package session holds the process-wide authenticated-identity state.
//
// There is exactly one Store per running client. All writes go through its
// own mutators; reads are cheap and safe from any goroutine. Work that cannot
// run inside the auth gateway's notification callback (further remote calls
// would deadlock the notification transport) is enqueued and executed by the
// Run loop instead.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/model"
)

// AuthGateway is the remote session boundary the store consumes.
type AuthGateway interface {
	// CurrentSession returns the live session, or nil when signed out.
	CurrentSession(ctx context.Context) (*model.Session, error)
	// OnSessionChange registers a callback fired on sign-in, sign-out and
	// token refresh. The callback must not make remote calls.
	OnSessionChange(fn func(*model.Session))
	// SignOut terminates the remote session.
	SignOut(ctx context.Context) error
}

// RoleResolver looks up the role attached to a user account.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID uuid.UUID) (model.Role, error)
}

// Store is the single source of truth for "who is signed in, with what role".
type Store struct {
	auth  AuthGateway
	roles RoleResolver
	log   *zap.Logger

	mu          sync.RWMutex
	identity    model.Identity
	gen         uint64
	ready       bool
	initialized bool
	watchers    []chan struct{}

	tasksMu sync.Mutex
	tasks   []func(context.Context)
	wake    chan struct{}
}

// New constructs a Store. Run must be started for deferred work
// (role resolution after session changes) to execute.
func New(auth AuthGateway, roles RoleResolver, log *zap.Logger) *Store {
	return &Store{
		auth:  auth,
		roles: roles,
		log:   log,
		wake:  make(chan struct{}, 1),
	}
}

// Initialize registers the change listener, then restores the current
// session. Idempotent: the remote fetch happens at most once per process.
// Every failure is soft; the store comes up "unauthenticated", the app
// renders a logged-out state and ready is set regardless of outcome.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ready = true
		s.mu.Unlock()
	}()

	// The listener goes in before the restore fetch so a sign-in delivered
	// while the fetch is in flight is not lost.
	s.auth.OnSessionChange(s.onSessionChanged)

	sess, err := s.auth.CurrentSession(ctx)
	if err != nil {
		s.log.Warn("session restore failed, starting unauthenticated", zap.Error(err))
	} else if sess != nil {
		id := model.Identity{UserID: sess.UserID, Token: sess.Token}
		if role, err := s.roles.RoleOf(ctx, sess.UserID); err != nil {
			s.log.Warn("role lookup failed", zap.Stringer("user_id", sess.UserID), zap.Error(err))
		} else {
			id.Role = role
		}
		s.mu.Lock()
		// A change delivered during the restore already set a newer identity;
		// the restored snapshot must not clobber it.
		if s.gen == 0 {
			s.identity = id
			s.gen++
		}
		s.mu.Unlock()
	}
	s.notify()
}

// onSessionChanged runs on the auth gateway's notification context. The
// identity swap is synchronous; the role fetch is deferred to the Run loop
// because remote calls are forbidden here.
func (s *Store) onSessionChanged(sess *model.Session) {
	s.mu.Lock()
	if sess == nil {
		s.identity = model.Identity{}
		s.gen++
		s.mu.Unlock()
		s.notify()
		return
	}
	s.identity = model.Identity{UserID: sess.UserID, Token: sess.Token}
	s.gen++
	gen := s.gen
	uid := sess.UserID
	s.mu.Unlock()
	s.notify()

	s.enqueue(func(ctx context.Context) {
		role, err := s.roles.RoleOf(ctx, uid)
		if err != nil {
			s.log.Warn("deferred role lookup failed", zap.Stringer("user_id", uid), zap.Error(err))
			return
		}
		s.mu.Lock()
		// The identity may have changed while the lookup was in flight;
		// a stale result must not leak into the new identity.
		if s.gen == gen {
			s.identity.Role = role
		}
		s.mu.Unlock()
		s.notify()
	})
}

// SignOut terminates the remote session. On failure the identity stays as it
// was and the error is returned; sign-out failure is user-visible.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.auth.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.mu.Lock()
	s.identity = model.Identity{}
	s.gen++
	s.mu.Unlock()
	s.notify()
	return nil
}

// Identity returns the current identity snapshot. Role may be empty right
// after a session change, until the deferred role fetch resolves.
func (s *Store) Identity() model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Generation increments on every identity change. Long-running tasks capture
// it before a remote call and discard their result if it moved.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Ready reports whether Initialize has completed (successfully or not).
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Changes returns a channel nudged (coalesced) on every identity change.
func (s *Store) Changes() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify() {
	s.mu.RLock()
	watchers := s.watchers
	s.mu.RUnlock()
	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) enqueue(fn func(context.Context)) {
	s.tasksMu.Lock()
	s.tasks = append(s.tasks, fn)
	s.tasksMu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run executes deferred tasks in order until the context is cancelled.
// Exactly one Run loop should be active per store.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for {
			s.tasksMu.Lock()
			if len(s.tasks) == 0 {
				s.tasksMu.Unlock()
				break
			}
			fn := s.tasks[0]
			s.tasks = s.tasks[1:]
			s.tasksMu.Unlock()
			fn(ctx)
		}
	}
}
