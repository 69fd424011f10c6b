package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mdimitrov/garagesync/internal/model"
)

type fakeAuth struct {
	mu           sync.Mutex
	sess         *model.Session
	sessErr      error
	signOutErr   error
	currentCalls int
	listener     func(*model.Session)
	onCurrent    func() // runs mid-fetch, before CurrentSession returns
}

func (f *fakeAuth) CurrentSession(context.Context) (*model.Session, error) {
	f.mu.Lock()
	f.currentCalls++
	sess, err := f.sess, f.sessErr
	hook := f.onCurrent
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return sess, err
}

func (f *fakeAuth) OnSessionChange(fn func(*model.Session)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = fn
}

func (f *fakeAuth) SignOut(context.Context) error { return f.signOutErr }

func (f *fakeAuth) fire(sess *model.Session) {
	f.mu.Lock()
	fn := f.listener
	f.mu.Unlock()
	if fn != nil {
		fn(sess)
	}
}

func (f *fakeAuth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentCalls
}

type fakeRoles struct {
	mu    sync.Mutex
	roles map[uuid.UUID]model.Role
	err   error
	gate  chan struct{} // when set, RoleOf blocks until closed
}

func (f *fakeRoles) RoleOf(_ context.Context, userID uuid.UUID) (model.Role, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.roles[userID], nil
}

func runStore(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Run(ctx)
}

func TestStore_Initialize_Idempotent(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{sess: &model.Session{UserID: userID, Token: "tok"}}
	roles := &fakeRoles{roles: map[uuid.UUID]model.Role{userID: model.RoleAdmin}}
	s := New(auth, roles, zap.NewNop())

	s.Initialize(context.Background())
	s.Initialize(context.Background())

	require.Equal(t, 1, auth.calls(), "remote session fetch must happen once")
	require.True(t, s.Ready())
	id := s.Identity()
	require.Equal(t, userID, id.UserID)
	require.Equal(t, model.RoleAdmin, id.Role)
}

func TestStore_Initialize_FailsSoft(t *testing.T) {
	auth := &fakeAuth{sessErr: errors.New("network down")}
	s := New(auth, &fakeRoles{}, zap.NewNop())

	s.Initialize(context.Background())

	require.True(t, s.Ready(), "ready must be set even on failure")
	require.False(t, s.Identity().Authenticated())
	require.NotNil(t, auth.listener, "listener registered so a later sign-in recovers")
}

func TestStore_Initialize_SignInDuringRestoreWins(t *testing.T) {
	stale := uuid.Must(uuid.NewV4())
	fresh := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{sess: &model.Session{UserID: stale, Token: "old"}}
	roles := &fakeRoles{roles: map[uuid.UUID]model.Role{
		stale: model.RoleAdmin,
		fresh: model.RoleClient,
	}}
	s := New(auth, roles, zap.NewNop())
	runStore(t, s)

	// A sign-in lands through the listener while the restore fetch is still
	// in flight. The restored snapshot is older and must not win.
	auth.onCurrent = func() { auth.fire(&model.Session{UserID: fresh, Token: "new"}) }
	s.Initialize(context.Background())

	require.Equal(t, fresh, s.Identity().UserID)
	require.Eventually(t, func() bool {
		return s.Identity().Role == model.RoleClient
	}, time.Second, time.Millisecond)
}

func TestStore_SessionChange_DeferredRoleFetch(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{}
	roles := &fakeRoles{roles: map[uuid.UUID]model.Role{userID: model.RoleClient}}
	s := New(auth, roles, zap.NewNop())
	runStore(t, s)

	s.Initialize(context.Background())
	auth.fire(&model.Session{UserID: userID, Token: "tok"})

	// Identity is swapped synchronously; role is empty until the deferred
	// fetch lands.
	require.Equal(t, userID, s.Identity().UserID)
	require.Eventually(t, func() bool {
		return s.Identity().Role == model.RoleClient
	}, time.Second, time.Millisecond)
}

func TestStore_StaleRoleFetchDiscarded(t *testing.T) {
	alice := uuid.Must(uuid.NewV4())
	bob := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{}
	gate := make(chan struct{})
	roles := &fakeRoles{
		roles: map[uuid.UUID]model.Role{alice: model.RoleAdmin, bob: model.RoleClient},
		gate:  gate,
	}
	s := New(auth, roles, zap.NewNop())
	runStore(t, s)

	s.Initialize(context.Background())
	auth.fire(&model.Session{UserID: alice, Token: "a"})
	// Identity changes while alice's role lookup is still blocked.
	auth.fire(&model.Session{UserID: bob, Token: "b"})
	close(gate)

	require.Eventually(t, func() bool {
		return s.Identity().Role == model.RoleClient
	}, time.Second, time.Millisecond)
	require.Equal(t, bob, s.Identity().UserID)
	require.NotEqual(t, model.RoleAdmin, s.Identity().Role,
		"alice's stale role must not leak into bob's identity")
}

func TestStore_SignOut_FailureLeavesIdentity(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{
		sess:       &model.Session{UserID: userID, Token: "tok"},
		signOutErr: errors.New("gateway unavailable"),
	}
	roles := &fakeRoles{roles: map[uuid.UUID]model.Role{userID: model.RoleClient}}
	s := New(auth, roles, zap.NewNop())
	s.Initialize(context.Background())

	err := s.SignOut(context.Background())
	require.Error(t, err)
	require.Equal(t, userID, s.Identity().UserID, "identity unchanged on failed sign-out")

	auth.signOutErr = nil
	require.NoError(t, s.SignOut(context.Background()))
	require.False(t, s.Identity().Authenticated())
}

func TestStore_SignOutViaNotification(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())
	auth := &fakeAuth{sess: &model.Session{UserID: userID, Token: "tok"}}
	roles := &fakeRoles{roles: map[uuid.UUID]model.Role{userID: model.RoleClient}}
	s := New(auth, roles, zap.NewNop())
	runStore(t, s)
	s.Initialize(context.Background())

	gen := s.Generation()
	auth.fire(nil)
	require.False(t, s.Identity().Authenticated())
	require.Greater(t, s.Generation(), gen)
}
