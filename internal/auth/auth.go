// Package auth is the account and session boundary: registration, sign-in
// with rate limiting, token issuance and the session-change notifications the
// session store consumes.
package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/mdimitrov/garagesync/internal/crypto"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/limiter"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/repository"
)

const minPasswordLen = 8

// Service implements the auth operations and the session.AuthGateway surface.
type Service struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	clients  repository.ClientRepository
	lim      limiter.Limiter
	signKey  []byte
	tokenTTL time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	current   *model.Session
	listeners []func(*model.Session)
}

// New constructs the auth service.
func New(users repository.UserRepository, profiles repository.ProfileRepository, clients repository.ClientRepository, lim limiter.Limiter, signKey []byte, tokenTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		clients:  clients,
		lim:      lim,
		signKey:  signKey,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q", errs.ErrValidation, email)
	}
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password shorter than %d characters", errs.ErrValidation, minPasswordLen)
	}
	return nil
}

// Register creates the auth account, its client-role profile and the linked
// customer record. Self-registered users always start as clients; admin
// accounts are promoted directly in the profiles table.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (uuid.UUID, error) {
	if err := validateCredentials(email, password); err != nil {
		return uuid.Nil, err
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return uuid.Nil, err
	}

	u := &model.User{
		ID:      uid,
		Email:   email,
		PwdHash: pkgcrypto.Hash(password, salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	if err := s.profiles.Create(ctx, &model.Profile{ID: uid, FullName: fullName, Role: model.RoleClient}); err != nil {
		return uuid.Nil, err
	}

	clientID, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	_, err = s.clients.Create(ctx, &model.Client{
		ID:     clientID,
		UserID: uid,
		Name:   fullName,
		Email:  email,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return uid, nil
}

// SignInWithIP authenticates with rate limiting keyed by (email, ip). A wrong
// password and an unknown account are indistinguishable to the caller.
func (s *Service) SignInWithIP(ctx context.Context, email, password, ip string) (*model.Session, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.Verify(password, u.Salt, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return nil, errs.ErrRateLimited
		}
		return nil, errs.ErrUnauthenticated
	}

	// Best effort: a reset failure must not fail a correct sign-in.
	_ = s.lim.Success(ctx, email, ipHash)

	token, exp, err := s.issueToken(u.ID)
	if err != nil {
		return nil, err
	}
	sess := &model.Session{UserID: u.ID, Token: token, ExpiresAt: exp}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	s.fire(sess)
	return sess, nil
}

// UpdatePassword replaces the password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password shorter than %d characters", errs.ErrValidation, minPasswordLen)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !pkgcrypto.Verify(current, u.Salt, u.PwdHash) {
		return errs.ErrUnauthenticated
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, userID, pkgcrypto.Hash(next, salt), salt)
}

// ResetPassword overwrites the account's password with a random one and
// returns it for out-of-band delivery.
func (s *Service) ResetPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	raw, err := pkgcrypto.NewSalt()
	if err != nil {
		return "", err
	}
	next := hex.EncodeToString(raw)
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return "", err
	}
	if err := s.users.SetPassword(ctx, u.ID, pkgcrypto.Hash(next, salt), salt); err != nil {
		return "", err
	}
	return next, nil
}

// CurrentSession returns the live session, or nil when signed out or expired.
func (s *Service) CurrentSession(_ context.Context) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, nil
	}
	if !s.current.ExpiresAt.IsZero() && s.current.ExpiresAt.Before(time.Now()) {
		s.current = nil
		return nil, nil
	}
	cp := *s.current
	return &cp, nil
}

// OnSessionChange registers a listener fired on sign-in and sign-out.
// Listeners run synchronously and must not make remote calls.
func (s *Service) OnSessionChange(fn func(*model.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SignOut clears the session and notifies listeners.
func (s *Service) SignOut(context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.fire(nil)
	return nil
}

func (s *Service) fire(sess *model.Session) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(sess)
	}
}

// issueToken creates a signed HS256 JWT for the subject.
func (s *Service) issueToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return signed, exp, err
}

// ParseToken verifies a token's signature and expiry and returns its subject.
func (s *Service) ParseToken(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}
	uid, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthenticated)
	}
	return uid, nil
}
