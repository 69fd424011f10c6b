package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// UserRepository stores auth accounts.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// SetPassword replaces the stored hash and salt.
	SetPassword(ctx context.Context, id uuid.UUID, pwdHash, salt []byte) error
}

// ProfileRepository stores per-user role records.
type ProfileRepository interface {
	Create(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	// RoleOf returns the role attached to the user's profile.
	RoleOf(ctx context.Context, userID uuid.UUID) (model.Role, error)
}

// OwnerResolver resolves owner-linkage chains for authorization checks.
// Each call is a single lookup; callers decide what a miss means.
type OwnerResolver interface {
	// OwnerOfClient returns the user id linked to a client row
	// (uuid.Nil when the client has no account).
	OwnerOfClient(ctx context.Context, clientID uuid.UUID) (uuid.UUID, error)

	// OwnerOfBooking resolves booking -> client -> user.
	OwnerOfBooking(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error)

	// OwnerOfOffer resolves offer -> client -> user.
	OwnerOfOffer(ctx context.Context, offerID uuid.UUID) (uuid.UUID, error)

	// ClientOfUser returns the client row id linked to a user account.
	ClientOfUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}
