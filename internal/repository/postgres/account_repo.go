package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new auth account.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, pwd_hash, salt)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PwdHash, u.Salt)
	return mapErr(err)
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT id, email, pwd_hash, salt, created_at FROM users WHERE id=$1`
	var u model.User
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.PwdHash, &u.Salt, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT id, email, pwd_hash, salt, created_at FROM users WHERE email=$1`
	var u model.User
	err := r.db.Pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.PwdHash, &u.Salt, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// SetPassword replaces the stored hash and salt.
func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, pwdHash, salt []byte) error {
	const q = `UPDATE users SET pwd_hash=$2, salt=$3 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, pwdHash, salt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Create inserts a profile row for a user.
func (r *ProfileRepo) Create(ctx context.Context, p *model.Profile) error {
	const q = `INSERT INTO profiles (id, full_name, role) VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, p.ID, p.FullName, p.Role)
	return mapErr(err)
}

// GetByID selects a profile by user ID.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	const q = `SELECT id, full_name, role, created_at FROM profiles WHERE id=$1`
	var p model.Profile
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.FullName, &p.Role, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// RoleOf returns the role attached to the user's profile.
func (r *ProfileRepo) RoleOf(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	const q = `SELECT role FROM profiles WHERE id=$1`
	var role model.Role
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&role); err != nil {
		return "", mapErr(err)
	}
	return role, nil
}

// OwnerRepo implements OwnerResolver using PostgreSQL.
type OwnerRepo struct{ db *DB }

// NewOwnerRepo constructs an owner-linkage resolver.
func NewOwnerRepo(db *DB) *OwnerRepo { return &OwnerRepo{db: db} }

func (r *OwnerRepo) scanOwner(ctx context.Context, q string, id uuid.UUID) (uuid.UUID, error) {
	var owner *uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&owner); err != nil {
		return uuid.Nil, mapErr(err)
	}
	if owner == nil {
		return uuid.Nil, nil // row exists but has no linked account
	}
	return *owner, nil
}

// OwnerOfClient returns the user id linked to a client row.
func (r *OwnerRepo) OwnerOfClient(ctx context.Context, clientID uuid.UUID) (uuid.UUID, error) {
	return r.scanOwner(ctx, `SELECT user_id FROM clients WHERE id=$1`, clientID)
}

// OwnerOfBooking resolves booking -> client -> user in one query.
func (r *OwnerRepo) OwnerOfBooking(ctx context.Context, bookingID uuid.UUID) (uuid.UUID, error) {
	const q = `
SELECT c.user_id
FROM bookings b
JOIN clients c ON c.id = b.client_id
WHERE b.id=$1`
	return r.scanOwner(ctx, q, bookingID)
}

// OwnerOfOffer resolves offer -> client -> user in one query.
func (r *OwnerRepo) OwnerOfOffer(ctx context.Context, offerID uuid.UUID) (uuid.UUID, error) {
	const q = `
SELECT c.user_id
FROM offers o
JOIN clients c ON c.id = o.client_id
WHERE o.id=$1`
	return r.scanOwner(ctx, q, offerID)
}

// ClientOfUser returns the client row id linked to a user account.
func (r *OwnerRepo) ClientOfUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, `SELECT id FROM clients WHERE user_id=$1`, userID).Scan(&id); err != nil {
		return uuid.Nil, mapErr(err)
	}
	return id, nil
}
