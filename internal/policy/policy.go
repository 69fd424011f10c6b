// Package policy answers "may this identity see or act on this row" without
// remote calls. It is a UX/optimization layer mirroring the access rules the
// data store enforces on its own; it is not a security boundary.
package policy

import (
	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// Action is a mutation verb checked by CanMutate.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionApprove  Action = "approve"  // bookings, admin only
	ActionComplete Action = "complete" // bookings, admin only
	ActionCancel   Action = "cancel"   // bookings, owner or admin
	ActionAccept   Action = "accept"   // offers, owner
	ActionDecline  Action = "decline"  // offers, owner
)

// catalog kinds are readable by any signed-in identity regardless of ownership.
func isCatalog(kind model.Kind) bool {
	return kind == model.KindParts || kind == model.KindServices
}

// CanSee reports whether the identity may observe the row. ownClientID is the
// client row linked to the identity's user account (uuid.Nil when unknown or
// not yet resolved). The decision uses only the linkage already present on the
// row; when the row carries neither a user id nor a client id the caller must
// resolve the chain first and call again, or deny.
func CanSee(id model.Identity, kind model.Kind, row model.Row, ownClientID uuid.UUID) bool {
	if !id.Authenticated() || id.Role == "" {
		// An empty role is "role fetch still pending", not guest: deny for now.
		return false
	}
	if id.Role == model.RoleAdmin {
		return true
	}
	if isCatalog(kind) {
		return true
	}
	if row.UserID != uuid.Nil {
		return row.UserID == id.UserID
	}
	if row.ClientID != uuid.Nil && ownClientID != uuid.Nil {
		return row.ClientID == ownClientID
	}
	if kind == model.KindClients {
		return row.ID != uuid.Nil && row.ID == ownClientID
	}
	return false
}

// CanMutate reports whether the identity may apply the action to the row.
// Clients get a restricted verb set on their own rows; status overrides
// (approve, complete) and catalog writes stay admin-only.
func CanMutate(id model.Identity, kind model.Kind, row model.Row, action Action, ownClientID uuid.UUID) bool {
	if !id.Authenticated() || id.Role == "" {
		return false
	}
	if id.Role == model.RoleAdmin {
		return true
	}

	owns := CanSee(id, kind, row, ownClientID) && !isCatalog(kind)
	switch kind {
	case model.KindBookings:
		switch action {
		case ActionCreate:
			return row.ClientID != uuid.Nil && row.ClientID == ownClientID
		case ActionCancel:
			return owns
		}
	case model.KindOffers:
		switch action {
		case ActionAccept, ActionDecline:
			return owns
		}
	}
	return false
}
