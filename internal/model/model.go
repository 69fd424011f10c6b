// Package model defines domain entities used by services, repositories and the sync layer.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Kind identifies a resource table tracked by the cache and the realtime feed.
type Kind string

const (
	KindClients  Kind = "clients"
	KindVehicles Kind = "vehicles"
	KindRepairs  Kind = "repairs"
	KindParts    Kind = "parts"
	KindServices Kind = "services"
	KindBookings Kind = "bookings"
	KindOffers   Kind = "offers"
)

// Kinds lists every tracked resource kind.
func Kinds() []Kind {
	return []Kind{
		KindClients, KindVehicles, KindRepairs, KindParts,
		KindServices, KindBookings, KindOffers,
	}
}

// Role is the access level attached to a profile.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Session is an authenticated session handle issued by the auth service.
type Session struct {
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// Identity is the process-wide view of "who is signed in".
// Role may be empty for a short window after sign-in, until the deferred
// role fetch resolves; consumers must treat an empty role as "not yet
// authorized for role-gated views", not as guest.
type Identity struct {
	UserID uuid.UUID
	Role   Role
	Token  string
}

// Authenticated reports whether a user is attached to the identity.
func (i Identity) Authenticated() bool { return i.UserID != uuid.Nil }

// Profile is the per-user role record (profiles table).
type Profile struct {
	ID        uuid.UUID // equals users.id
	FullName  string
	Role      Role
	CreatedAt time.Time
}

// User is an auth account. Password material is never stored in plaintext.
type User struct {
	ID        uuid.UUID
	Email     string // unique
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte
	CreatedAt time.Time
}

// Client is a shop customer; UserID links it to an auth account when the
// customer self-registered (uuid.Nil for walk-ins created by an admin).
type Client struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Phone     string
	Email     string
	Address   string
	Notes     string
	CreatedAt time.Time
}

// Vehicle belongs to a client.
type Vehicle struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	Make         string
	Model        string
	Year         int
	LicensePlate string
	Mileage      int
	CreatedAt    time.Time
}

// Repair is a finished or in-progress workshop job on a vehicle.
type Repair struct {
	ID               uuid.UUID
	VehicleID        uuid.UUID
	ServiceID        uuid.UUID
	Date             time.Time
	Description      string
	TotalCost        float64
	MileageAtService int
	CreatedAt        time.Time
}

// RepairPart is a part consumed by a repair.
type RepairPart struct {
	ID       uuid.UUID
	RepairID uuid.UUID
	PartID   uuid.UUID
	Quantity int
	Price    float64
}

// RepairService is an extra labor line attached to a repair.
type RepairService struct {
	ID        uuid.UUID
	RepairID  uuid.UUID
	ServiceID uuid.UUID
	Price     float64
}

// Part is a catalog part.
type Part struct {
	ID        uuid.UUID
	Name      string
	Brand     string
	OEMCode   string
	Price     float64
	CreatedAt time.Time
}

// Service is a catalog labor item.
type Service struct {
	ID           uuid.UUID
	Name         string
	DefaultPrice float64
	Description  string
	CreatedAt    time.Time
}

// BookingStatus enumerates the booking lifecycle.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is a scheduled visit. ClientID is the owner linkage.
type Booking struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	VehicleID       uuid.UUID
	ServiceID       uuid.UUID // uuid.Nil when no catalog service selected
	BookingDate     time.Time // date component only
	BookingTime     string    // HH:MM:SS
	DurationMinutes int
	Status          BookingStatus
	Notes           string
	CreatedBy       uuid.UUID
	ApprovedBy      uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BookingFilters narrows booking listings. Zero values mean "no filter".
type BookingFilters struct {
	ClientID  uuid.UUID
	VehicleID uuid.UUID
	Status    BookingStatus
	DateFrom  time.Time
	DateTo    time.Time
}

// TimeSlot is a derived availability entry for one working hour.
type TimeSlot struct {
	Time      string // HH:MM:SS
	Available bool
	Booking   *Booking // the blocking booking, when not available
}

// OfferStatus enumerates the offer lifecycle.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferDeclined OfferStatus = "declined"
)

// Offer is a price quote prepared by an admin for a client.
type Offer struct {
	ID          uuid.UUID
	AdminID     uuid.UUID
	ClientID    uuid.UUID
	RepairID    uuid.UUID // uuid.Nil until linked to a repair
	Title       string
	Description string
	LaborCost   float64
	TotalAmount float64
	Status      OfferStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Parts    []OfferPart
	Services []OfferService
}

// OfferPart is a priced part line on an offer.
type OfferPart struct {
	ID       uuid.UUID
	OfferID  uuid.UUID
	PartID   uuid.UUID
	Name     string
	Quantity int
	Price    float64
}

// OfferService is a priced labor line on an offer.
type OfferService struct {
	ID        uuid.UUID
	OfferID   uuid.UUID
	ServiceID uuid.UUID
	Name      string
	Price     float64
}

// EventType is the change-notification verb.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Row is the linkage snapshot a change event carries about the affected
// record: the row id plus the direct owner linkage when the table has one.
type Row struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id,omitempty"`
	UserID   uuid.UUID `json:"user_id,omitempty"`
}

// ChangeEvent is a single realtime notification. Consumed once and discarded.
type ChangeEvent struct {
	Kind   Kind      `json:"kind"`
	Type   EventType `json:"type"`
	Before *Row      `json:"before,omitempty"`
	After  *Row      `json:"after,omitempty"`
}

// Affected returns the row the event is about: After, or Before for deletes.
func (e ChangeEvent) Affected() *Row {
	if e.After != nil {
		return e.After
	}
	return e.Before
}
