// Package repository declares data-access interfaces implemented by the
// postgres subpackage. Every query is scoped by explicit identifiers; callers
// are expected to run authorization checks before writing.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/model"
)

// BookingRepository provides CRUD and derived views over bookings.
type BookingRepository interface {
	// List returns bookings matching the filters, ordered by date then time.
	List(ctx context.Context, f model.BookingFilters) ([]model.Booking, error)

	// GetByID returns a single booking.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)

	// ListByDate returns all bookings for one calendar date, ordered by time.
	ListByDate(ctx context.Context, date time.Time) ([]model.Booking, error)

	// CountByStatus returns booking counts keyed by status.
	CountByStatus(ctx context.Context) (map[model.BookingStatus]int, error)

	// Create inserts a booking and returns the stored row.
	Create(ctx context.Context, b *model.Booking) (*model.Booking, error)

	// Update applies the non-zero fields of patch to the booking.
	Update(ctx context.Context, id uuid.UUID, patch BookingPatch) (*model.Booking, error)

	// Delete removes the booking.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingPatch carries partial booking updates; nil fields are left untouched.
type BookingPatch struct {
	ServiceID       *uuid.UUID
	BookingDate     *time.Time
	BookingTime     *string
	DurationMinutes *int
	Status          *model.BookingStatus
	Notes           *string
	ApprovedBy      *uuid.UUID
}
