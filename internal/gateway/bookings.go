package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/cache"
	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/repository"
)

// Working hours: one slot per full hour, last slot starts an hour before close.
const (
	openHour  = 8
	closeHour = 18
)

const dateFormat = "2006-01-02"

// filterArgs renders the non-zero filters into cache key arguments, so every
// distinct filtered listing gets its own entry under the "bookings" prefix.
func filterArgs(f model.BookingFilters) []string {
	var args []string
	if f.ClientID != uuid.Nil {
		args = append(args, "client", f.ClientID.String())
	}
	if f.VehicleID != uuid.Nil {
		args = append(args, "vehicle", f.VehicleID.String())
	}
	if f.Status != "" {
		args = append(args, "status", string(f.Status))
	}
	if !f.DateFrom.IsZero() {
		args = append(args, "from", f.DateFrom.Format(dateFormat))
	}
	if !f.DateTo.IsZero() {
		args = append(args, "to", f.DateTo.Format(dateFormat))
	}
	return args
}

// Bookings lists bookings matching the filters, served from cache.
func (g *Gateway) Bookings(ctx context.Context, f model.BookingFilters) ([]model.Booking, error) {
	key := cache.NewKey(model.KindBookings, filterArgs(f)...)
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Booking, error) {
		return g.bookings.List(ctx, f)
	})
}

// MyBookings lists one client's bookings under the client-scoped view key.
func (g *Gateway) MyBookings(ctx context.Context, clientID uuid.UUID) ([]model.Booking, error) {
	key := cache.NewView(cache.ViewMyBookings, clientID.String())
	return cached(ctx, g, key, func(ctx context.Context) ([]model.Booking, error) {
		return g.bookings.List(ctx, model.BookingFilters{ClientID: clientID})
	})
}

// Booking returns a single booking by id.
func (g *Gateway) Booking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	key := cache.NewKey(model.KindBookings, "id", id.String())
	return cached(ctx, g, key, func(ctx context.Context) (*model.Booking, error) {
		return g.bookings.GetByID(ctx, id)
	})
}

// AvailableSlots returns the derived per-hour availability for one date.
// Cancelled bookings do not block their slot.
func (g *Gateway) AvailableSlots(ctx context.Context, date time.Time) ([]model.TimeSlot, error) {
	key := cache.NewView(cache.ViewAvailableSlots, date.Format(dateFormat))
	return cached(ctx, g, key, func(ctx context.Context) ([]model.TimeSlot, error) {
		day, err := g.bookings.ListByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		return buildSlots(day), nil
	})
}

func buildSlots(day []model.Booking) []model.TimeSlot {
	blocked := make(map[string]*model.Booking, len(day))
	for i := range day {
		b := &day[i]
		if b.Status == model.BookingCancelled {
			continue
		}
		blocked[b.BookingTime] = b
	}
	slots := make([]model.TimeSlot, 0, closeHour-openHour)
	for h := openHour; h < closeHour; h++ {
		at := fmt.Sprintf("%02d:00:00", h)
		if b, ok := blocked[at]; ok {
			slots = append(slots, model.TimeSlot{Time: at, Booking: b})
			continue
		}
		slots = append(slots, model.TimeSlot{Time: at, Available: true})
	}
	return slots
}

// BookingsCountByStatus returns the derived status histogram.
func (g *Gateway) BookingsCountByStatus(ctx context.Context) (map[model.BookingStatus]int, error) {
	key := cache.NewView(cache.ViewBookingsByState)
	return cached(ctx, g, key, func(ctx context.Context) (map[model.BookingStatus]int, error) {
		return g.bookings.CountByStatus(ctx)
	})
}

func validateBooking(b *model.Booking) error {
	switch {
	case b.ClientID == uuid.Nil:
		return fmt.Errorf("%w: client id is required", errs.ErrValidation)
	case b.VehicleID == uuid.Nil:
		return fmt.Errorf("%w: vehicle id is required", errs.ErrValidation)
	case b.BookingDate.IsZero():
		return fmt.Errorf("%w: booking date is required", errs.ErrValidation)
	}
	at, err := time.Parse("15:04:05", b.BookingTime)
	if err != nil {
		return fmt.Errorf("%w: booking time %q", errs.ErrValidation, b.BookingTime)
	}
	if h := at.Hour(); h < openHour || h >= closeHour {
		return fmt.Errorf("%w: booking time %q outside working hours", errs.ErrValidation, b.BookingTime)
	}
	return nil
}

// CreateBooking inserts a booking. New bookings start pending until an admin
// confirms them.
func (g *Gateway) CreateBooking(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	if err := validateBooking(b); err != nil {
		return nil, err
	}
	if err := ensureID(&b.ID); err != nil {
		return nil, err
	}
	if b.Status == "" {
		b.Status = model.BookingPending
	}
	stored, err := g.bookings.Create(ctx, b)
	if err != nil {
		return nil, g.failed(model.KindBookings, err)
	}
	g.wrote(ctx, model.KindBookings, model.EventInsert, model.Row{ID: stored.ID, ClientID: stored.ClientID})
	return stored, nil
}

// UpdateBooking applies a partial update.
func (g *Gateway) UpdateBooking(ctx context.Context, id uuid.UUID, patch repository.BookingPatch) (*model.Booking, error) {
	stored, err := g.bookings.Update(ctx, id, patch)
	if err != nil {
		return nil, g.failed(model.KindBookings, err)
	}
	g.wrote(ctx, model.KindBookings, model.EventUpdate, model.Row{ID: stored.ID, ClientID: stored.ClientID})
	return stored, nil
}

// ApproveBooking confirms a pending booking and records the approving admin.
func (g *Gateway) ApproveBooking(ctx context.Context, id, adminID uuid.UUID) (*model.Booking, error) {
	status := model.BookingConfirmed
	return g.UpdateBooking(ctx, id, repository.BookingPatch{Status: &status, ApprovedBy: &adminID})
}

// CompleteBooking marks a booking as done.
func (g *Gateway) CompleteBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	status := model.BookingCompleted
	return g.UpdateBooking(ctx, id, repository.BookingPatch{Status: &status})
}

// CancelBooking frees the slot; the row stays for history.
func (g *Gateway) CancelBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	status := model.BookingCancelled
	return g.UpdateBooking(ctx, id, repository.BookingPatch{Status: &status})
}

// DeleteBooking removes the booking row entirely.
func (g *Gateway) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	b, err := g.bookings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := g.bookings.Delete(ctx, id); err != nil {
		return g.failed(model.KindBookings, err)
	}
	g.wrote(ctx, model.KindBookings, model.EventDelete, model.Row{ID: id, ClientID: b.ClientID})
	return nil
}
