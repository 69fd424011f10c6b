package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/repository"
)

// BookingRepo implements BookingRepository using PostgreSQL.
type BookingRepo struct{ db *DB }

// NewBookingRepo constructs a booking repository.
func NewBookingRepo(db *DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = `id, client_id, vehicle_id, service_id, booking_date, booking_time,
duration_minutes, status, notes, created_by, approved_by, created_at, updated_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var serviceID, approvedBy *uuid.UUID
	err := row.Scan(&b.ID, &b.ClientID, &b.VehicleID, &serviceID, &b.BookingDate, &b.BookingTime,
		&b.DurationMinutes, &b.Status, &b.Notes, &b.CreatedBy, &approvedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if serviceID != nil {
		b.ServiceID = *serviceID
	}
	if approvedBy != nil {
		b.ApprovedBy = *approvedBy
	}
	return &b, nil
}

// nilable maps uuid.Nil to a SQL NULL.
func nilable(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// List returns bookings matching the filters, ordered by date then time.
func (r *BookingRepo) List(ctx context.Context, f model.BookingFilters) ([]model.Booking, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ClientID != uuid.Nil {
		conds = append(conds, "client_id="+arg(f.ClientID))
	}
	if f.VehicleID != uuid.Nil {
		conds = append(conds, "vehicle_id="+arg(f.VehicleID))
	}
	if f.Status != "" {
		conds = append(conds, "status="+arg(f.Status))
	}
	if !f.DateFrom.IsZero() {
		conds = append(conds, "booking_date>="+arg(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		conds = append(conds, "booking_date<="+arg(f.DateTo))
	}

	q := `SELECT ` + bookingCols + ` FROM bookings`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY booking_date ASC, booking_time ASC"

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		out = append(out, *b)
	}
	return out, mapErr(rows.Err())
}

// GetByID returns a single booking.
func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	b, err := scanBooking(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

// ListByDate returns all bookings for one calendar date, ordered by time.
func (r *BookingRepo) ListByDate(ctx context.Context, date time.Time) ([]model.Booking, error) {
	return r.List(ctx, model.BookingFilters{DateFrom: date, DateTo: date})
}

// CountByStatus returns booking counts keyed by status.
func (r *BookingRepo) CountByStatus(ctx context.Context) (map[model.BookingStatus]int, error) {
	const q = `SELECT status, count(*) FROM bookings GROUP BY status`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make(map[model.BookingStatus]int)
	for rows.Next() {
		var st model.BookingStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, mapErr(err)
		}
		out[st] = n
	}
	return out, mapErr(rows.Err())
}

// Create inserts a booking and returns the stored row. A non-cancelled booking
// colliding with an occupied slot surfaces as a constraint violation.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) (*model.Booking, error) {
	const q = `
INSERT INTO bookings (id, client_id, vehicle_id, service_id, booking_date, booking_time,
duration_minutes, status, notes, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + bookingCols
	row := r.db.Pool.QueryRow(ctx, q,
		b.ID, b.ClientID, b.VehicleID, nilable(b.ServiceID), b.BookingDate, b.BookingTime,
		b.DurationMinutes, b.Status, b.Notes, b.CreatedBy)
	created, err := scanBooking(row)
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

// Update applies the non-nil fields of patch to the booking.
func (r *BookingRepo) Update(ctx context.Context, id uuid.UUID, patch repository.BookingPatch) (*model.Booking, error) {
	sets := []string{"updated_at=now()"}
	args := []any{id}
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if patch.ServiceID != nil {
		set("service_id", nilable(*patch.ServiceID))
	}
	if patch.BookingDate != nil {
		set("booking_date", *patch.BookingDate)
	}
	if patch.BookingTime != nil {
		set("booking_time", *patch.BookingTime)
	}
	if patch.DurationMinutes != nil {
		set("duration_minutes", *patch.DurationMinutes)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	if patch.ApprovedBy != nil {
		set("approved_by", nilable(*patch.ApprovedBy))
	}

	q := `UPDATE bookings SET ` + strings.Join(sets, ", ") + ` WHERE id=$1 RETURNING ` + bookingCols
	b, err := scanBooking(r.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

// Delete removes the booking.
func (r *BookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM bookings WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
