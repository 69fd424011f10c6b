package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mdimitrov/garagesync/internal/errs"
	"github.com/mdimitrov/garagesync/internal/model"
	"github.com/mdimitrov/garagesync/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func bookingRows(b model.Booking) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "client_id", "vehicle_id", "service_id", "booking_date", "booking_time",
		"duration_minutes", "status", "notes", "created_by", "approved_by", "created_at", "updated_at",
	}).AddRow(
		b.ID, b.ClientID, b.VehicleID, nilable(b.ServiceID), b.BookingDate, b.BookingTime,
		b.DurationMinutes, b.Status, b.Notes, b.CreatedBy, nilable(b.ApprovedBy), b.CreatedAt, b.UpdatedAt,
	)
}

func sampleBooking() model.Booking {
	return model.Booking{
		ID:              uuid.Must(uuid.NewV4()),
		ClientID:        uuid.Must(uuid.NewV4()),
		VehicleID:       uuid.Must(uuid.NewV4()),
		ServiceID:       uuid.Must(uuid.NewV4()),
		BookingDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		BookingTime:     "10:00:00",
		DurationMinutes: 60,
		Status:          model.BookingPending,
		CreatedBy:       uuid.Must(uuid.NewV4()),
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
}

func TestBookingRepo_Create_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	b := sampleBooking()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(b.ID, b.ClientID, b.VehicleID, nilable(b.ServiceID), b.BookingDate, b.BookingTime,
			b.DurationMinutes, b.Status, b.Notes, b.CreatedBy).
		WillReturnRows(bookingRows(b))

	created, err := r.Create(context.Background(), &b)
	require.NoError(t, err)
	require.Equal(t, b.ID, created.ID)
	require.Equal(t, b.ServiceID, created.ServiceID)
	require.Equal(t, uuid.Nil, created.ApprovedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Create_SlotTaken(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	b := sampleBooking()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(b.ID, b.ClientID, b.VehicleID, nilable(b.ServiceID), b.BookingDate, b.BookingTime,
			b.DurationMinutes, b.Status, b.Notes, b.CreatedBy).
		WillReturnError(&pgconn.PgError{Code: "23P01", Message: "slot already booked"})

	_, err := r.Create(context.Background(), &b)
	require.ErrorIs(t, err, errs.ErrConstraint)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetByID(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestBookingRepo_List_Filters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	b := sampleBooking()
	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE client_id=\$1 AND status=\$2 ORDER BY booking_date ASC, booking_time ASC`).
		WithArgs(b.ClientID, model.BookingPending).
		WillReturnRows(bookingRows(b))

	out, err := r.List(context.Background(), model.BookingFilters{
		ClientID: b.ClientID,
		Status:   model.BookingPending,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, b.ID, out[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Update_StatusOnly(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	b := sampleBooking()
	b.Status = model.BookingCancelled
	st := model.BookingCancelled
	mock.ExpectQuery(`UPDATE bookings SET updated_at=now\(\), status=\$2 WHERE id=\$1`).
		WithArgs(b.ID, st).
		WillReturnRows(bookingRows(b))

	updated, err := r.Update(context.Background(), b.ID, repository.BookingPatch{Status: &st})
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepo_Delete_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectExec(`DELETE FROM bookings WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, r.Delete(context.Background(), id), errs.ErrNotFound)
}

func TestBookingRepo_CountByStatus(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBookingRepo(db)

	mock.ExpectQuery(`SELECT status, count\(\*\) FROM bookings GROUP BY status`).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(model.BookingPending, 3).
			AddRow(model.BookingConfirmed, 1))

	out, err := r.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, out[model.BookingPending])
	require.Equal(t, 1, out[model.BookingConfirmed])
}
