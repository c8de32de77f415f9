package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/hotel-booking/internal/model"
)

func newBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestCountOverlappingIgnoresCancelled(t *testing.T) {
	repo, mock := newBookingRepo(t)
	in := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := in.Add(48 * time.Hour)
	mock.ExpectQuery(q("WHERE room_id=? AND is_deleted=0 AND status <> ? AND check_in_date <= ? AND check_out_date >= ?")).
		WithArgs("r1", model.StatusCancelled, out, in).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	n, err := repo.CountOverlapping(context.Background(), "r1", in, out)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestInsertAppliesDefaults(t *testing.T) {
	repo, mock := newBookingRepo(t)
	in := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(q("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), "u1", "r1", "h1", in, in.Add(24*time.Hour), 100.0, 2,
			model.PaymentMethodAtHotel, model.PaymentPending, model.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	b := &model.Booking{UserID: "u1", RoomID: "r1", HotelID: "h1", CheckIn: in, CheckOut: in.Add(24 * time.Hour), TotalPrice: 100, Guests: 2}
	if err := repo.Insert(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	if b.ID == "" || b.Status != model.StatusPending {
		t.Fatalf("defaults not applied: %+v", b)
	}
}

func TestApplyPaymentUnknownBooking(t *testing.T) {
	repo, mock := newBookingRepo(t)
	mock.ExpectExec(q("UPDATE bookings SET status=?, payment_status=?, is_paid=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyPayment(context.Background(), "missing", model.PaymentUpdate{Status: model.StatusCompleted})
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestApplyPaymentSucceeded(t *testing.T) {
	repo, mock := newBookingRepo(t)
	pid := "pi_123"
	method := model.PaymentMethodStripe
	paid := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(q("UPDATE bookings SET status=?")).
		WithArgs(model.StatusCompleted, model.PaymentPaid, true, method, pid, paid, nil, "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyPayment(context.Background(), "b1", model.PaymentUpdate{
		Status: model.StatusCompleted, PaymentStatus: model.PaymentPaid, IsPaid: true,
		PaymentMethod: &method, PaymentID: &pid, PaymentDate: &paid,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPatchDatesMissing(t *testing.T) {
	repo, mock := newBookingRepo(t)
	mock.ExpectExec(q("UPDATE bookings SET check_in_date=?")).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.PatchDates(context.Background(), "x", time.Now(), time.Now(), 1); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestListByUserPopulatesDetails(t *testing.T) {
	repo, mock := newBookingRepo(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "user_id", "room_id", "hotel_id", "check_in_date", "check_out_date", "total_price", "guests",
		"payment_method", "payment_status", "is_paid", "payment_id", "payment_date", "payment_error", "status",
		"is_deleted", "deleted_at", "created_at", "updated_at", "room_type", "hotel_name", "hotel_city", "email"}
	mock.ExpectQuery(q("WHERE b.user_id=? ORDER BY b.created_at DESC")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("b1", "u1", "r1", "h1", now, now.Add(72*time.Hour), 300.0, 2,
			model.PaymentMethodAtHotel, model.PaymentPending, false, nil, nil, nil, model.StatusPending,
			false, nil, now, now, "Deluxe", "Sea View", "Goa", "a@b.c"))

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].RoomType != "Deluxe" || got[0].HotelName != "Sea View" || got[0].PaymentID != nil {
		t.Fatalf("unexpected %+v", got)
	}
}
