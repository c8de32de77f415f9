package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingRepo reads and writes the `bookings` table.  Rows are inserted,
// patched and purged by the queue processor; the API only reads, cancels
// and records payment state directly.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = `b.id, b.user_id, b.room_id, b.hotel_id, b.check_in_date, b.check_out_date, b.total_price, b.guests,
	b.payment_method, b.payment_status, b.is_paid, b.payment_id, b.payment_date, b.payment_error, b.status,
	b.is_deleted, b.deleted_at, b.created_at, b.updated_at`

const bookingDetailFrom = `SELECT ` + bookingCols + `,
	COALESCE(r.room_type, ''), COALESCE(h.name, ''), COALESCE(h.city, ''), COALESCE(u.email, '')
	FROM bookings b
	LEFT JOIN rooms r ON r.id = b.room_id
	LEFT JOIN hotels h ON h.id = b.hotel_id
	LEFT JOIN users u ON u.id = b.user_id`

func scanBooking(s rowScanner, extra ...any) (model.Booking, error) {
	var (
		b         model.Booking
		paymentID sql.NullString
		paidAt    sql.NullTime
		payErr    sql.NullString
		deletedAt sql.NullTime
	)
	dest := append([]any{&b.ID, &b.UserID, &b.RoomID, &b.HotelID, &b.CheckIn, &b.CheckOut, &b.TotalPrice, &b.Guests,
		&b.PaymentMethod, &b.PaymentStatus, &b.IsPaid, &paymentID, &paidAt, &payErr, &b.Status,
		&b.IsDeleted, &deletedAt, &b.CreatedAt, &b.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return b, err
	}
	if paymentID.Valid {
		v := paymentID.String
		b.PaymentID = &v
	}
	if paidAt.Valid {
		v := paidAt.Time
		b.PaymentDate = &v
	}
	if payErr.Valid {
		v := payErr.String
		b.PaymentError = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		b.DeletedAt = &v
	}
	return b, nil
}

// CountOverlapping counts the live bookings of room whose stay intersects
// [in, out].  Cancelled and soft-deleted rows never block a room.
func (r *BookingRepo) CountOverlapping(ctx context.Context, roomID string, in, out time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE room_id=? AND is_deleted=0 AND status <> ? AND check_in_date <= ? AND check_out_date >= ?`,
		roomID, model.StatusCancelled, out.UTC(), in.UTC()).Scan(&n)
	return n, err
}

// Insert stores b.  An empty ID is replaced by a fresh one and empty
// statuses fall back to their pending defaults.
func (r *BookingRepo) Insert(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.PaymentMethod == "" {
		b.PaymentMethod = model.PaymentMethodAtHotel
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentPending
	}
	if b.Status == "" {
		b.Status = model.StatusPending
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, room_id, hotel_id, check_in_date, check_out_date, total_price, guests,
			payment_method, payment_status, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.ID, b.UserID, b.RoomID, b.HotelID, b.CheckIn.UTC(), b.CheckOut.UTC(), b.TotalPrice, b.Guests,
		b.PaymentMethod, b.PaymentStatus, b.Status)
	return err
}

// GetByID fetches a booking regardless of its deleted flag.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx, "SELECT "+bookingCols+" FROM bookings b WHERE b.id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookingNotFound
	}
	return b, err
}

// PatchDates overwrites the stay and guest count of booking id.
func (r *BookingRepo) PatchDates(ctx context.Context, id string, in, out time.Time, guests int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET check_in_date=?, check_out_date=?, guests=? WHERE id=?",
		in.UTC(), out.UTC(), guests, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// HardDelete removes booking id.  Deleting a missing row is not an error.
func (r *BookingRepo) HardDelete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM bookings WHERE id=?", id)
	return err
}

// SoftDeleteCancel flags booking id deleted and cancelled.
func (r *BookingRepo) SoftDeleteCancel(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET is_deleted=1, deleted_at=?, status=? WHERE id=?",
		stamp(), model.StatusCancelled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ApplyPayment writes the payment state p onto booking id.  The write is an
// absolute overwrite so replays of the same event are harmless.  The DSN
// sets clientFoundRows, so RowsAffected counts matched rows and 0 means the
// booking does not exist.
func (r *BookingRepo) ApplyPayment(ctx context.Context, id string, p model.PaymentUpdate) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET status=?, payment_status=?, is_paid=?,
			payment_method=COALESCE(?, payment_method),
			payment_id=COALESCE(?, payment_id),
			payment_date=COALESCE(?, payment_date),
			payment_error=COALESCE(?, payment_error)
		 WHERE id=?`,
		p.Status, p.PaymentStatus, p.IsPaid, p.PaymentMethod, p.PaymentID, p.PaymentDate, p.PaymentError, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, args ...any) ([]model.BookingDetail, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookingDetail{}
	for rows.Next() {
		var d model.BookingDetail
		b, err := scanBooking(rows, &d.RoomType, &d.HotelName, &d.HotelCity, &d.UserEmail)
		if err != nil {
			return nil, err
		}
		d.Booking = b
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListByUser returns the bookings of a user with room and hotel populated,
// newest first.  Cancelled bookings are included so the user can see them.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailFrom+" WHERE b.user_id=? ORDER BY b.created_at DESC", userID)
}

// ListByHotel returns the bookings of a hotel with room, hotel and guest
// populated, newest first.
func (r *BookingRepo) ListByHotel(ctx context.Context, hotelID string) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailFrom+" WHERE b.hotel_id=? ORDER BY b.created_at DESC", hotelID)
}

// ListAll returns every booking row.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.BookingDetail, error) {
	return r.listDetails(ctx, bookingDetailFrom+" ORDER BY b.created_at DESC")
}
