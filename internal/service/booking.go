// Package service holds the booking write path and the integrations it
// drives: the queue, the mail relay, the image host and the payment
// gateway.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

var (
	ErrRoomUnavailable = errors.New("room is not available for the selected dates")
	ErrInvalidDates    = errors.New("check-out date must be after check-in date")
	ErrNotPermitted    = errors.New("not permitted")
)

// Logger is the subset of echo.Logger used by services.
type Logger interface {
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// BookingStore is the booking persistence used on the request path.
type BookingStore interface {
	CountOverlapping(ctx context.Context, roomID string, in, out time.Time) (int, error)
	GetByID(ctx context.Context, id string) (model.Booking, error)
	SoftDeleteCancel(ctx context.Context, id string) error
}

// RoomLookup loads a room together with its hotel.
type RoomLookup interface {
	GetWithHotel(ctx context.Context, id string) (model.RoomWithHotel, error)
}

// Publisher enqueues an envelope; *queue.Client implements it.
type Publisher interface {
	Send(ctx context.Context, typ string, data any) error
}

// Notifier sends the booking confirmation; *Mailer implements it.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, to string, s BookingSummary) error
}

// BookingService validates bookings against existing ones and hands the
// writes to the queue.  Rows are only persisted when the poller processes
// the message.
type BookingService struct {
	Bookings BookingStore
	Rooms    RoomLookup
	Queue    Publisher
	Mail     Notifier
	Log      Logger
}

// CreateRequest is a booking request of a signed in user.
type CreateRequest struct {
	RoomID   string
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// Nights returns the number of nights between in and out, counting a
// started day as a full night.  It is zero when out is not after in.
func Nights(in, out time.Time) int {
	d := out.Sub(in)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

// TotalPrice is the price of a stay from in to out.
func TotalPrice(pricePerNight float64, in, out time.Time) float64 {
	return pricePerNight * float64(Nights(in, out))
}

// CheckAvailability reports whether roomID has no live booking intersecting
// [in, out].  The answer is only a snapshot: nothing holds the room between
// this check and the asynchronous insert, so two concurrent requests can
// both see it free.
func (s *BookingService) CheckAvailability(ctx context.Context, roomID string, in, out time.Time) (bool, error) {
	n, err := s.Bookings.CountOverlapping(ctx, roomID, in, out)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create prices the stay, enqueues the create message and mails a
// confirmation to the user.  Queue and mail failures are logged only.
func (s *BookingService) Create(ctx context.Context, user model.User, req CreateRequest) (BookingSummary, error) {
	if !req.CheckOut.After(req.CheckIn) {
		return BookingSummary{}, ErrInvalidDates
	}
	ok, err := s.CheckAvailability(ctx, req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		return BookingSummary{}, err
	}
	if !ok {
		return BookingSummary{}, ErrRoomUnavailable
	}
	room, err := s.Rooms.GetWithHotel(ctx, req.RoomID)
	if err != nil {
		return BookingSummary{}, err
	}
	total := TotalPrice(room.PricePerNight, req.CheckIn, req.CheckOut)

	msg := queue.BookingMessage{
		Action:       queue.ActionCreate,
		User:         user.ID,
		Room:         room.ID,
		Hotel:        room.HotelID,
		CheckInDate:  req.CheckIn.UTC(),
		CheckOutDate: req.CheckOut.UTC(),
		TotalPrice:   total,
		Guests:       req.Guests,
	}
	if err := s.Queue.Send(ctx, queue.EventBooking, msg); err != nil {
		s.Log.Errorf("booking: enqueue create for room %s: %v", room.ID, err)
	}

	summary := BookingSummary{
		HotelName:  room.HotelData.Name,
		RoomType:   room.RoomType,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		TotalPrice: total,
		Guests:     req.Guests,
	}
	if err := s.Mail.SendBookingConfirmation(ctx, user.Email, summary); err != nil {
		s.Log.Warnf("booking: confirmation mail to %s: %v", user.Email, err)
	}
	return summary, nil
}

// RequestUpdate enqueues new dates and guest count for booking id.  Only
// admins and hotel owners may change a booking.
func (s *BookingService) RequestUpdate(ctx context.Context, role, id string, in, out time.Time, guests int) error {
	if _, err := s.Bookings.GetByID(ctx, id); err != nil {
		return err
	}
	if role != model.RoleAdmin && role != model.RoleHotelOwner {
		return ErrNotPermitted
	}
	if !out.After(in) {
		return ErrInvalidDates
	}
	msg := queue.BookingMessage{ID: id, Action: queue.ActionUpdate, CheckInDate: in.UTC(), CheckOutDate: out.UTC(), Guests: guests}
	if err := s.Queue.Send(ctx, queue.EventBooking, msg); err != nil {
		s.Log.Errorf("booking: enqueue update for %s: %v", id, err)
	}
	return nil
}

// Cancel marks booking id cancelled and deleted right away, then enqueues
// its removal.
func (s *BookingService) Cancel(ctx context.Context, id string) error {
	if _, err := s.Bookings.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.Bookings.SoftDeleteCancel(ctx, id); err != nil {
		return err
	}
	if err := s.Queue.Send(ctx, queue.EventBooking, queue.BookingMessage{ID: id, Action: queue.ActionDelete}); err != nil {
		s.Log.Errorf("booking: enqueue delete for %s: %v", id, err)
	}
	return nil
}
