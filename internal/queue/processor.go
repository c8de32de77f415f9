package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// BookingStore is the persistence the processor writes to.
type BookingStore interface {
	Insert(ctx context.Context, b *model.Booking) error
	PatchDates(ctx context.Context, id string, in, out time.Time, guests int) error
	HardDelete(ctx context.Context, id string) error
}

// Processor applies received envelopes to the store.
type Processor struct {
	Bookings BookingStore
}

// Process dispatches env on its type and action.  Unknown types and actions
// are errors, as are update and delete messages without an id.
func (p *Processor) Process(ctx context.Context, env Envelope) error {
	switch env.Type {
	case EventBooking:
		var m BookingMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return p.booking(ctx, m)
	default:
		return ErrInvalidType
	}
}

func (p *Processor) booking(ctx context.Context, m BookingMessage) error {
	switch m.Action {
	case ActionCreate:
		return p.Bookings.Insert(ctx, &model.Booking{
			UserID:     m.User,
			RoomID:     m.Room,
			HotelID:    m.Hotel,
			CheckIn:    m.CheckInDate,
			CheckOut:   m.CheckOutDate,
			TotalPrice: m.TotalPrice,
			Guests:     m.Guests,
		})
	case ActionUpdate:
		if m.ID == "" {
			return ErrMissingID
		}
		return p.Bookings.PatchDates(ctx, m.ID, m.CheckInDate, m.CheckOutDate, m.Guests)
	case ActionDelete:
		if m.ID == "" {
			return ErrMissingID
		}
		return p.Bookings.HardDelete(ctx, m.ID)
	default:
		return ErrInvalidAction
	}
}
