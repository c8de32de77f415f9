package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/iliyamo/hotel-booking/internal/model"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrWebhookSecret    = errors.New("webhook secret is not configured")
	ErrBadSignature     = errors.New("webhook signature verification failed")
	ErrMissingBookingID = errors.New("no bookingId in payment metadata")
)

// PaymentStore writes payment state onto a booking.
type PaymentStore interface {
	ApplyPayment(ctx context.Context, id string, p model.PaymentUpdate) error
}

// PaymentService reconciles bookings with payment intent events delivered
// by the payment gateway.
type PaymentService struct {
	Secret   string
	Bookings PaymentStore
	Now      func() time.Time
}

// PaymentTransition maps a payment intent event onto the booking fields it
// sets.  The second result is false for events that do not touch bookings.
func PaymentTransition(t stripe.EventType, pi *stripe.PaymentIntent, now time.Time) (model.PaymentUpdate, bool) {
	switch t {
	case stripe.EventTypePaymentIntentSucceeded:
		method := model.PaymentMethodStripe
		id := pi.ID
		return model.PaymentUpdate{
			Status:        model.StatusCompleted,
			PaymentStatus: model.PaymentPaid,
			IsPaid:        true,
			PaymentMethod: &method,
			PaymentID:     &id,
			PaymentDate:   &now,
		}, true
	case stripe.EventTypePaymentIntentPaymentFailed:
		u := model.PaymentUpdate{Status: model.StatusPaymentFailed, PaymentStatus: model.PaymentFailed}
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			msg := pi.LastPaymentError.Msg
			u.PaymentError = &msg
		}
		return u, true
	case stripe.EventTypePaymentIntentCanceled:
		return model.PaymentUpdate{Status: model.StatusCancelled, PaymentStatus: model.PaymentCancelled}, true
	}
	return model.PaymentUpdate{}, false
}

// Handle verifies payload against sig and applies the event to the booking
// named in the intent's bookingId metadata.  It returns the event type and
// whether a booking was written.  Nothing is read or written before the
// signature checks pass.
func (s *PaymentService) Handle(ctx context.Context, payload []byte, sig string) (stripe.EventType, bool, error) {
	if sig == "" {
		return "", false, ErrMissingSignature
	}
	if s.Secret == "" {
		return "", false, ErrWebhookSecret
	}
	event, err := webhook.ConstructEventWithOptions(payload, sig, s.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if event.Data == nil {
		return event.Type, false, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return event.Type, false, fmt.Errorf("decode payment intent: %w", err)
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}
	update, ok := PaymentTransition(event.Type, &pi, now)
	if !ok {
		return event.Type, false, nil
	}
	bookingID := pi.Metadata["bookingId"]
	if bookingID == "" {
		return event.Type, false, ErrMissingBookingID
	}
	if err := s.Bookings.ApplyPayment(ctx, bookingID, update); err != nil {
		return event.Type, false, err
	}
	return event.Type, true, nil
}
