package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"

	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
)

// maxWebhookBody caps the payload read for signature verification.
const maxWebhookBody = 64 << 10

// PaymentEvents verifies and applies payment gateway events;
// *service.PaymentService implements it.
type PaymentEvents interface {
	Handle(ctx context.Context, payload []byte, sig string) (stripe.EventType, bool, error)
}

// WebhookHandler serves /api/webhooks.
type WebhookHandler struct {
	Payments PaymentEvents
}

func NewWebhookHandler(p PaymentEvents) *WebhookHandler {
	return &WebhookHandler{Payments: p}
}

// Stripe receives payment intent events.  The body is read raw because the
// signature covers the exact bytes sent.
func (h *WebhookHandler) Stripe(c echo.Context) error {
	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return fail(c, http.StatusBadRequest, "Missing stripe-signature header")
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return fail(c, http.StatusBadRequest, "unreadable body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	typ, applied, err := h.Payments.Handle(ctx, payload, sig)
	switch {
	case errors.Is(err, service.ErrMissingSignature):
		return fail(c, http.StatusBadRequest, "Missing stripe-signature header")
	case errors.Is(err, service.ErrWebhookSecret):
		return internalError(c, "stripe webhook", err)
	case errors.Is(err, service.ErrBadSignature):
		c.Logger().Warnf("stripe webhook: %v", err)
		return fail(c, http.StatusBadRequest, "Webhook signature verification failed")
	case errors.Is(err, service.ErrMissingBookingID):
		return fail(c, http.StatusBadRequest, "Booking ID not found in metadata")
	case errors.Is(err, repository.ErrBookingNotFound):
		return fail(c, http.StatusNotFound, "Booking not found")
	case err != nil:
		return internalError(c, "stripe webhook "+string(typ), err)
	}
	if applied {
		c.Logger().Infof("stripe webhook: %s applied", typ)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
