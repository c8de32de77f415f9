package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

// BookingFlow is the booking write path; *service.BookingService
// implements it.
type BookingFlow interface {
	CheckAvailability(ctx context.Context, roomID string, in, out time.Time) (bool, error)
	Create(ctx context.Context, user model.User, req service.CreateRequest) (service.BookingSummary, error)
	RequestUpdate(ctx context.Context, role, id string, in, out time.Time, guests int) error
	Cancel(ctx context.Context, id string) error
}

// BookingHandler serves /api/bookings.
type BookingHandler struct {
	Flow     BookingFlow
	Bookings BookingLister
	Hotels   OwnerHotels
}

func NewBookingHandler(flow BookingFlow, bookings BookingLister, hotels OwnerHotels) *BookingHandler {
	return &BookingHandler{Flow: flow, Bookings: bookings, Hotels: hotels}
}

var guestsError = map[string][]string{"guests": {"The guests must be a number."}}

// bookingReq accepts guests as a JSON number or a numeric string.
type bookingReq struct {
	ID           string    `json:"id"`
	Room         string    `json:"room"`
	CheckInDate  string    `json:"checkInDate"`
	CheckOutDate string    `json:"checkOutDate"`
	Guests       numString `json:"guests"`
}

// dates parses both stay dates.  On failure the returned map is the field
// error body.
func (r bookingReq) dates() (in, out time.Time, errs map[string][]string) {
	errs = map[string][]string{}
	in, err := parseDate(r.CheckInDate)
	if err != nil {
		errs["checkInDate"] = []string{"The checkInDate is not a valid date."}
	}
	out, err = parseDate(r.CheckOutDate)
	if err != nil {
		errs["checkOutDate"] = []string{"The checkOutDate is not a valid date."}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return in, out, errs
}

// CheckAvailability answers whether a room is free for the given stay.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.CheckAvailability, validation.Fields{
		"room": req.Room, "checkInDate": req.CheckInDate, "checkOutDate": req.CheckOutDate,
	}); r.HasError {
		return invalid(c, r)
	}
	in, out, errs := req.dates()
	if errs != nil {
		return fail(c, http.StatusBadRequest, errs)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	ok, err := h.Flow.CheckAvailability(ctx, req.Room, in, out)
	if err != nil {
		return internalError(c, "check availability", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "isAvailable": ok})
}

// Book requests a booking for the caller.  The row is written later by the
// queue poller; the response carries the priced summary.
func (h *BookingHandler) Book(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.CreateBooking, validation.Fields{
		"room": req.Room, "checkInDate": req.CheckInDate, "checkOutDate": req.CheckOutDate, "guests": req.Guests.field(),
	}); r.HasError {
		return invalid(c, r)
	}
	in, out, errs := req.dates()
	if errs != nil {
		return fail(c, http.StatusBadRequest, errs)
	}
	guests, ok := req.Guests.Int()
	if !ok {
		return fail(c, http.StatusBadRequest, guestsError)
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	summary, err := h.Flow.Create(ctx, user, service.CreateRequest{RoomID: req.Room, CheckIn: in, CheckOut: out, Guests: guests})
	switch {
	case errors.Is(err, service.ErrRoomUnavailable):
		return fail(c, http.StatusBadRequest, "Room is not available")
	case errors.Is(err, service.ErrInvalidDates):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrRoomNotFound):
		return fail(c, http.StatusNotFound, "Room not found")
	case err != nil:
		return internalError(c, "create booking", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Booking created successfully", "booking": summary})
}

// Update requests new dates and guest count for a booking.  Only admins
// and hotel owners may do so.
func (h *BookingHandler) Update(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.UpdateBooking, validation.Fields{
		"id": req.ID, "checkInDate": req.CheckInDate, "checkOutDate": req.CheckOutDate, "guests": req.Guests.field(),
	}); r.HasError {
		return invalid(c, r)
	}
	in, out, errs := req.dates()
	if errs != nil {
		return fail(c, http.StatusBadRequest, errs)
	}
	guests, ok := req.Guests.Int()
	if !ok {
		return fail(c, http.StatusBadRequest, guestsError)
	}
	role, _ := c.Get(middleware.KeyRole).(string)

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Flow.RequestUpdate(ctx, role, req.ID, in, out, guests)
	switch {
	case errors.Is(err, repository.ErrBookingNotFound):
		return fail(c, http.StatusNotFound, "Booking not found")
	case errors.Is(err, service.ErrNotPermitted):
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrInvalidDates):
		return fail(c, http.StatusBadRequest, err.Error())
	case err != nil:
		return internalError(c, "update booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Booking updated successfully"})
}

// Delete cancels a booking right away and enqueues its removal.
func (h *BookingHandler) Delete(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.DeleteBooking, validation.Fields{"id": req.ID}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Flow.Cancel(ctx, req.ID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return fail(c, http.StatusNotFound, "Booking not found")
		}
		return internalError(c, "delete booking", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Booking cancelled successfully"})
}

// UserBookings lists the caller's bookings, newest first.
func (h *BookingHandler) UserBookings(c echo.Context) error {
	id, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.GetUserBookings, validation.Fields{"user": id}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, id)
	if err != nil {
		return internalError(c, "user bookings", err)
	}
	return bookingsWithTotals(c, bookings)
}

// ownedHotel returns the owner's oldest active hotel, or the oldest deleted
// one when none is active, so past bookings stay reachable.
func ownedHotel(ctx context.Context, hotels OwnerHotels, owner string) (model.Hotel, error) {
	hotel, err := hotels.FirstByOwner(ctx, owner, false)
	if errors.Is(err, repository.ErrHotelNotFound) {
		return hotels.FirstByOwner(ctx, owner, true)
	}
	return hotel, err
}

// HotelBookings lists the bookings of the caller's hotel with count and
// revenue.
func (h *BookingHandler) HotelBookings(c echo.Context) error {
	owner, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.GetHotelBookings, validation.Fields{"hotel": owner}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotel, err := ownedHotel(ctx, h.Hotels, owner)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusNotFound, "Hotel not found")
		}
		return internalError(c, "hotel bookings: hotel lookup", err)
	}
	bookings, err := h.Bookings.ListByHotel(ctx, hotel.ID)
	if err != nil {
		return internalError(c, "hotel bookings", err)
	}
	return bookingsWithTotals(c, bookings)
}
