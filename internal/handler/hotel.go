package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

// Listing paths held in the response cache.
const (
	hotelsPath = "/api/hotels"
	roomsPath  = "/api/rooms"
)

// HotelStore is the hotel persistence; *repository.HotelRepo implements it.
type HotelStore interface {
	ExistsNear(ctx context.Context, name, owner string, lat, lng, radius float64) (bool, error)
	FindOwnedNear(ctx context.Context, id, owner string, lat, lng, radius float64) (model.Hotel, error)
	ListNear(ctx context.Context, lat, lng, radius float64) ([]model.Hotel, error)
	CreateAndPromote(ctx context.Context, h *model.Hotel) error
	Update(ctx context.Context, h model.Hotel) error
	DeleteCascade(ctx context.Context, id, owner string) (bool, error)
}

// Purger drops cached responses of listing paths; *middleware.ResponseCache
// implements it.
type Purger interface {
	Purge(ctx context.Context, paths ...string) error
}

// HotelHandler serves /api/hotels.  Radius is the distance in meters used
// for duplicate detection, ownership checks and proximity search.
type HotelHandler struct {
	Hotels HotelStore
	Radius float64
	Cache  Purger
}

func NewHotelHandler(hotels HotelStore, radius float64, cache Purger) *HotelHandler {
	return &HotelHandler{Hotels: hotels, Radius: radius, Cache: cache}
}

type hotelReq struct {
	HotelID   string    `json:"hotelId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Contact   string    `json:"contact"`
	City      string    `json:"city"`
	Latitude  numString `json:"latitude"`
	Longitude numString `json:"longitude"`
}

func (r hotelReq) fields(owner string) validation.Fields {
	return validation.Fields{
		"id": owner, "hotelId": r.HotelID, "name": strings.TrimSpace(r.Name), "address": r.Address,
		"contact": r.Contact, "city": r.City, "latitude": string(r.Latitude), "longitude": string(r.Longitude),
	}
}

// purge drops stale listings; the write has already happened, so failures
// are only logged.
func purge(c echo.Context, cache Purger, paths ...string) {
	if cache == nil {
		return
	}
	if err := cache.Purge(c.Request().Context(), paths...); err != nil {
		c.Logger().Warnf("cache purge %v: %v", paths, err)
	}
}

// Create registers a hotel for the caller and promotes them to hotel
// owner.  The same owner cannot register two hotels of one name within
// Radius of each other.
func (h *HotelHandler) Create(c echo.Context) error {
	var req hotelReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	owner, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.CreateHotel, req.fields(owner)); r.HasError {
		return invalid(c, r)
	}
	lat, lng := req.Latitude.Float(), req.Longitude.Float()

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Hotels.ExistsNear(ctx, strings.TrimSpace(req.Name), owner, lat, lng, h.Radius)
	if err != nil {
		return internalError(c, "create hotel: lookup", err)
	}
	if exists {
		return fail(c, http.StatusConflict, repository.ErrHotelExists.Error())
	}
	hotel := model.Hotel{
		OwnerID:   owner,
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		Contact:   req.Contact,
		City:      req.City,
		Latitude:  lat,
		Longitude: lng,
	}
	if err := h.Hotels.CreateAndPromote(ctx, &hotel); err != nil {
		return internalError(c, "create hotel", err)
	}
	purge(c, h.Cache, hotelsPath)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Hotel registered successfully", "hotel": hotel})
}

// Update overwrites a hotel of the caller located near the given
// coordinates.
func (h *HotelHandler) Update(c echo.Context) error {
	var req hotelReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	owner, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.UpdateHotel, req.fields(owner)); r.HasError {
		return invalid(c, r)
	}
	lat, lng := req.Latitude.Float(), req.Longitude.Float()

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotel, err := h.Hotels.FindOwnedNear(ctx, req.HotelID, owner, lat, lng, h.Radius)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusBadRequest, "Hotel not found")
		}
		return internalError(c, "update hotel: lookup", err)
	}
	hotel.Name = strings.TrimSpace(req.Name)
	hotel.Address = req.Address
	hotel.Contact = req.Contact
	hotel.City = req.City
	hotel.Latitude, hotel.Longitude = lat, lng
	if err := h.Hotels.Update(ctx, hotel); err != nil {
		return internalError(c, "update hotel", err)
	}
	purge(c, h.Cache, hotelsPath, roomsPath)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Hotel updated successfully"})
}

// Delete soft-deletes a hotel of the caller together with its rooms and
// bookings.  The caller goes back to a plain user when it was their last
// hotel.
func (h *HotelHandler) Delete(c echo.Context) error {
	var req hotelReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	owner, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.DeleteHotel, validation.Fields{
		"id": owner, "hotelId": req.HotelID, "latitude": string(req.Latitude), "longitude": string(req.Longitude),
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotel, err := h.Hotels.FindOwnedNear(ctx, req.HotelID, owner, req.Latitude.Float(), req.Longitude.Float(), h.Radius)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusBadRequest, "Hotel not found")
		}
		return internalError(c, "delete hotel: lookup", err)
	}
	demoted, err := h.Hotels.DeleteCascade(ctx, hotel.ID, owner)
	if err != nil {
		return internalError(c, "delete hotel", err)
	}
	purge(c, h.Cache, hotelsPath, roomsPath)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Hotel deleted successfully", "demoted": demoted})
}

// FindNear lists active hotels within Radius of ?latitude=&longitude=,
// nearest first.
func (h *HotelHandler) FindNear(c echo.Context) error {
	lat, lng := strings.TrimSpace(c.QueryParam("latitude")), strings.TrimSpace(c.QueryParam("longitude"))
	if r := validation.Check(validation.FindHotelOnGeoLocation, validation.Fields{"latitude": lat, "longitude": lng}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotels, err := h.Hotels.ListNear(ctx, numString(lat).Float(), numString(lng).Float(), h.Radius)
	if err != nil {
		return internalError(c, "find hotels", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "hotel": hotels})
}
