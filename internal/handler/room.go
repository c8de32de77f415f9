package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/service"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

// OwnerHotels resolves the hotel a hotel owner manages.
type OwnerHotels interface {
	FirstByOwner(ctx context.Context, owner string, includeDeleted bool) (model.Hotel, error)
}

// RoomStore is the room persistence; *repository.RoomRepo implements it.
type RoomStore interface {
	Create(ctx context.Context, rm *model.Room) error
	ListAvailable(ctx context.Context) ([]model.RoomWithHotel, error)
	ListByHotel(ctx context.Context, hotelID string) ([]model.Room, error)
	ToggleAvailability(ctx context.Context, id, owner string) (bool, error)
}

// RoomHandler serves /api/rooms.  Rooms are always added to the owner's
// first active hotel.  Images may be nil when no image host is configured,
// in which case rooms can only be created without pictures.
type RoomHandler struct {
	Hotels OwnerHotels
	Rooms  RoomStore
	Images service.Uploader
	Cache  Purger
}

func NewRoomHandler(hotels OwnerHotels, rooms RoomStore, images service.Uploader, cache Purger) *RoomHandler {
	return &RoomHandler{Hotels: hotels, Rooms: rooms, Images: images, Cache: cache}
}

type toggleReq struct {
	RoomID string `json:"roomId"`
}

// Create adds a room from a multipart form: roomType, pricePerNight,
// amenities (a JSON array) and up to service.MaxRoomImages files under
// "images".
func (h *RoomHandler) Create(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, http.StatusBadRequest, "multipart form expected")
	}
	value := func(k string) string {
		if v := form.Value[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	roomType, price, amenitiesRaw := value("roomType"), value("pricePerNight"), value("amenities")
	if r := validation.Check(validation.CreateRoom, validation.Fields{
		"roomType": roomType, "pricePerNight": price, "amenities": amenitiesRaw,
	}); r.HasError {
		return invalid(c, r)
	}
	var amenities []string
	if err := json.Unmarshal([]byte(amenitiesRaw), &amenities); err != nil {
		return fail(c, http.StatusBadRequest, echo.Map{"amenities": []string{"The amenities must be a JSON array."}})
	}
	pricePerNight, _ := strconv.ParseFloat(price, 64)
	files := form.File["images"]
	if len(files) > service.MaxRoomImages {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("at most %d images are allowed", service.MaxRoomImages))
	}
	if len(files) > 0 && h.Images == nil {
		return fail(c, http.StatusServiceUnavailable, "image upload is not configured")
	}
	owner, _ := c.Get(middleware.KeyUserID).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), uploadTimeout)
	defer cancel()

	hotel, err := h.Hotels.FirstByOwner(ctx, owner, false)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusNotFound, "Hotel not found")
		}
		return internalError(c, "create room: hotel lookup", err)
	}
	var images []string
	if len(files) > 0 {
		images, err = service.UploadAll(ctx, h.Images, imageFiles(files))
		if err != nil {
			return internalError(c, "create room: upload images", err)
		}
	}
	room := model.Room{
		HotelID:       hotel.ID,
		RoomType:      roomType,
		PricePerNight: pricePerNight,
		Amenities:     amenities,
		Images:        images,
	}
	if err := h.Rooms.Create(ctx, &room); err != nil {
		if errors.Is(err, repository.ErrRoomExists) {
			return fail(c, http.StatusConflict, "Room type already exists for this hotel")
		}
		return internalError(c, "create room", err)
	}
	purge(c, h.Cache, roomsPath)
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Room created successfully", "room": room})
}

func imageFiles(headers []*multipart.FileHeader) []service.ImageFile {
	out := make([]service.ImageFile, len(headers))
	for i, fh := range headers {
		out[i] = service.ImageFile{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return out
}

// List returns every available room with its hotel.
func (h *RoomHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rooms, err := h.Rooms.ListAvailable(ctx)
	if err != nil {
		return internalError(c, "list rooms", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rooms": rooms})
}

// OwnerRooms returns the active rooms of the caller's hotel.
func (h *RoomHandler) OwnerRooms(c echo.Context) error {
	owner, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.GetOwnerRooms, validation.Fields{"id": owner}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotel, err := h.Hotels.FirstByOwner(ctx, owner, false)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusNotFound, "Hotel not found")
		}
		return internalError(c, "owner rooms: hotel lookup", err)
	}
	rooms, err := h.Rooms.ListByHotel(ctx, hotel.ID)
	if err != nil {
		return internalError(c, "owner rooms", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rooms": rooms})
}

// ToggleAvailability flips the availability of one of the caller's rooms.
func (h *RoomHandler) ToggleAvailability(c echo.Context) error {
	var req toggleReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.ToggleRoomAvailability, validation.Fields{"roomId": req.RoomID}); r.HasError {
		return invalid(c, r)
	}
	owner, _ := c.Get(middleware.KeyUserID).(string)

	ctx, cancel := reqCtx(c)
	defer cancel()

	available, err := h.Rooms.ToggleAvailability(ctx, req.RoomID, owner)
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return fail(c, http.StatusNotFound, "Room not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, "Room belongs to another hotel")
	case err != nil:
		return internalError(c, "toggle room", err)
	}
	purge(c, h.Cache, roomsPath)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Room updated successfully", "isAvailable": available})
}
