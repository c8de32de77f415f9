package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/utils"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

// AdminStore is the admin persistence; *repository.AdminRepo implements it.
type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) error
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	GetByRefreshHash(ctx context.Context, hash string) (model.Admin, error)
	SetTokens(ctx context.Context, id, access, refreshHash string) error
	SetAccessToken(ctx context.Context, id, access string) error
	ClearTokens(ctx context.Context, id string) error
	Update(ctx context.Context, id, username, email, passwordHash string) error
}

// AdminUsers is the user lookup behind the admin listings.
type AdminUsers interface {
	GetByID(ctx context.Context, id string) (model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
}

// AdminHotels is the hotel lookup behind the admin listings.
type AdminHotels interface {
	FirstByOwner(ctx context.Context, owner string, includeDeleted bool) (model.Hotel, error)
	ListAll(ctx context.Context) ([]model.Hotel, error)
}

// AdminRooms lists every room.
type AdminRooms interface {
	ListAll(ctx context.Context) ([]model.Room, error)
}

// BookingLister reads booking listings.
type BookingLister interface {
	ListByUser(ctx context.Context, userID string) ([]model.BookingDetail, error)
	ListByHotel(ctx context.Context, hotelID string) ([]model.BookingDetail, error)
	ListAll(ctx context.Context) ([]model.BookingDetail, error)
}

// AdminHandler serves /api/admin.  Listings read the raw tables, so
// soft-deleted rows are included.
type AdminHandler struct {
	Cfg      config.Config
	Admins   AdminStore
	Users    AdminUsers
	Hotels   AdminHotels
	Rooms    AdminRooms
	Bookings BookingLister
}

func NewAdminHandler(cfg config.Config, admins AdminStore, users AdminUsers, hotels AdminHotels, rooms AdminRooms, bookings BookingLister) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admins: admins, Users: users, Hotels: hotels, Rooms: rooms, Bookings: bookings}
}

func (h *AdminHandler) startSession(ctx context.Context, a model.Admin) (tokenPair, error) {
	access, refresh, err := issue(h.Cfg.JWTSecret, a.ID, model.RoleAdmin, utils.KindAdmin, h.Cfg.AdminAccessTTLMin, h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenPair{}, err
	}
	if err := h.Admins.SetTokens(ctx, a.ID, access.Token, utils.HashRefreshRaw(refresh.Raw)); err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Success: true, Token: access.Token, RefreshToken: refresh.Raw}, nil
}

// SignUp creates an admin and signs it in.
func (h *AdminHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if r := validation.Check(validation.CreateAdmin, validation.Fields{
		"name": req.Name, "email": req.Email, "password": req.Password,
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "admin sign-up: hash password", err)
	}
	a := model.Admin{Username: req.Name, Email: req.Email, PasswordHash: hash}
	if err := h.Admins.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Admin already exists")
		}
		return internalError(c, "admin sign-up: create", err)
	}
	pair, err := h.startSession(ctx, a)
	if err != nil {
		return internalError(c, "admin sign-up: issue tokens", err)
	}
	pair.Message = "Admin signed up successfully"
	return c.JSON(http.StatusCreated, pair)
}

// SignIn verifies admin credentials and rotates both tokens.
func (h *AdminHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if r := validation.Check(validation.SignInAdmin, validation.Fields{
		"email": strings.TrimSpace(req.Email), "password": req.Password,
	}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, "admin sign-in: load admin", err)
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	pair, err := h.startSession(ctx, a)
	if err != nil {
		return internalError(c, "admin sign-in: issue tokens", err)
	}
	pair.Message = "Admin signed in successfully"
	return c.JSON(http.StatusOK, pair)
}

// RefreshToken exchanges the bearer refresh token for a new admin access
// token.
func (h *AdminHandler) RefreshToken(c echo.Context) error {
	raw, ok := middleware.BearerToken(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Refresh token is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Admins.GetByRefreshHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid refresh")
		}
		return internalError(c, "admin refresh: load admin", err)
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, model.RoleAdmin, utils.KindAdmin, h.Cfg.AdminAccessTTLMin)
	if err != nil {
		return internalError(c, "admin refresh: issue access", err)
	}
	if err := h.Admins.SetAccessToken(ctx, a.ID, access.Token); err != nil {
		return internalError(c, "admin refresh: save access", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Token refreshed", "token": access.Token})
}

// SignOut revokes both tokens of the calling admin.
func (h *AdminHandler) SignOut(c echo.Context) error {
	id, _ := c.Get(middleware.KeyUserID).(string)
	if r := validation.Check(validation.SignOutAdmin, validation.Fields{"userId": id}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admins.ClearTokens(ctx, id); err != nil {
		return internalError(c, "admin sign-out", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Admin signed out successfully"})
}

// Update changes name, email and password of the calling admin.
func (h *AdminHandler) Update(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if r := validation.Check(validation.UpdateAdmin, validation.Fields{
		"name": req.Name, "email": req.Email, "password": req.Password,
	}); r.HasError {
		return invalid(c, r)
	}
	id, _ := c.Get(middleware.KeyUserID).(string)

	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return internalError(c, "admin update: hash password", err)
	}
	if err := h.Admins.Update(ctx, id, req.Name, req.Email, hash); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Email already in use")
		}
		return internalError(c, "admin update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Admin updated successfully"})
}

// ----- listings -----

func (h *AdminHandler) AllUsers(c echo.Context) error {
	return h.usersWithRole(c, model.RoleUser, "users")
}

func (h *AdminHandler) AllHotelOwners(c echo.Context) error {
	return h.usersWithRole(c, model.RoleHotelOwner, "hotelOwners")
}

func (h *AdminHandler) usersWithRole(c echo.Context, role, key string) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.ListByRole(ctx, role)
	if err != nil {
		return internalError(c, "admin: list "+key, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, key: users})
}

func (h *AdminHandler) AllHotels(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	hotels, err := h.Hotels.ListAll(ctx)
	if err != nil {
		return internalError(c, "admin: list hotels", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "hotels": hotels})
}

func (h *AdminHandler) AllRooms(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	rooms, err := h.Rooms.ListAll(ctx)
	if err != nil {
		return internalError(c, "admin: list rooms", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "rooms": rooms})
}

func (h *AdminHandler) AllBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	bookings, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return internalError(c, "admin: list bookings", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": bookings})
}

// HotelBookings lists the bookings of the first hotel owned by user :id,
// with count and revenue.
func (h *AdminHandler) HotelBookings(c echo.Context) error {
	owner := c.Param("id")
	if r := validation.Check(validation.GetHotelBookings, validation.Fields{"hotel": owner}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hotel, err := ownedHotel(ctx, h.Hotels, owner)
	if err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return fail(c, http.StatusBadRequest, "Hotel not found")
		}
		return internalError(c, "admin: hotel bookings", err)
	}
	bookings, err := h.Bookings.ListByHotel(ctx, hotel.ID)
	if err != nil {
		return internalError(c, "admin: hotel bookings", err)
	}
	return bookingsWithTotals(c, bookings)
}

// UserBookings lists the bookings of user :id with count and spend.
func (h *AdminHandler) UserBookings(c echo.Context) error {
	id := c.Param("id")
	if r := validation.Check(validation.GetUserBookings, validation.Fields{"user": id}); r.HasError {
		return invalid(c, r)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusBadRequest, "User not found")
		}
		return internalError(c, "admin: user bookings", err)
	}
	bookings, err := h.Bookings.ListByUser(ctx, id)
	if err != nil {
		return internalError(c, "admin: user bookings", err)
	}
	return bookingsWithTotals(c, bookings)
}

func bookingsWithTotals(c echo.Context, bookings []model.BookingDetail) error {
	count, revenue := model.Totals(bookings)
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"bookings":      bookings,
		"totalBookings": count,
		"totalRevenue":  revenue,
	})
}
