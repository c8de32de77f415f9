package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/repository"
	"github.com/iliyamo/hotel-booking/internal/validation"
)

type updateUserReq struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
	Image string  `json:"image"`
}

type recentSearchReq struct {
	RecentSearchCity string `json:"recentSearchCity"`
}

// GetUser returns the caller's role and recently searched cities.
func (h *UserHandler) GetUser(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	cities := u.RecentCities
	if cities == nil {
		cities = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "role": u.Role, "recentSearchedCities": cities})
}

// Details returns the caller's profile as currently stored.
func (h *UserHandler) Details(c echo.Context) error {
	id, _ := c.Get(middleware.KeyUserID).(string)

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return internalError(c, "user details", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "userData": u})
}

// Update changes the caller's name, email, phone and image.
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if r := validation.Check(validation.UpdateUser, validation.Fields{"name": req.Name, "email": req.Email}); r.HasError {
		return invalid(c, r)
	}
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}
	image := req.Image
	if image == "" {
		image = u.Image
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Users.UpdateProfile(ctx, u.ID, req.Name, req.Email, req.Phone, image)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return fail(c, http.StatusConflict, "Email already in use")
	case errors.Is(err, repository.ErrPhoneExists):
		return fail(c, http.StatusConflict, "Phone already in use")
	case err != nil:
		return internalError(c, "update user", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "User updated successfully"})
}

// StoreRecentSearch appends a city to the caller's recent searches,
// keeping only the newest model.MaxRecentCities entries.
func (h *UserHandler) StoreRecentSearch(c echo.Context) error {
	var req recentSearchReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	city := strings.TrimSpace(req.RecentSearchCity)
	if r := validation.Check(validation.StoreRecentSearchedCities, validation.Fields{"recentSearchCity": city}); r.HasError {
		return invalid(c, r)
	}
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cities := model.PushRecentCity(u.RecentCities, city)
	if err := h.Users.SetRecentCities(ctx, u.ID, cities); err != nil {
		return internalError(c, "store recent search", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Recent searched city stored successfully"})
}
