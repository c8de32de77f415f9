package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
)

// RegisterAdmin registers the admin endpoints under /api/admin.  Everything
// except sign-up, sign-in and token exchange requires an admin token.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, g Guards) {
	r := e.Group("/api/admin")
	r.POST("/sign-up", h.SignUp, g.RateLimit)
	r.POST("/sign-in", h.SignIn, g.RateLimit)
	r.POST("/refresh-token", h.RefreshToken, g.RateLimit)

	p := r.Group("", g.Admin)
	p.POST("/sign-out", h.SignOut)
	p.PUT("", h.Update)
	p.GET("/all-users", h.AllUsers)
	p.GET("/all-hotel-owners", h.AllHotelOwners)
	p.GET("/all-hotels", h.AllHotels)
	p.GET("/all-rooms", h.AllRooms)
	p.GET("/all-bookings", h.AllBookings)
	p.GET("/hotel-bookings/:id", h.HotelBookings)
	p.GET("/user-bookings/:id", h.UserBookings)
}
