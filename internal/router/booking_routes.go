package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
)

// RegisterBookings registers /api/bookings.  Availability checks are
// public; writes are rate limited per caller after authentication.  Update
// and delete also take admin tokens.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, g Guards) {
	r := e.Group("/api/bookings")
	r.POST("/check-availability", h.CheckAvailability, g.RateLimit)
	r.POST("/book", h.Book, g.User, g.RateLimit)
	r.POST("/update", h.Update, g.Either, g.RateLimit)
	r.POST("/delete", h.Delete, g.Either, g.RateLimit)
	r.GET("/user", h.UserBookings, g.User)
	r.GET("/hotel", h.HotelBookings, g.User)
}
