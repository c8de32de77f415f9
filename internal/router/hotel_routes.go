package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
	"github.com/iliyamo/hotel-booking/internal/middleware"
	"github.com/iliyamo/hotel-booking/internal/model"
)

// RegisterHotels registers /api/hotels.  Any signed in user may register a
// hotel; changing or deleting one requires the hotel owner role.
func RegisterHotels(e *echo.Echo, h *handler.HotelHandler, g Guards) {
	r := e.Group("/api/hotels")
	r.GET("", h.FindNear, g.Cache)
	r.POST("", h.Create, g.User)
	r.PUT("", h.Update, g.User, middleware.RequireRole(model.RoleHotelOwner))
	r.DELETE("", h.Delete, g.User, middleware.RequireRole(model.RoleHotelOwner))
}

// RegisterRooms registers /api/rooms.  The public listing is cached; room
// management requires the hotel owner role.
func RegisterRooms(e *echo.Echo, h *handler.RoomHandler, g Guards) {
	owner := middleware.RequireRole(model.RoleHotelOwner)
	r := e.Group("/api/rooms")
	r.GET("", h.List, g.Cache)
	r.POST("", h.Create, g.User, owner)
	r.GET("/owner", h.OwnerRooms, g.User, owner)
	r.POST("/toggle-availability", h.ToggleAvailability, g.User, owner)
}
