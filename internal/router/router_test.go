package router

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
)

func pass(next echo.HandlerFunc) echo.HandlerFunc { return next }

func TestRoutesRegistered(t *testing.T) {
	e := echo.New()
	g := Guards{User: pass, Admin: pass, Either: pass, RateLimit: pass, Cache: pass}
	RegisterRoutes(e)
	RegisterUser(e, &handler.UserHandler{}, g)
	RegisterAdmin(e, &handler.AdminHandler{}, g)
	RegisterHotels(e, &handler.HotelHandler{}, g)
	RegisterRooms(e, &handler.RoomHandler{}, g)
	RegisterBookings(e, &handler.BookingHandler{}, g)
	RegisterWebhooks(e, &handler.WebhookHandler{})

	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	want := []string{
		"GET /",
		"GET /api/user", "GET /api/user/details", "PUT /api/user", "POST /api/user/store-recent-search",
		"POST /api/user/sign-up", "POST /api/user/sign-in", "POST /api/user/sign-out",
		"POST /api/user/refresh-token", "POST /api/user/google-sign-in",
		"POST /api/admin/sign-up", "POST /api/admin/sign-in", "POST /api/admin/sign-out",
		"POST /api/admin/refresh-token", "PUT /api/admin", "GET /api/admin/all-users",
		"GET /api/admin/all-hotel-owners", "GET /api/admin/all-hotels", "GET /api/admin/all-rooms",
		"GET /api/admin/all-bookings", "GET /api/admin/hotel-bookings/:id", "GET /api/admin/user-bookings/:id",
		"POST /api/hotels", "PUT /api/hotels", "DELETE /api/hotels", "GET /api/hotels",
		"POST /api/rooms", "GET /api/rooms", "GET /api/rooms/owner", "POST /api/rooms/toggle-availability",
		"POST /api/bookings/check-availability", "POST /api/bookings/book", "GET /api/bookings/user",
		"GET /api/bookings/hotel", "POST /api/bookings/update", "POST /api/bookings/delete",
		http.MethodPost + " /api/webhooks/stripe",
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("route %s not registered", w)
		}
	}
}
