package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
)

// RegisterUser registers the account endpoints under /api/user.  Sign-up,
// sign-in and token exchange are public but rate limited; the rest need a
// user access token.
func RegisterUser(e *echo.Echo, h *handler.UserHandler, g Guards) {
	r := e.Group("/api/user")
	r.POST("/sign-up", h.SignUp, g.RateLimit)
	r.POST("/sign-in", h.SignIn, g.RateLimit)
	r.POST("/google-sign-in", h.GoogleSignIn, g.RateLimit)
	r.POST("/refresh-token", h.RefreshToken, g.RateLimit)

	r.GET("", h.GetUser, g.User)
	r.GET("/details", h.Details, g.User)
	r.PUT("", h.Update, g.User)
	r.POST("/store-recent-search", h.StoreRecentSearch, g.User)
	r.POST("/sign-out", h.SignOut, g.User)
}
