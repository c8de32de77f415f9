package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/handler"
)

// Guards bundles the middleware the route groups pick from.  User and
// Admin authenticate the caller and Either takes both token kinds.
// RateLimit throttles auth and booking writes and Cache serves the public
// listings from Redis.
type Guards struct {
	User      echo.MiddlewareFunc
	Admin     echo.MiddlewareFunc
	Either    echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers routes that do not belong to a resource group.
// GET / is the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Health)
}

// RegisterWebhooks mounts the payment gateway callback.  It carries no
// bearer auth; the handler verifies the signature instead.
func RegisterWebhooks(e *echo.Echo, h *handler.WebhookHandler) {
	e.POST("/api/webhooks/stripe", h.Stripe)
}
