package middleware

import "github.com/labstack/echo/v4"

// RequireRole lets the request through only when the role set by Protect
// is one of roles.  Anything else is answered 401, like a bad token.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if !allowed[role] {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}
