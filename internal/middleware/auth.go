package middleware // middleware holds the request filters shared by the route groups

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/utils"
)

// Context keys set by Protect and ProtectAdmin.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
	KeyUser   = "user"
	KeyAdmin  = "admin"
)

// UserLoader loads the account named by a token subject.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

// AdminLoader loads the admin named by a token subject.
type AdminLoader interface {
	GetByID(ctx context.Context, id string) (model.Admin, error)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "Unauthorized"})
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

// Protect accepts a user access token only while it is the token stored on
// the account: signing out or signing in elsewhere revokes older tokens.
// Deleted accounts are refused.  The loaded user is available through
// CurrentUser.
func Protect(secret string, users UserLoader) echo.MiddlewareFunc {
	return ProtectEither(secret, users, nil)
}

// ProtectAdmin is Protect for the admins table.
func ProtectAdmin(secret string, admins AdminLoader) echo.MiddlewareFunc {
	return ProtectEither(secret, nil, admins)
}

// ProtectEither accepts user tokens when users is set and admin tokens
// when admins is set, checking each against its own table.
func ProtectEither(secret string, users UserLoader, admins AdminLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return unauthorized(c)
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c)
			}
			ctx := c.Request().Context()
			switch {
			case claims.Kind == utils.KindUser && users != nil:
				u, err := users.GetByID(ctx, claims.Subject)
				if err != nil || u.IsDeleted || u.AccessToken != raw {
					return unauthorized(c)
				}
				c.Set(KeyUserID, u.ID)
				c.Set(KeyRole, u.Role)
				c.Set(KeyUser, u)
			case claims.Kind == utils.KindAdmin && admins != nil:
				a, err := admins.GetByID(ctx, claims.Subject)
				if err != nil || a.AccessToken != raw {
					return unauthorized(c)
				}
				c.Set(KeyUserID, a.ID)
				c.Set(KeyRole, model.RoleAdmin)
				c.Set(KeyAdmin, a)
			default:
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Protect.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(KeyUser).(model.User)
	return u, ok
}

// CurrentAdmin returns the admin stored by ProtectAdmin.
func CurrentAdmin(c echo.Context) (model.Admin, bool) {
	a, ok := c.Get(KeyAdmin).(model.Admin)
	return a, ok
}
