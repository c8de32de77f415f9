// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the caller is not the owner of
// the hotel it tries to modify, while ErrHotelExists signals that an
// active hotel with the same name already sits at that location.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, such as toggling a room of another
// owner's hotel. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Not found errors, one per table.  Handlers translate them into 404 (or
// 400 where a client supplied reference is invalid).
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrHotelNotFound   = errors.New("hotel not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// Uniqueness violations.  Handlers translate them into HTTP 409.
var (
	ErrEmailExists = errors.New("email already exists")
	ErrPhoneExists = errors.New("phone already exists")
	ErrRoomExists  = errors.New("room type already exists for hotel")
	ErrHotelExists = errors.New("hotel already exists at this location")
)

// isDuplicate reports whether err is a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// duplicateKey returns the index name reported by a duplicate key error,
// or "" when it cannot be determined.
func duplicateKey(err error) string {
	msg := err.Error()
	i := strings.LastIndex(msg, "for key '")
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len("for key '"):], "'")
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}
