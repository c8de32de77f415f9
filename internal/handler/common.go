package handler // handler defines http handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-booking/internal/validation"
)

// requestTimeout bounds the store calls of a single request; uploadTimeout
// also covers pushing room images to the image host.
const (
	requestTimeout = 5 * time.Second
	uploadTimeout  = 60 * time.Second
)

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes the error envelope.  message is a string or, for validation
// failures, the field error map.
func fail(c echo.Context, status int, message any) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

func invalid(c echo.Context, r validation.Result) error {
	return fail(c, http.StatusBadRequest, r.Errors)
}

// internalError logs err and answers 500 without leaking it.
func internalError(c echo.Context, what string, err error) error {
	c.Logger().Errorf("%s: %v", what, err)
	return fail(c, http.StatusInternalServerError, "Something went wrong")
}

func badBody(c echo.Context) error {
	return fail(c, http.StatusBadRequest, "invalid body")
}

// dateLayouts are the accepted forms of checkInDate and checkOutDate.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate reads a client date as UTC.  Date-only values mean midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("invalid date " + strconv.Quote(s))
}

// numString accepts a JSON number or a numeric string.  It keeps the text
// so that validation sees exactly what the client sent.
type numString string

func (n *numString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numString(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = numString(num.String())
	return nil
}

// Int reports the value as an int when it is a whole number.
func (n numString) Int() (int, bool) {
	i, err := strconv.Atoi(string(n))
	return i, err == nil
}

// field is the value handed to validation: the int when the text is a whole
// number, otherwise the text itself so that the number rule rejects it.
func (n numString) field() any {
	if i, ok := n.Int(); ok {
		return i
	}
	return string(n)
}

func (n numString) Float() float64 {
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}
