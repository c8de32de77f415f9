// Package validation checks request fields against rule tables keyed by
// operation code.  Every mutating handler runs Check before touching the
// store and answers 400 with the returned field errors when it fails.
package validation

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Operation codes.
const (
	CreateUser                = "createUser"
	SignInUser                = "signInUser"
	UpdateUser                = "updateUser"
	StoreRecentSearchedCities = "storeRecentSearchedCities"
	SignOutUser               = "signOutUser"
	GoogleSignIn              = "googleSignIn"

	CreateAdmin  = "createAdmin"
	SignInAdmin  = "signInAdmin"
	UpdateAdmin  = "updateAdmin"
	SignOutAdmin = "signOutAdmin"

	CreateHotel            = "createHotel"
	UpdateHotel            = "updateHotel"
	DeleteHotel            = "deleteHotel"
	FindHotelOnGeoLocation = "findHotelOnGeoLocation"

	CreateRoom             = "createRoom"
	ToggleRoomAvailability = "toggleRoomAvailability"
	GetOwnerRooms          = "getOwnerRooms"

	CreateBooking     = "createBooking"
	UpdateBooking     = "updateBooking"
	DeleteBooking     = "deleteBooking"
	CheckAvailability = "checkAvailability"
	GetUserBookings   = "getUserBookings"
	GetHotelBookings  = "getHotelBookings"
)

// Fields is the set of values handed to Check, keyed by request field name.
type Fields map[string]any

// Result is the outcome of Check.  Errors holds one or more messages per
// failing field.
type Result struct {
	HasError bool                `json:"hasError"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

var rules = map[string]map[string]any{
	CreateUser:                {"name": "required", "email": "required,email", "password": "required"},
	SignInUser:                {"email": "required,email", "password": "required"},
	UpdateUser:                {"name": "required", "email": "required,email"},
	StoreRecentSearchedCities: {"recentSearchCity": "required,max=128"},
	SignOutUser:               {"userId": "required"},
	GoogleSignIn:              {"name": "required", "email": "required,email", "socialMediaId": "required"},

	CreateAdmin:  {"name": "required", "email": "required,email", "password": "required"},
	SignInAdmin:  {"email": "required,email", "password": "required"},
	UpdateAdmin:  {"name": "required", "email": "required,email", "password": "required"},
	SignOutAdmin: {"userId": "required"},

	CreateHotel: {
		"id": "required", "name": "required", "address": "required", "contact": "required", "city": "required",
		"latitude": "required,latitude", "longitude": "required,longitude",
	},
	UpdateHotel: {
		"id": "required", "hotelId": "required", "name": "required", "address": "required", "contact": "required",
		"city": "required", "latitude": "required,latitude", "longitude": "required,longitude",
	},
	DeleteHotel: {
		"id": "required", "hotelId": "required", "latitude": "required,latitude", "longitude": "required,longitude",
	},
	FindHotelOnGeoLocation: {"latitude": "required,latitude", "longitude": "required,longitude"},

	CreateRoom:             {"roomType": "required", "pricePerNight": "required,numeric", "amenities": "required,json"},
	ToggleRoomAvailability: {"roomId": "required"},
	GetOwnerRooms:          {"id": "required"},

	CreateBooking:     {"room": "required", "checkInDate": "required", "checkOutDate": "required", "guests": "required,number,min=1"},
	UpdateBooking:     {"id": "required", "checkInDate": "required", "checkOutDate": "required", "guests": "required,number,min=1"},
	DeleteBooking:     {"id": "required"},
	CheckAvailability: {"room": "required", "checkInDate": "required", "checkOutDate": "required"},
	GetUserBookings:   {"user": "required"},
	GetHotelBookings:  {"hotel": "required"},
}

var validate = validator.New()

// Check validates fields against the rule table of op.  Fields absent from
// the table are ignored; an unknown op is reported as a failure.
func Check(op string, fields Fields) Result {
	table, ok := rules[op]
	if !ok {
		return Result{HasError: true, Errors: map[string][]string{"eventCode": {"Unknown validation event " + op + "."}}}
	}
	failed := validate.ValidateMap(fields, table)
	if len(failed) == 0 {
		return Result{}
	}
	out := Result{HasError: true, Errors: make(map[string][]string, len(failed))}
	for field, e := range failed {
		ve, ok := e.(validator.ValidationErrors)
		if !ok {
			out.Errors[field] = []string{fmt.Sprintf("The %s field is invalid.", field)}
			continue
		}
		for _, fe := range ve {
			out.Errors[field] = append(out.Errors[field], message(field, fe))
		}
		sort.Strings(out.Errors[field])
	}
	return out
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s format is invalid.", field)
	case "numeric", "number":
		return fmt.Sprintf("The %s must be a number.", field)
	case "latitude", "longitude":
		return fmt.Sprintf("The %s must be a valid %s.", field, fe.Tag())
	case "json":
		return fmt.Sprintf("The %s must be a JSON array.", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	}
	return fmt.Sprintf("The %s field is invalid.", field)
}
