// Package queue carries booking writes from the API to the store through
// RabbitMQ.  The API publishes envelopes, a scheduled poller pulls them one
// at a time and hands them to the Processor.
package queue

import (
	"encoding/json"
	"errors"
	"time"
)

// Event types.  Each maps to its own queue.
const EventBooking = "booking"

// Actions carried in the data of a booking envelope.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

var (
	ErrInvalidType   = errors.New("queue: invalid event type")
	ErrInvalidAction = errors.New("queue: invalid action")
	ErrMissingID     = errors.New("queue: missing booking id")
	ErrMalformed     = errors.New("queue: malformed message")
)

// Envelope is the JSON body of every message: {"type": ..., "data": {...}}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// BookingMessage is the data of a booking envelope.  Create messages carry
// every field but ID; update messages carry ID, dates and guests; delete
// messages only ID.
type BookingMessage struct {
	ID           string    `json:"_id,omitempty"`
	Action       string    `json:"action"`
	User         string    `json:"user,omitempty"`
	Room         string    `json:"room,omitempty"`
	Hotel        string    `json:"hotel,omitempty"`
	CheckInDate  time.Time `json:"checkInDate,omitzero"`
	CheckOutDate time.Time `json:"checkOutDate,omitzero"`
	TotalPrice   float64   `json:"totalPrice,omitempty"`
	Guests       int       `json:"guests,omitempty"`
}
