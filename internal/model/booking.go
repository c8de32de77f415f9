package model

import "time"

// Booking lifecycle statuses.  StatusPaymentFailed is only ever written by
// the payment webhook.
const (
	StatusPending       = "pending"
	StatusCompleted     = "completed"
	StatusCancelled     = "cancelled"
	StatusPaymentFailed = "payment_failed"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentPaid      = "paid"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

// Payment methods.
const (
	PaymentMethodAtHotel = "Pay At Hotel"
	PaymentMethodStripe  = "stripe"
)

// Booking represents a row of the `bookings` table.  For a given room no
// two non-cancelled bookings should overlap on [CheckIn, CheckOut); this is
// checked by a query before the create message is enqueued and is not
// backed by a database constraint.
type Booking struct {
	ID            string     `json:"_id"`
	UserID        string     `json:"user"`
	RoomID        string     `json:"room"`
	HotelID       string     `json:"hotel"`
	CheckIn       time.Time  `json:"checkInDate"`
	CheckOut      time.Time  `json:"checkOutDate"`
	TotalPrice    float64    `json:"totalPrice"`
	Guests        int        `json:"guests"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentStatus string     `json:"paymentStatus"`
	IsPaid        bool       `json:"isPaid"`
	PaymentID     *string    `json:"paymentId,omitempty"`
	PaymentDate   *time.Time `json:"paymentDate,omitempty"`
	PaymentError  *string    `json:"paymentError,omitempty"`
	Status        string     `json:"status"`
	IsDeleted     bool       `json:"isDeleted"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BookingDetail is a booking with its room and hotel populated, used by the
// user and hotel booking listings.
type BookingDetail struct {
	Booking
	RoomType  string `json:"roomType"`
	HotelName string `json:"hotelName"`
	HotelCity string `json:"hotelCity"`
	UserEmail string `json:"userEmail,omitempty"`
}

// PaymentUpdate is the absolute set of payment fields written onto a
// booking by the payment webhook.  Nil pointers leave the column untouched.
type PaymentUpdate struct {
	Status        string
	PaymentStatus string
	IsPaid        bool
	PaymentMethod *string
	PaymentID     *string
	PaymentDate   *time.Time
	PaymentError  *string
}

// Totals returns the number of bookings and the sum of their prices, shown
// next to the user and hotel booking listings.
func Totals(bookings []BookingDetail) (count int, revenue float64) {
	for _, b := range bookings {
		revenue += b.TotalPrice
	}
	return len(bookings), revenue
}
