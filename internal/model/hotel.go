package model

import "time"

// Hotel represents a row of the `hotels` table.  Location is stored as a
// latitude/longitude pair; proximity lookups are done in SQL.
type Hotel struct {
	ID        string     `json:"_id"`
	OwnerID   string     `json:"owner"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Contact   string     `json:"contact"`
	City      string     `json:"city"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Room represents a row of the `rooms` table.  (HotelID, RoomType) is unique.
type Room struct {
	ID            string    `json:"_id"`
	HotelID       string    `json:"hotel"`
	RoomType      string    `json:"roomType"`
	PricePerNight float64   `json:"pricePerNight"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images"`
	IsAvailable   bool      `json:"isAvailable"`
	IsDeleted     bool      `json:"isDeleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RoomWithHotel is a room joined with a projection of its hotel, returned
// by the public room listing.
type RoomWithHotel struct {
	Room
	HotelData HotelSummary `json:"hotelData"`
}

// HotelSummary is the subset of hotel fields exposed next to a room.
type HotelSummary struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Contact   string `json:"contact"`
	City      string `json:"city"`
	OwnerID   string `json:"owner"`
	IsDeleted bool   `json:"isDeleted"`
}
