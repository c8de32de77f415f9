package model

import "time"

// Roles carried by users and admins.  A user becomes a hotel owner when
// registering their first hotel and falls back to a plain user once the
// last one is deleted.
const (
	RoleUser       = "user"
	RoleHotelOwner = "hotelOwner"
	RoleAdmin      = "admin"
)

// Login providers recorded on the user row.
const (
	LoginWithEmail    = "email"
	LoginWithGoogle   = "google"
	LoginWithFacebook = "facebook"
)

// MaxRecentCities bounds the recently searched cities list kept per user.
const MaxRecentCities = 3

// User represents a row of the `users` table.
//
// Fields:
//
//	ID               – uuid primary key.
//	Username         – display name.
//	Email            – unique, lower-cased address.
//	Phone            – optional, unique when present.
//	Role             – user | hotelOwner.
//	RecentCities     – FIFO list of at most MaxRecentCities entries.
//	PasswordHash     – bcrypt hash, empty for social accounts.
//	AccessToken      – the access token currently accepted for this user.
//	RefreshTokenHash – SHA-256 hex digest of the current refresh token.
//	LoginWith        – provider used for the last sign in.
//	SocialMediaID    – provider subject for social logins.
//	IsDeleted        – soft delete flag, DeletedAt stamps it.
type User struct {
	ID               string     `json:"_id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Phone            *string    `json:"phone,omitempty"`
	Image            string     `json:"image,omitempty"`
	Role             string     `json:"role"`
	RecentCities     []string   `json:"recentSearchedCities"`
	PasswordHash     string     `json:"-"`
	AccessToken      string     `json:"-"`
	RefreshTokenHash string     `json:"-"`
	LoginWith        string     `json:"loginWith"`
	SocialMediaID    string     `json:"socialMediaId,omitempty"`
	IsDeleted        bool       `json:"isDeleted"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Admin mirrors the authentication fields of User in the separate
// `admins` table.  Admins never own bookings.
type Admin struct {
	ID               string    `json:"_id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	PasswordHash     string    `json:"-"`
	AccessToken      string    `json:"-"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PushRecentCity appends city to the list and evicts the oldest entries so
// that the result never holds more than MaxRecentCities values.  The input
// slice is not modified.
func PushRecentCity(cities []string, city string) []string {
	out := make([]string, 0, MaxRecentCities)
	out = append(out, cities...)
	out = append(out, city)
	if len(out) > MaxRecentCities {
		out = out[len(out)-MaxRecentCities:]
	}
	return out
}
