package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Logger is the subset of echo.Logger used while migrating.
type Logger interface {
	Infof(format string, args ...interface{})
}

// table pairs a table name with its idempotent DDL.  Unique, sort and
// location indexes are declared inline so that a fresh database comes up
// with the same guarantees as a migrated one.
type table struct {
	name string
	ddl  string
}

var tables = []table{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) NOT NULL PRIMARY KEY,
		username VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NULL,
		image VARCHAR(1024) NOT NULL DEFAULT '',
		role VARCHAR(16) NOT NULL DEFAULT 'user',
		recent_searched_cities JSON NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		access_token TEXT NULL,
		refresh_token_hash CHAR(64) NULL,
		login_with VARCHAR(16) NOT NULL DEFAULT 'email',
		social_media_id VARCHAR(255) NOT NULL DEFAULT '',
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY email_1 (email),
		UNIQUE KEY phone_1 (phone),
		KEY refresh_token_1 (refresh_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"admins", `CREATE TABLE IF NOT EXISTS admins (
		id CHAR(36) NOT NULL PRIMARY KEY,
		username VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'admin',
		password_hash VARCHAR(255) NOT NULL,
		access_token TEXT NULL,
		refresh_token_hash CHAR(64) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY admin_email_1 (email),
		KEY admin_refresh_token_1 (refresh_token_hash)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"hotels", `CREATE TABLE IF NOT EXISTS hotels (
		id CHAR(36) NOT NULL PRIMARY KEY,
		owner_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(512) NOT NULL,
		contact VARCHAR(64) NOT NULL,
		city VARCHAR(128) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY hotel_owner_1 (owner_id, is_deleted),
		KEY location_1 (latitude, longitude),
		FULLTEXT KEY hotel_search (name, address)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"rooms", `CREATE TABLE IF NOT EXISTS rooms (
		id CHAR(36) NOT NULL PRIMARY KEY,
		hotel_id CHAR(36) NOT NULL,
		room_type VARCHAR(128) NOT NULL,
		price_per_night DECIMAL(12,2) NOT NULL,
		amenities JSON NULL,
		images JSON NULL,
		is_available TINYINT(1) NOT NULL DEFAULT 1,
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY hotel_room_type_1 (hotel_id, room_type),
		KEY price_per_night_1 (price_per_night)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) NOT NULL PRIMARY KEY,
		user_id CHAR(36) NOT NULL,
		room_id CHAR(36) NOT NULL,
		hotel_id CHAR(36) NOT NULL,
		check_in_date DATETIME NOT NULL,
		check_out_date DATETIME NOT NULL,
		total_price DECIMAL(12,2) NOT NULL,
		guests INT NOT NULL,
		payment_method VARCHAR(32) NOT NULL DEFAULT 'Pay At Hotel',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		is_paid TINYINT(1) NOT NULL DEFAULT 0,
		payment_id VARCHAR(255) NULL,
		payment_date DATETIME NULL,
		payment_error TEXT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		is_deleted TINYINT(1) NOT NULL DEFAULT 0,
		deleted_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY booking_dates_1 (check_in_date, check_out_date),
		KEY user_bookings_1 (user_id),
		KEY room_bookings_1 (room_id),
		KEY hotel_bookings_1 (hotel_id),
		KEY booking_status_1 (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// Migrate creates every table (and its indexes) that does not exist yet.
// It is safe to call on each start.
func Migrate(ctx context.Context, db *sql.DB, log Logger) error {
	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.name, err)
		}
		log.Infof("schema: table %s ready", t.name)
	}
	return nil
}
