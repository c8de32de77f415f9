package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// RoomRepo reads and writes the `rooms` table.
type RoomRepo struct{ DB *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomCols = "r.id, r.hotel_id, r.room_type, r.price_per_night, r.amenities, r.images, r.is_available, r.is_deleted, r.created_at, r.updated_at"

const roomHotelCols = roomCols + ", h.id, h.name, h.address, h.contact, h.city, h.owner_id, h.is_deleted"

func scanRoom(s rowScanner, extra ...any) (model.Room, error) {
	var (
		rm        model.Room
		amenities []byte
		images    []byte
	)
	dest := append([]any{&rm.ID, &rm.HotelID, &rm.RoomType, &rm.PricePerNight, &amenities, &images,
		&rm.IsAvailable, &rm.IsDeleted, &rm.CreatedAt, &rm.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return rm, err
	}
	rm.Amenities, rm.Images = []string{}, []string{}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &rm.Amenities); err != nil {
			return rm, fmt.Errorf("decode amenities: %w", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &rm.Images); err != nil {
			return rm, fmt.Errorf("decode images: %w", err)
		}
	}
	return rm, nil
}

func scanRoomWithHotel(s rowScanner) (model.RoomWithHotel, error) {
	var out model.RoomWithHotel
	h := &out.HotelData
	rm, err := scanRoom(s, &h.ID, &h.Name, &h.Address, &h.Contact, &h.City, &h.OwnerID, &h.IsDeleted)
	out.Room = rm
	return out, err
}

// Create inserts rm as an available room.  A second room of the same type
// in one hotel yields ErrRoomExists.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	rm.ID = uuid.NewString()
	rm.IsAvailable = true
	if rm.Amenities == nil {
		rm.Amenities = []string{}
	}
	if rm.Images == nil {
		rm.Images = []string{}
	}
	amenities, _ := json.Marshal(rm.Amenities)
	images, _ := json.Marshal(rm.Images)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO rooms (id, hotel_id, room_type, price_per_night, amenities, images, is_available)
		 VALUES (?,?,?,?,?,?,1)`,
		rm.ID, rm.HotelID, rm.RoomType, rm.PricePerNight, amenities, images)
	if isDuplicate(err) {
		return ErrRoomExists
	}
	return err
}

// GetWithHotel fetches an active room joined with its hotel.
func (r *RoomRepo) GetWithHotel(ctx context.Context, id string) (model.RoomWithHotel, error) {
	out, err := scanRoomWithHotel(r.DB.QueryRowContext(ctx,
		"SELECT "+roomHotelCols+" FROM rooms r JOIN hotels h ON h.id = r.hotel_id WHERE r.id=? AND r.is_deleted=0 LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrRoomNotFound
	}
	return out, err
}

// ListAvailable returns every room flagged available together with its
// hotel.
func (r *RoomRepo) ListAvailable(ctx context.Context) ([]model.RoomWithHotel, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roomHotelCols+" FROM rooms r JOIN hotels h ON h.id = r.hotel_id WHERE r.is_available=1 ORDER BY r.created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RoomWithHotel{}
	for rows.Next() {
		rw, err := scanRoomWithHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rw)
	}
	return out, rows.Err()
}

// ListByHotel returns the active rooms of a hotel.
func (r *RoomRepo) ListByHotel(ctx context.Context, hotelID string) ([]model.Room, error) {
	return r.list(ctx, "SELECT "+roomCols+" FROM rooms r WHERE r.hotel_id=? AND r.is_deleted=0 ORDER BY r.created_at DESC", hotelID)
}

// ListAll returns every room row.
func (r *RoomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	return r.list(ctx, "SELECT "+roomCols+" FROM rooms r ORDER BY r.created_at DESC")
}

func (r *RoomRepo) list(ctx context.Context, q string, args ...any) ([]model.Room, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// ToggleAvailability flips the availability flag of an active room owned
// by owner and returns the new value.  A room of another owner yields
// ErrForbidden.
func (r *RoomRepo) ToggleAvailability(ctx context.Context, id, owner string) (bool, error) {
	var (
		hotelOwner string
		available  bool
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT h.owner_id, r.is_available FROM rooms r JOIN hotels h ON h.id = r.hotel_id
		 WHERE r.id=? AND r.is_deleted=0 LIMIT 1`, id).Scan(&hotelOwner, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrRoomNotFound
	}
	if err != nil {
		return false, err
	}
	if hotelOwner != owner {
		return false, ErrForbidden
	}
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE rooms SET is_available=? WHERE id=?", !available, id); err != nil {
		return false, err
	}
	return !available, nil
}
