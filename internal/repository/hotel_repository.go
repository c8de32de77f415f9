package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// HotelRepo reads and writes the `hotels` table.  Creating and deleting a
// hotel also touches the owner's role, so both run in a transaction.
type HotelRepo struct{ DB *sql.DB }

func NewHotelRepo(db *sql.DB) *HotelRepo { return &HotelRepo{DB: db} }

const hotelCols = "id, owner_id, name, address, contact, city, latitude, longitude, is_deleted, deleted_at, created_at, updated_at"

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111320.0

// nearClause restricts rows to a great-circle radius around a point.  The
// BETWEEN ranges let MySQL use the (latitude, longitude) index before
// ST_Distance_Sphere is evaluated.
const nearClause = `latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
	AND ST_Distance_Sphere(POINT(longitude, latitude), POINT(?, ?)) <= ?`

// nearArgs returns the arguments of nearClause for the given point.
func nearArgs(lat, lng, radius float64) []any {
	dLat := radius / metersPerDegree
	cos := math.Cos(lat * math.Pi / 180)
	dLng := 180.0
	if cos > 1e-6 {
		dLng = math.Min(180, radius/(metersPerDegree*cos))
	}
	return []any{lat - dLat, lat + dLat, lng - dLng, lng + dLng, lng, lat, radius}
}

func scanHotel(s rowScanner) (model.Hotel, error) {
	var (
		h       model.Hotel
		deleted sql.NullTime
	)
	err := s.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Address, &h.Contact, &h.City, &h.Latitude, &h.Longitude,
		&h.IsDeleted, &deleted, &h.CreatedAt, &h.UpdatedAt)
	if deleted.Valid {
		t := deleted.Time
		h.DeletedAt = &t
	}
	return h, err
}

func (r *HotelRepo) list(ctx context.Context, q string, args ...any) ([]model.Hotel, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ExistsNear reports whether owner already has an active hotel called name
// within radius meters of (lat, lng).
func (r *HotelRepo) ExistsNear(ctx context.Context, name, owner string, lat, lng, radius float64) (bool, error) {
	args := append([]any{name, owner}, nearArgs(lat, lng, radius)...)
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM hotels WHERE name=? AND owner_id=? AND is_deleted=0 AND "+nearClause,
		args...).Scan(&n)
	return n > 0, err
}

// FindOwnedNear fetches hotel id when it belongs to owner and lies within
// radius meters of (lat, lng).
func (r *HotelRepo) FindOwnedNear(ctx context.Context, id, owner string, lat, lng, radius float64) (model.Hotel, error) {
	args := append([]any{id, owner}, nearArgs(lat, lng, radius)...)
	h, err := scanHotel(r.DB.QueryRowContext(ctx,
		"SELECT "+hotelCols+" FROM hotels WHERE id=? AND owner_id=? AND "+nearClause+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHotelNotFound
	}
	return h, err
}

// FirstByOwner returns the oldest hotel of owner.  Soft-deleted hotels are
// considered only when includeDeleted is set.
func (r *HotelRepo) FirstByOwner(ctx context.Context, owner string, includeDeleted bool) (model.Hotel, error) {
	q := "SELECT " + hotelCols + " FROM hotels WHERE owner_id=?"
	if !includeDeleted {
		q += " AND is_deleted=0"
	}
	h, err := scanHotel(r.DB.QueryRowContext(ctx, q+" ORDER BY created_at ASC LIMIT 1", owner))
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrHotelNotFound
	}
	return h, err
}

// ListNear returns active hotels within radius meters of (lat, lng),
// nearest first.
func (r *HotelRepo) ListNear(ctx context.Context, lat, lng, radius float64) ([]model.Hotel, error) {
	args := append(nearArgs(lat, lng, radius), lng, lat)
	return r.list(ctx,
		"SELECT "+hotelCols+" FROM hotels WHERE is_deleted=0 AND "+nearClause+
			" ORDER BY ST_Distance_Sphere(POINT(longitude, latitude), POINT(?, ?))", args...)
}

// ListAll returns every hotel row, deleted or not.
func (r *HotelRepo) ListAll(ctx context.Context) ([]model.Hotel, error) {
	return r.list(ctx, "SELECT "+hotelCols+" FROM hotels ORDER BY created_at DESC")
}

// CreateAndPromote inserts h and makes its owner a hotel owner.  Both
// writes commit together.
func (r *HotelRepo) CreateAndPromote(ctx context.Context, h *model.Hotel) error {
	h.ID = uuid.NewString()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO hotels (id, owner_id, name, address, contact, city, latitude, longitude)
		 VALUES (?,?,?,?,?,?,?,?)`,
		h.ID, h.OwnerID, h.Name, h.Address, h.Contact, h.City, h.Latitude, h.Longitude); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", model.RoleHotelOwner, h.OwnerID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update overwrites the descriptive fields and location of h.  The hotel is
// revived if it had been soft-deleted.
func (r *HotelRepo) Update(ctx context.Context, h model.Hotel) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE hotels SET name=?, address=?, contact=?, city=?, latitude=?, longitude=?, is_deleted=0, deleted_at=NULL
		 WHERE id=?`,
		h.Name, h.Address, h.Contact, h.City, h.Latitude, h.Longitude, h.ID)
	return err
}

// DeleteCascade soft-deletes hotel id of owner, removes its rooms and
// bookings, and demotes owner to a plain user when no active hotel is
// left.  It reports whether the owner was demoted.
func (r *HotelRepo) DeleteCascade(ctx context.Context, id, owner string) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		"UPDATE hotels SET is_deleted=1, deleted_at=? WHERE id=? AND owner_id=? AND is_deleted=0",
		stamp(), id, owner); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE hotel_id=?", id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE hotel_id=?", id); err != nil {
		return false, err
	}
	var remaining int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM hotels WHERE owner_id=? AND is_deleted=0", owner).Scan(&remaining); err != nil {
		return false, err
	}
	demoted := remaining == 0
	if demoted {
		if _, err := tx.ExecContext(ctx, "UPDATE users SET role=? WHERE id=?", model.RoleUser, owner); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return demoted, nil
}
