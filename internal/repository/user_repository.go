package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// UserRepo reads and writes the `users` table.  Default lookups skip
// soft-deleted rows; the admin listings read the raw table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, username, email, phone, image, role, recent_searched_cities, password_hash,
	access_token, refresh_token_hash, login_with, social_media_id, is_deleted, deleted_at, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u       model.User
		phone   sql.NullString
		cities  []byte
		access  sql.NullString
		refresh sql.NullString
		deleted sql.NullTime
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &phone, &u.Image, &u.Role, &cities, &u.PasswordHash,
		&access, &refresh, &u.LoginWith, &u.SocialMediaID, &u.IsDeleted, &deleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if phone.Valid {
		p := phone.String
		u.Phone = &p
	}
	u.RecentCities = []string{}
	if len(cities) > 0 {
		if err := json.Unmarshal(cities, &u.RecentCities); err != nil {
			return u, fmt.Errorf("decode recent cities: %w", err)
		}
	}
	u.AccessToken = access.String
	u.RefreshTokenHash = refresh.String
	if deleted.Valid {
		t := deleted.Time
		u.DeletedAt = &t
	}
	return u, nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, args ...any) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE "+where+" LIMIT 1", args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// Create inserts u, assigning a fresh id.  A taken email yields
// ErrEmailExists and a taken phone ErrPhoneExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if u.LoginWith == "" {
		u.LoginWith = model.LoginWithEmail
	}
	if u.RecentCities == nil {
		u.RecentCities = []string{}
	}
	cities, _ := json.Marshal(u.RecentCities)
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, email, phone, image, role, recent_searched_cities, password_hash,
			access_token, refresh_token_hash, login_with, social_media_id)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.Email, u.Phone, u.Image, u.Role, cities, u.PasswordHash,
		nullIfEmpty(u.AccessToken), nullIfEmpty(u.RefreshTokenHash), u.LoginWith, u.SocialMediaID)
	if err != nil {
		return mapUserDuplicate(err)
	}
	return nil
}

// GetByEmail fetches an active user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "email=? AND is_deleted=0", email)
}

// GetByID fetches a user by id, including soft-deleted ones so that the
// caller can decide how to treat them.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.getOne(ctx, "id=?", id)
}

// GetByRefreshHash fetches the active user holding the given refresh token
// digest.
func (r *UserRepo) GetByRefreshHash(ctx context.Context, hash string) (model.User, error) {
	return r.getOne(ctx, "refresh_token_hash=? AND is_deleted=0", hash)
}

// SetTokens stores the current access token and refresh digest, and the
// provider used for this sign in.
func (r *UserRepo) SetTokens(ctx context.Context, id, access, refreshHash, loginWith string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=?, refresh_token_hash=?, login_with=? WHERE id=?",
		access, refreshHash, loginWith, id)
	return err
}

// SetAccessToken replaces only the access token, used on refresh.
func (r *UserRepo) SetAccessToken(ctx context.Context, id, access string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET access_token=? WHERE id=?", access, id)
	return err
}

// ClearTokens revokes both tokens of a user.
func (r *UserRepo) ClearTokens(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=NULL, refresh_token_hash=NULL WHERE id=?", id)
	return err
}

// UpdateSocial refreshes the display name and provider id of a user that
// signed in through a social provider.
func (r *UserRepo) UpdateSocial(ctx context.Context, id, username, socialID, loginWith string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, social_media_id=?, login_with=? WHERE id=?",
		username, socialID, loginWith, id)
	return err
}

// UpdateProfile changes name, email, phone and image.  A nil phone keeps
// the current one.
func (r *UserRepo) UpdateProfile(ctx context.Context, id, username, email string, phone *string, image string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, email=?, phone=COALESCE(?, phone), image=? WHERE id=?",
		username, email, phone, image, id)
	if err != nil {
		return mapUserDuplicate(err)
	}
	return nil
}

// SetRecentCities overwrites the recently searched cities list.
func (r *UserRepo) SetRecentCities(ctx context.Context, id string, cities []string) error {
	b, err := json.Marshal(cities)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET recent_searched_cities=? WHERE id=?", b, id)
	return err
}

// ListByRole returns every user with role, newest first.  Soft-deleted
// rows are included.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users WHERE role=? ORDER BY created_at DESC", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func mapUserDuplicate(err error) error {
	if !isDuplicate(err) {
		return err
	}
	if strings.HasPrefix(duplicateKey(err), "phone") {
		return ErrPhoneExists
	}
	return ErrEmailExists
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// stamp returns the current UTC time truncated to seconds, matching the
// DATETIME precision of the schema.
func stamp() time.Time { return time.Now().UTC().Truncate(time.Second) }
