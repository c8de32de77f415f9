package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking/internal/model"
)

// AdminRepo reads and writes the `admins` table.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminCols = "id, username, email, role, password_hash, access_token, refresh_token_hash, created_at, updated_at"

func scanAdmin(s rowScanner) (model.Admin, error) {
	var (
		a       model.Admin
		access  sql.NullString
		refresh sql.NullString
	)
	err := s.Scan(&a.ID, &a.Username, &a.Email, &a.Role, &a.PasswordHash, &access, &refresh, &a.CreatedAt, &a.UpdatedAt)
	a.AccessToken = access.String
	a.RefreshTokenHash = refresh.String
	return a, err
}

func (r *AdminRepo) getOne(ctx context.Context, where string, args ...any) (model.Admin, error) {
	a, err := scanAdmin(r.DB.QueryRowContext(ctx, "SELECT "+adminCols+" FROM admins WHERE "+where+" LIMIT 1", args...))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrAdminNotFound
	}
	return a, err
}

// Create inserts a, assigning a fresh id.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	a.ID = uuid.NewString()
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Role = model.RoleAdmin
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO admins (id, username, email, role, password_hash, access_token, refresh_token_hash)
		 VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.Username, a.Email, a.Role, a.PasswordHash, nullIfEmpty(a.AccessToken), nullIfEmpty(a.RefreshTokenHash))
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}

func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	return r.getOne(ctx, "email=?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *AdminRepo) GetByID(ctx context.Context, id string) (model.Admin, error) {
	return r.getOne(ctx, "id=?", id)
}

func (r *AdminRepo) GetByRefreshHash(ctx context.Context, hash string) (model.Admin, error) {
	return r.getOne(ctx, "refresh_token_hash=?", hash)
}

func (r *AdminRepo) SetTokens(ctx context.Context, id, access, refreshHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET access_token=?, refresh_token_hash=? WHERE id=?", access, refreshHash, id)
	return err
}

func (r *AdminRepo) SetAccessToken(ctx context.Context, id, access string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE admins SET access_token=? WHERE id=?", access, id)
	return err
}

func (r *AdminRepo) ClearTokens(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET access_token=NULL, refresh_token_hash=NULL WHERE id=?", id)
	return err
}

// Update changes name, email and password hash of an admin.
func (r *AdminRepo) Update(ctx context.Context, id, username, email, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE admins SET username=?, email=?, password_hash=? WHERE id=?",
		username, strings.ToLower(strings.TrimSpace(email)), passwordHash, id)
	if isDuplicate(err) {
		return ErrEmailExists
	}
	return err
}
