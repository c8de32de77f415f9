package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-booking/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

var userColumns = []string{"id", "username", "email", "phone", "image", "role", "recent_searched_cities", "password_hash",
	"access_token", "refresh_token_hash", "login_with", "social_media_id", "is_deleted", "deleted_at", "created_at", "updated_at"}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.email_1'"})

	err := repo.Create(context.Background(), &model.User{Email: "A@B.c", Username: "a"})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '555' for key 'users.phone_1'"})

	p := "555"
	if err := repo.Create(context.Background(), &model.User{Email: "x@y.z", Phone: &p}); !errors.Is(err, ErrPhoneExists) {
		t.Fatalf("err = %v, want ErrPhoneExists", err)
	}
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "a", "a@b.c", nil, "", model.RoleUser, []byte("[]"), "hash",
			nil, nil, model.LoginWithEmail, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Username: "a", Email: "  A@B.c ", PasswordHash: "hash"}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "a@b.c" || u.ID == "" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery(q("FROM users WHERE email=? AND is_deleted=0")).
		WithArgs("nobody@x.y").WillReturnRows(sqlmock.NewRows(userColumns))

	if _, err := repo.GetByEmail(context.Background(), "Nobody@x.y"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestGetByIDDecodesRecentCities(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery(q("FROM users WHERE id=?")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u1", "ann", "a@b.c", nil, "", model.RoleUser,
			[]byte(`["Goa","Pune"]`), "h", "tok", nil, model.LoginWithEmail, "", false, nil, now, now))

	u, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(u.RecentCities) != 2 || u.RecentCities[1] != "Pune" || u.AccessToken != "tok" || u.Phone != nil {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestSetRecentCities(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec(q("UPDATE users SET recent_searched_cities=? WHERE id=?")).
		WithArgs([]byte(`["B","C","D"]`), "u1").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetRecentCities(context.Background(), "u1", []string{"B", "C", "D"}); err != nil {
		t.Fatal(err)
	}
}

func TestDuplicateKey(t *testing.T) {
	err := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'rooms.hotel_room_type_1'"}
	if got := duplicateKey(err); got != "hotel_room_type_1" {
		t.Fatalf("got %q", got)
	}
	if !isDuplicate(err) || isDuplicate(errors.New("1045 access denied")) {
		t.Fatal("isDuplicate mismatch")
	}
}
