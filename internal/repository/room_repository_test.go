package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/hotel-booking/internal/model"
)

func newRoomRepo(t *testing.T) (*RoomRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRoomRepo(db), mock
}

const toggleLookup = `SELECT h.owner_id, r.is_available FROM rooms r JOIN hotels h ON h.id = r.hotel_id`

func TestToggleAvailabilityFlips(t *testing.T) {
	repo, mock := newRoomRepo(t)
	mock.ExpectQuery(q(toggleLookup)).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "is_available"}).AddRow("o1", true))
	mock.ExpectExec(q("UPDATE rooms SET is_available=? WHERE id=?")).WithArgs(false, "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.ToggleAvailability(context.Background(), "r1", "o1")
	if err != nil || got {
		t.Fatalf("got %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleAvailabilityOtherOwner(t *testing.T) {
	repo, mock := newRoomRepo(t)
	mock.ExpectQuery(q(toggleLookup)).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "is_available"}).AddRow("o1", false))

	_, err := repo.ToggleAvailability(context.Background(), "r1", "o2")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestToggleAvailabilityMissingRoom(t *testing.T) {
	repo, mock := newRoomRepo(t)
	mock.ExpectQuery(q(toggleLookup)).WithArgs("r9").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "is_available"}))

	if _, err := repo.ToggleAvailability(context.Background(), "r9", "o1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateRoomDuplicateType(t *testing.T) {
	repo, mock := newRoomRepo(t)
	mock.ExpectExec(q("INSERT INTO rooms")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'h1-Deluxe' for key 'rooms.uq_room_hotel_type'"))

	err := repo.Create(context.Background(), &model.Room{HotelID: "h1", RoomType: "Deluxe", PricePerNight: 120})
	if !errors.Is(err, ErrRoomExists) {
		t.Fatalf("err = %v", err)
	}
}
