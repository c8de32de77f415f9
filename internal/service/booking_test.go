package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/hotel-booking/internal/model"
	"github.com/iliyamo/hotel-booking/internal/queue"
	"github.com/iliyamo/hotel-booking/internal/repository"
)

type stay struct{ in, out time.Time }

// fakeBookings answers the overlap query from an in-memory list of stays
// per room, the way the SQL predicate does.
type fakeBookings struct {
	stays     map[string][]stay
	rows      map[string]model.Booking
	cancelled []string
}

func (f *fakeBookings) CountOverlapping(_ context.Context, roomID string, in, out time.Time) (int, error) {
	n := 0
	for _, s := range f.stays[roomID] {
		if !s.in.After(out) && !s.out.Before(in) {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := f.rows[id]
	if !ok {
		return b, repository.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookings) SoftDeleteCancel(_ context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

type fakeRooms map[string]model.RoomWithHotel

func (f fakeRooms) GetWithHotel(_ context.Context, id string) (model.RoomWithHotel, error) {
	r, ok := f[id]
	if !ok {
		return r, repository.ErrRoomNotFound
	}
	return r, nil
}

// loopbackQueue applies create messages to the fake store immediately, as a
// poller tick would.
type loopbackQueue struct {
	store *fakeBookings
	sent  []queue.BookingMessage
	err   error
}

func (q *loopbackQueue) Send(_ context.Context, typ string, data any) error {
	if q.err != nil {
		return q.err
	}
	m := data.(queue.BookingMessage)
	q.sent = append(q.sent, m)
	if m.Action == queue.ActionCreate {
		if q.store.stays == nil {
			q.store.stays = map[string][]stay{}
		}
		q.store.stays[m.Room] = append(q.store.stays[m.Room], stay{m.CheckInDate, m.CheckOutDate})
	}
	return nil
}

type fakeMail struct {
	to  []string
	err error
}

func (m *fakeMail) SendBookingConfirmation(_ context.Context, to string, _ BookingSummary) error {
	m.to = append(m.to, to)
	return m.err
}

func quietLog() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func newService() (*BookingService, *fakeBookings, *loopbackQueue, *fakeMail) {
	store := &fakeBookings{rows: map[string]model.Booking{}}
	q := &loopbackQueue{store: store}
	mail := &fakeMail{}
	rooms := fakeRooms{"r1": {
		Room:      model.Room{ID: "r1", HotelID: "h1", RoomType: "Deluxe", PricePerNight: 100},
		HotelData: model.HotelSummary{ID: "h1", Name: "Sea View"},
	}}
	return &BookingService{Bookings: store, Rooms: rooms, Queue: q, Mail: mail, Log: quietLog()}, store, q, mail
}

func day(n float64) time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n * 24 * float64(time.Hour)))
}

func TestNightsRoundsUp(t *testing.T) {
	cases := []struct {
		in, out time.Time
		want    int
	}{
		{day(0), day(2.5), 3},
		{day(0), day(1), 1},
		{day(0), day(0.01), 1},
		{day(1), day(1), 0},
		{day(2), day(1), 0},
	}
	for _, c := range cases {
		if got := Nights(c.in, c.out); got != c.want {
			t.Errorf("Nights(%v, %v) = %d, want %d", c.in, c.out, got, c.want)
		}
	}
	if got := TotalPrice(100, day(0), day(2.5)); got != 300 {
		t.Fatalf("TotalPrice = %v, want 300", got)
	}
}

func TestCreateEnqueuesPricedBooking(t *testing.T) {
	svc, _, q, mail := newService()
	user := model.User{ID: "u1", Email: "ann@example.com"}

	sum, err := svc.Create(context.Background(), user, CreateRequest{RoomID: "r1", CheckIn: day(0), CheckOut: day(2.5), Guests: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalPrice != 300 || sum.HotelName != "Sea View" {
		t.Fatalf("summary %+v", sum)
	}
	if len(q.sent) != 1 {
		t.Fatalf("sent %d messages", len(q.sent))
	}
	m := q.sent[0]
	if m.Action != queue.ActionCreate || m.User != "u1" || m.Hotel != "h1" || m.TotalPrice != 300 || m.Guests != 2 {
		t.Fatalf("message %+v", m)
	}
	if len(mail.to) != 1 || mail.to[0] != "ann@example.com" {
		t.Fatalf("mail %v", mail.to)
	}
}

func TestSecondOverlappingCreateIsRejected(t *testing.T) {
	svc, _, q, _ := newService()
	ctx := context.Background()
	user := model.User{ID: "u1"}

	if _, err := svc.Create(ctx, user, CreateRequest{RoomID: "r1", CheckIn: day(0), CheckOut: day(3), Guests: 1}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, user, CreateRequest{RoomID: "r1", CheckIn: day(2), CheckOut: day(5), Guests: 1})
	if !errors.Is(err, ErrRoomUnavailable) {
		t.Fatalf("err = %v, want ErrRoomUnavailable", err)
	}
	if len(q.sent) != 1 {
		t.Fatalf("rejected booking must not be enqueued, sent %d", len(q.sent))
	}
	if _, err := svc.Create(ctx, user, CreateRequest{RoomID: "r1", CheckIn: day(4), CheckOut: day(6), Guests: 1}); err != nil {
		t.Fatalf("disjoint stay rejected: %v", err)
	}
}

func TestCreateSucceedsWhenQueueAndMailFail(t *testing.T) {
	svc, _, q, mail := newService()
	q.err = errors.New("broker down")
	mail.err = errors.New("smtp down")

	if _, err := svc.Create(context.Background(), model.User{ID: "u1"}, CreateRequest{RoomID: "r1", CheckIn: day(0), CheckOut: day(1), Guests: 1}); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestCreateRejectsBadDatesAndUnknownRoom(t *testing.T) {
	svc, _, _, _ := newService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, model.User{}, CreateRequest{RoomID: "r1", CheckIn: day(2), CheckOut: day(1)}); !errors.Is(err, ErrInvalidDates) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Create(ctx, model.User{}, CreateRequest{RoomID: "zz", CheckIn: day(1), CheckOut: day(2)}); !errors.Is(err, repository.ErrRoomNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRequestUpdateRoles(t *testing.T) {
	svc, store, q, _ := newService()
	store.rows["b1"] = model.Booking{ID: "b1"}
	ctx := context.Background()

	if err := svc.RequestUpdate(ctx, model.RoleUser, "b1", day(0), day(1), 1); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("err = %v", err)
	}
	if err := svc.RequestUpdate(ctx, model.RoleHotelOwner, "missing", day(0), day(1), 1); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := svc.RequestUpdate(ctx, model.RoleAdmin, "b1", day(0), day(1), 3); err != nil {
		t.Fatal(err)
	}
	if len(q.sent) != 1 || q.sent[0].Action != queue.ActionUpdate || q.sent[0].ID != "b1" || q.sent[0].Guests != 3 {
		t.Fatalf("sent %+v", q.sent)
	}
}

func TestCancelSoftDeletesThenEnqueuesDelete(t *testing.T) {
	svc, store, q, _ := newService()
	store.rows["b1"] = model.Booking{ID: "b1"}

	if err := svc.Cancel(context.Background(), "b1"); err != nil {
		t.Fatal(err)
	}
	if len(store.cancelled) != 1 || len(q.sent) != 1 || q.sent[0].Action != queue.ActionDelete {
		t.Fatalf("cancelled %v sent %+v", store.cancelled, q.sent)
	}
	if err := svc.Cancel(context.Background(), "nope"); !errors.Is(err, repository.ErrBookingNotFound) {
		t.Fatalf("err = %v", err)
	}
}
