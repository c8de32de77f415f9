package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hotel-booking/internal/model"
)

type fakeAck struct {
	acked, nacked int
	requeued      bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked++; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeued = requeue
	return nil
}
func (a *fakeAck) Reject(uint64, bool) error { return nil }

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	pending   [][]byte
	gets      int
	getErr    error
	pubErr    error
	ack       *fakeAck
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	f.pending = append(f.pending, msg.Body)
	return nil
}

func (f *fakeChannel) Get(string, bool) (amqp.Delivery, bool, error) {
	f.gets++
	if f.getErr != nil {
		return amqp.Delivery{}, false, f.getErr
	}
	if len(f.pending) == 0 {
		return amqp.Delivery{}, false, nil
	}
	body := f.pending[0]
	f.pending = f.pending[1:]
	return amqp.Delivery{Acknowledger: f.ack, DeliveryTag: uint64(f.gets), Body: body}, true, nil
}

func testLogger() *log.Logger {
	l := log.New("test")
	l.SetLevel(log.OFF)
	return l
}

func newTestClient(t *testing.T, wait time.Duration) (*Client, *fakeChannel) {
	t.Helper()
	ch := &fakeChannel{ack: &fakeAck{}}
	c, err := NewClient(ch, map[string]string{EventBooking: "booking"}, wait, 5*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return c, ch
}

type memStore struct {
	inserted []model.Booking
	patched  []string
	deleted  []string
	err      error
}

func (m *memStore) Insert(_ context.Context, b *model.Booking) error {
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, *b)
	return nil
}

func (m *memStore) PatchDates(_ context.Context, id string, _, _ time.Time, _ int) error {
	m.patched = append(m.patched, id)
	return m.err
}

func (m *memStore) HardDelete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func TestNewClientDeclaresQueues(t *testing.T) {
	_, ch := newTestClient(t, 0)
	if len(ch.declared) != 1 || ch.declared[0] != "booking" {
		t.Fatalf("declared %v", ch.declared)
	}
}

func TestSendPublishesPersistentEnvelope(t *testing.T) {
	c, ch := newTestClient(t, 0)
	err := c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionDelete, ID: "b1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "booking" {
		t.Fatalf("published %d to %v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Fatalf("unexpected publishing %+v", msg)
	}
	var env struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != EventBooking || env.Data["action"] != ActionDelete || env.Data["_id"] != "b1" {
		t.Fatalf("envelope %+v", env)
	}
	if _, ok := env.Data["checkInDate"]; ok {
		t.Fatal("zero dates must be omitted")
	}
}

func TestSendUnknownType(t *testing.T) {
	c, ch := newTestClient(t, 0)
	if err := c.Send(context.Background(), "payment", nil); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("err = %v", err)
	}
	if len(ch.published) != 0 {
		t.Fatal("nothing should be published")
	}
}

func TestReceiveEmptyQueueReturnsNil(t *testing.T) {
	c, ch := newTestClient(t, 20*time.Millisecond)
	msg, err := c.Receive(context.Background(), EventBooking)
	if err != nil || msg != nil {
		t.Fatalf("msg=%v err=%v", msg, err)
	}
	if ch.gets < 2 {
		t.Fatalf("expected repeated polling within the wait window, got %d gets", ch.gets)
	}
}

func TestReceiveRejectsMalformedBody(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.pending = [][]byte{[]byte("{not json")}
	if _, err := c.Receive(context.Background(), EventBooking); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v", err)
	}
	if ch.ack.nacked != 1 || ch.ack.requeued {
		t.Fatalf("malformed message must be dropped, got %+v", ch.ack)
	}
}

func TestReceiveHonoursContext(t *testing.T) {
	c, _ := newTestClient(t, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Receive(ctx, EventBooking); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestProcessorDispatch(t *testing.T) {
	store := &memStore{}
	p := &Processor{Bookings: store}
	in := time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC)
	mk := func(m BookingMessage) Envelope {
		raw, _ := json.Marshal(m)
		return Envelope{Type: EventBooking, Data: raw}
	}
	ctx := context.Background()

	if err := p.Process(ctx, mk(BookingMessage{Action: ActionCreate, User: "u1", Room: "r1", Hotel: "h1",
		CheckInDate: in, CheckOutDate: in.Add(48 * time.Hour), TotalPrice: 200, Guests: 2})); err != nil {
		t.Fatal(err)
	}
	if len(store.inserted) != 1 || store.inserted[0].RoomID != "r1" || !store.inserted[0].CheckIn.Equal(in) {
		t.Fatalf("inserted %+v", store.inserted)
	}
	if err := p.Process(ctx, mk(BookingMessage{Action: ActionUpdate, ID: "b1", CheckInDate: in, CheckOutDate: in, Guests: 1})); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(ctx, mk(BookingMessage{Action: ActionDelete, ID: "b2"})); err != nil {
		t.Fatal(err)
	}
	if len(store.patched) != 1 || store.patched[0] != "b1" || len(store.deleted) != 1 || store.deleted[0] != "b2" {
		t.Fatalf("patched %v deleted %v", store.patched, store.deleted)
	}
}

func TestProcessorErrors(t *testing.T) {
	p := &Processor{Bookings: &memStore{}}
	ctx := context.Background()
	cases := map[string]struct {
		env  Envelope
		want error
	}{
		"unknown type":      {Envelope{Type: "invoice", Data: json.RawMessage(`{}`)}, ErrInvalidType},
		"unknown action":    {Envelope{Type: EventBooking, Data: json.RawMessage(`{"action":"archive"}`)}, ErrInvalidAction},
		"delete without id": {Envelope{Type: EventBooking, Data: json.RawMessage(`{"action":"delete"}`)}, ErrMissingID},
		"update without id": {Envelope{Type: EventBooking, Data: json.RawMessage(`{"action":"update"}`)}, ErrMissingID},
		"bad data":          {Envelope{Type: EventBooking, Data: json.RawMessage(`[1]`)}, ErrMalformed},
	}
	for name, tc := range cases {
		if err := p.Process(ctx, tc.env); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", name, err, tc.want)
		}
	}
}

func TestPollerTickDeletesProcessedMessage(t *testing.T) {
	c, ch := newTestClient(t, 0)
	store := &memStore{}
	_ = c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionCreate, Room: "r1"})

	p := &Poller{Source: c, Handler: &Processor{Bookings: store}, Type: EventBooking, Log: testLogger()}
	p.Tick(context.Background())

	if len(store.inserted) != 1 {
		t.Fatalf("inserted %d", len(store.inserted))
	}
	if ch.ack.acked != 1 || ch.ack.nacked != 0 {
		t.Fatalf("ack state %+v", ch.ack)
	}
}

func TestPollerTickRejectsFailedMessage(t *testing.T) {
	c, ch := newTestClient(t, 0)
	_ = c.Send(context.Background(), EventBooking, BookingMessage{Action: "archive"})

	p := &Poller{Source: c, Handler: &Processor{Bookings: &memStore{}}, Type: EventBooking, Log: testLogger()}
	p.Tick(context.Background())

	if ch.ack.acked != 0 || ch.ack.nacked != 1 || ch.ack.requeued {
		t.Fatalf("ack state %+v", ch.ack)
	}
}

func TestPollerTickSwallowsReceiveErrors(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.getErr = errors.New("channel closed")
	p := &Poller{Source: c, Handler: &Processor{Bookings: &memStore{}}, Type: EventBooking, Log: testLogger()}
	p.Tick(context.Background())
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	p := &Poller{Type: EventBooking, Log: testLogger()}
	if _, err := p.Schedule("every now and then"); err == nil {
		t.Fatal("expected parse error")
	}
	c, err := p.Schedule("@every 1h")
	if err != nil {
		t.Fatal(err)
	}
	c.Stop()
}

type closeCounter struct{ closed int }

func (c *closeCounter) Close() error { c.closed++; return nil }

// redialTo makes c dial fresh once its channel reports closed.
func redialTo(c *Client, fresh *fakeChannel) (*int, *closeCounter) {
	dials := 0
	old := &closeCounter{}
	c.closer = old
	c.backoff = time.Millisecond
	c.redial = func() (Channel, io.Closer, error) {
		dials++
		return fresh, &closeCounter{}, nil
	}
	return &dials, old
}

func TestSendRedialsClosedChannel(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.pubErr = amqp.ErrClosed
	fresh := &fakeChannel{ack: &fakeAck{}}
	dials, old := redialTo(c, fresh)

	if err := c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionDelete, ID: "b1"}); err != nil {
		t.Fatal(err)
	}
	if *dials != 1 || old.closed != 1 {
		t.Fatalf("dials=%d old closed=%d", *dials, old.closed)
	}
	if len(fresh.declared) != 1 || len(fresh.published) != 1 {
		t.Fatalf("fresh channel declared %v published %d", fresh.declared, len(fresh.published))
	}

	// later sends stay on the new channel
	if err := c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionDelete, ID: "b2"}); err != nil {
		t.Fatal(err)
	}
	if *dials != 1 || len(fresh.published) != 2 {
		t.Fatalf("dials=%d published=%d", *dials, len(fresh.published))
	}
}

func TestReceiveRedialsClosedChannel(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.getErr = amqp.ErrClosed
	fresh := &fakeChannel{ack: &fakeAck{}, pending: [][]byte{[]byte(`{"type":"booking","data":{}}`)}}
	dials, _ := redialTo(c, fresh)

	m, err := c.Receive(context.Background(), EventBooking)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Type != EventBooking || *dials != 1 {
		t.Fatalf("message %+v after %d dials", m, *dials)
	}
}

func TestRedialGivesUpAfterAttempts(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.pubErr = amqp.ErrClosed
	c.backoff = time.Millisecond
	dials := 0
	c.redial = func() (Channel, io.Closer, error) {
		dials++
		return nil, nil, errors.New("connection refused")
	}
	if err := c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionDelete}); err == nil {
		t.Fatal("expected error while broker is down")
	}
	if dials != redialAttempts {
		t.Fatalf("dials = %d, want %d", dials, redialAttempts)
	}
}

func TestClosedChannelWithoutRedialer(t *testing.T) {
	c, ch := newTestClient(t, 0)
	ch.pubErr = amqp.ErrClosed
	err := c.Send(context.Background(), EventBooking, BookingMessage{Action: ActionDelete})
	if !errors.Is(err, amqp.ErrClosed) {
		t.Fatalf("err = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}
