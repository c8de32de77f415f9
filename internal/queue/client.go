package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Logger is the subset of echo.Logger used by this package.
type Logger interface {
	Printf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Channel is the part of *amqp.Channel the client needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
}

// Redialer opens a fresh channel after the current one was closed.  The
// returned closer releases whatever backs the channel.
type Redialer func() (Channel, io.Closer, error)

const (
	redialAttempts   = 3
	redialBackoff    = time.Second
	redialMaxBackoff = 30 * time.Second
)

// Message is a received envelope together with the delivery that must be
// acknowledged or rejected once handled.
type Message struct {
	Envelope
	delivery amqp.Delivery
}

// Client sends, receives and acknowledges envelopes.  Each event type has
// its own durable queue on the default exchange.
type Client struct {
	mu       sync.Mutex
	ch       Channel
	closer   io.Closer
	redial   Redialer
	backoff  time.Duration
	queues   map[string]string
	wait     time.Duration
	interval time.Duration
	log      Logger
}

// NewClient declares the queue of every event type in queues (event type to
// queue name) and returns a client over ch.  Receive polls for at most wait,
// pausing interval between empty polls.
func NewClient(ch Channel, queues map[string]string, wait, interval time.Duration, log Logger) (*Client, error) {
	if interval <= 0 {
		interval = time.Second
	}
	if err := declare(ch, queues); err != nil {
		return nil, err
	}
	return &Client{ch: ch, queues: queues, wait: wait, interval: interval, log: log, backoff: redialBackoff}, nil
}

func declare(ch Channel, queues map[string]string) error {
	for _, name := range queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}
	return nil
}

// Dial connects to the broker at url, opens a channel and builds a client
// over it.  When the channel or connection is later closed the client dials
// again on the next call.  Close releases the connection.
func Dial(url string, queues map[string]string, wait, interval time.Duration, log Logger) (*Client, error) {
	redial := func() (Channel, io.Closer, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial broker: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("channel open: %w", err)
		}
		return ch, conn, nil
	}
	ch, conn, err := redial()
	if err != nil {
		return nil, err
	}
	c, err := NewClient(ch, queues, wait, interval, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.closer = conn
	c.redial = redial
	return c, nil
}

// Close releases the broker connection, if the client owns one.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

// reconnect replaces a closed channel, doubling the pause between failed
// attempts.  Callers hold c.mu.
func (c *Client) reconnect(ctx context.Context) error {
	if c.redial == nil {
		return amqp.ErrClosed
	}
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= redialAttempts; attempt++ {
		var (
			ch     Channel
			closer io.Closer
		)
		ch, closer, err = c.redial()
		if err == nil {
			if err = declare(ch, c.queues); err == nil {
				if c.closer != nil {
					_ = c.closer.Close()
				}
				c.ch, c.closer = ch, closer
				c.log.Infof("queue: reconnected to broker")
				return nil
			}
			if closer != nil {
				_ = closer.Close()
			}
		}
		c.log.Warnf("queue: reconnect attempt %d failed: %v; retrying in %s", attempt, err, backoff)
		if attempt == redialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < redialMaxBackoff {
			backoff *= 2
		}
	}
	return err
}

func closed(err error) bool {
	return errors.Is(err, amqp.ErrClosed)
}

func (c *Client) queue(typ string) (string, error) {
	name, ok := c.queues[typ]
	if !ok {
		return "", ErrInvalidType
	}
	return name, nil
}

// Send publishes {type, data} as a persistent message.  Failures are logged
// and returned; callers on the request path ignore them.
func (c *Client) Send(ctx context.Context, typ string, data any) error {
	name, err := c.queue(typ)
	if err != nil {
		c.log.Errorf("queue: send %s: %v", typ, err)
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		c.log.Errorf("queue: marshal %s data: %v", typ, err)
		return err
	}
	body, _ := json.Marshal(Envelope{Type: typ, Data: raw})

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	c.mu.Lock()
	err = c.ch.PublishWithContext(ctx, "", name, false, false, msg)
	if closed(err) {
		if err = c.reconnect(ctx); err == nil {
			err = c.ch.PublishWithContext(ctx, "", name, false, false, msg)
		}
	}
	c.mu.Unlock()
	if err != nil {
		c.log.Errorf("queue: publish to %s failed: %v", name, err)
		return err
	}
	return nil
}

// Receive waits up to the configured window for one message of typ.  It
// returns nil, nil when the queue stays empty.  A body that is not a valid
// envelope is rejected without requeue and reported as ErrMalformed.
func (c *Client) Receive(ctx context.Context, typ string) (*Message, error) {
	name, err := c.queue(typ)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(c.wait)
	for {
		c.mu.Lock()
		d, ok, err := c.ch.Get(name, false)
		if closed(err) {
			if err = c.reconnect(ctx); err == nil {
				d, ok, err = c.ch.Get(name, false)
			}
		}
		c.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("queue get %s: %w", name, err)
		}
		if ok {
			var env Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				_ = d.Nack(false, false)
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return &Message{Envelope: env, delivery: d}, nil
		}
		if !time.Now().Add(c.interval).Before(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}
	}
}

// Delete acknowledges a handled message.
func (c *Client) Delete(m *Message) error {
	return m.delivery.Ack(false)
}

// Reject drops a message that could not be handled.  It is not requeued.
func (c *Client) Reject(m *Message) error {
	return m.delivery.Nack(false, false)
}
