package queue

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Source is what the poller pulls messages from; *Client implements it.
type Source interface {
	Receive(ctx context.Context, typ string) (*Message, error)
	Delete(m *Message) error
	Reject(m *Message) error
}

// Handler applies one envelope; *Processor implements it.
type Handler interface {
	Process(ctx context.Context, env Envelope) error
}

// Poller moves at most one message per tick from a queue into a Handler.
type Poller struct {
	Source  Source
	Handler Handler
	Type    string
	Timeout time.Duration // bound of a single tick, receive included
	Log     Logger
}

// Tick receives one message, processes it and deletes it.  A message that
// fails processing is logged and rejected without requeue.  Receive errors
// are logged and end the tick.
func (p *Poller) Tick(ctx context.Context) {
	msg, err := p.Source.Receive(ctx, p.Type)
	if err != nil {
		p.Log.Errorf("poller: receive %s: %v", p.Type, err)
		return
	}
	if msg == nil {
		return
	}
	if err := p.Handler.Process(ctx, msg.Envelope); err != nil {
		p.Log.Errorf("poller: process %s message: %v", p.Type, err)
		if err := p.Source.Reject(msg); err != nil {
			p.Log.Warnf("poller: reject: %v", err)
		}
		return
	}
	if err := p.Source.Delete(msg); err != nil {
		p.Log.Warnf("poller: delete: %v", err)
	}
}

// Schedule registers Tick on a new cron scheduler with the given spec and
// starts it.  A tick still running when the next one is due causes the
// next one to be skipped.  The caller stops the returned scheduler.
func (p *Poller) Schedule(spec string) (*cron.Cron, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(p.Log))))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p.Tick(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	p.Log.Infof("poller: %s queue scheduled at %q", p.Type, spec)
	return c, nil
}
