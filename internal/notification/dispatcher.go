package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sender delivers one event through one channel (inbox, websocket, broker).
type Sender interface {
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Dispatcher decouples workflow transitions from delivery. Publish never
// blocks; when the buffer is full the event is dropped and logged.
type Dispatcher struct {
	senders []Sender
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}
}

func NewDispatcher(log *zap.Logger, buffer int, senders ...Sender) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	d := &Dispatcher{
		senders: senders,
		log:     log,
		timeout: 5 * time.Second,
		now:     time.Now,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) Publish(ev Event) {
	ev.Stamp(d.now())

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher closed, dropping notification",
			zap.String("type", string(ev.Type)), zap.Int64("recipient_id", ev.RecipientID))
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.log.Warn("notification buffer full, dropping event",
			zap.String("type", string(ev.Type)), zap.Int64("recipient_id", ev.RecipientID))
	}
}

// Close stops accepting events and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		for _, s := range d.senders {
			d.deliver(s, ev)
		}
	}
}

func (d *Dispatcher) deliver(s Sender, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification sender panicked",
				zap.String("sender", s.Name()), zap.String("event_id", ev.ID), zap.Error(fmt.Errorf("%v", r)))
		}
	}()

	if err := s.Send(ctx, ev); err != nil {
		d.log.Warn("notification delivery failed",
			zap.String("sender", s.Name()),
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.Int64("recipient_id", ev.RecipientID),
			zap.Error(err))
	}
}
