package conversation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/PabloGalante/tur-agent/internal/app/ingest"
	"github.com/PabloGalante/tur-agent/internal/domain"
	"github.com/PabloGalante/tur-agent/internal/observability"
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// HandlerFunc runs one event to completion.
type HandlerFunc func(ctx context.Context, ev ingest.Event)

// Dispatcher serializes events per user and runs different users in parallel.
// A user has a worker goroutine only while it has queued events.
type Dispatcher struct {
	handle HandlerFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[domain.UserID][]ingest.Event
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(handle HandlerFunc) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handle: handle,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[domain.UserID][]ingest.Event),
	}
}

// Submit enqueues ev behind any pending event of the same sender.
func (d *Dispatcher) Submit(ev ingest.Event) error {
	user := ev.Sender()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	q, running := d.queues[user]
	d.queues[user] = append(q, ev)
	if !running {
		d.wg.Add(1)
		go d.work(user)
	}
	return nil
}

func (d *Dispatcher) work(user domain.UserID) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[user]
		if len(q) == 0 {
			delete(d.queues, user)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[user] = q[1:]
		d.mu.Unlock()

		d.run(ev)
	}
}

func (d *Dispatcher) run(ev ingest.Event) {
	ctx := observability.WithRequestID(d.ctx, uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error("event handler panicked",
				"user_id", ev.Sender(), "channel", ev.Channel(), "panic", r)
		}
	}()
	d.handle(ctx, ev)
}

// Active is the number of users with a running worker.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close stops intake and waits for queued events to drain. If ctx ends first the
// in-flight handlers are cancelled and Close returns ctx.Err().
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
