package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"clientregistry/pkg/logger"
)

// Publisher accepts audit events. Publish must never block a request.
type Publisher interface {
	Publish(e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}

// Dispatcher decouples request handling from sink latency: events are queued
// on a bounded channel and written by a single worker goroutine.
type Dispatcher struct {
	sink         Sink
	log          *logger.Logger
	queue        chan Event
	writeTimeout time.Duration

	dropped atomic.Uint64
	closeMu sync.RWMutex
	closed  bool
	done    chan struct{}
}

func NewDispatcher(sink Sink, bufferSize int, log *logger.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	d := &Dispatcher{
		sink:         sink,
		log:          log,
		queue:        make(chan Event, bufferSize),
		writeTimeout: 5 * time.Second,
		done:         make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues e, dropping it when the queue is full or the dispatcher is closed.
func (d *Dispatcher) Publish(e Event) {
	d.closeMu.RLock()
	defer d.closeMu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		return
	}
	select {
	case d.queue <- e:
	default:
		if n := d.dropped.Add(1); n == 1 || n%100 == 0 {
			d.log.Warn("audit queue full, dropping events", "dropped_total", n)
		}
	}
}

// Dropped reports how many events were discarded.
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
		if err := d.sink.Write(ctx, e); err != nil {
			d.log.WithError(err).Error("audit sink write failed", "type", string(e.Type), "event_id", e.ID.String())
		}
		cancel()
	}
}

// Close stops accepting events, drains the queue and closes the sink. It
// returns early with ctx's error if draining takes too long.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closeMu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.closeMu.Unlock()

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.sink.Close()
}
