package events

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrQueueFull is returned when a Queue's buffer has no room left.
var ErrQueueFull = errors.New("events: publish queue full")

// ErrQueueClosed is returned by Publish after Close.
var ErrQueueClosed = errors.New("events: publish queue closed")

// Queue hands events to another Publisher on one background goroutine, in
// the order they were enqueued. Publish never waits on the broker, and
// deliveries run under their own timeout rather than the caller's context.
type Queue struct {
	next    Publisher
	ch      chan []Event
	timeout time.Duration
	onErr   func(pair string, err error)
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the delivery goroutine. onErr, if set, is called with the
// first event's pair for every batch next fails to deliver.
func NewQueue(next Publisher, size int, timeout time.Duration, onErr func(pair string, err error)) *Queue {
	q := &Queue{
		next:    next,
		ch:      make(chan []Event, size),
		timeout: timeout,
		onErr:   onErr,
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for batch := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.next.Publish(ctx, batch...)
		cancel()
		if err != nil && q.onErr != nil {
			q.onErr(batch[0].Pair, err)
		}
	}
}

// Publish enqueues events and returns at once. The context is ignored so a
// caller going away cannot cancel delivery of what it already committed.
func (q *Queue) Publish(_ context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- events:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close delivers everything already enqueued, then closes next.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
	return q.next.Close()
}
