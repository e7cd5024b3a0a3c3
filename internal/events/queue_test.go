package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedPublisher blocks every delivery until release is closed.
type gatedPublisher struct {
	release chan struct{}
	fail    error

	mu     sync.Mutex
	got    []Event
	ctxErr []error
	closed bool
}

func (p *gatedPublisher) Publish(ctx context.Context, evts ...Event) error {
	<-p.release
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, evts...)
	p.ctxErr = append(p.ctxErr, ctx.Err())
	return p.fail
}

func (p *gatedPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func TestQueue_PublishDoesNotWaitForBroker(t *testing.T) {
	next := &gatedPublisher{release: make(chan struct{})}
	q := NewQueue(next, 8, time.Second, nil)

	reqCtx, cancel := context.WithCancel(context.Background())
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, q.Publish(reqCtx, Event{Kind: KindOrder, Pair: "AVAX/USDC", At: time.Unix(int64(i), 0)}))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	// the request going away must not drop what was enqueued
	cancel()

	close(next.release)
	require.NoError(t, q.Close())

	require.Len(t, next.got, 3)
	for i, ev := range next.got {
		assert.Equal(t, int64(i), ev.At.Unix(), "delivery keeps enqueue order")
	}
	for _, err := range next.ctxErr {
		assert.NoError(t, err)
	}
	assert.True(t, next.closed)
}

func TestQueue_FullAndClosed(t *testing.T) {
	next := &gatedPublisher{release: make(chan struct{})}
	q := NewQueue(next, 1, time.Second, nil)
	ev := Event{Kind: KindTrade, Pair: "AVAX/USDC"}

	// the worker may hold one batch while the buffer holds another
	var full bool
	for i := 0; i < 3 && !full; i++ {
		full = errors.Is(q.Publish(context.Background(), ev), ErrQueueFull)
	}
	assert.True(t, full)

	close(next.release)
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Publish(context.Background(), ev), ErrQueueClosed)
	assert.NoError(t, q.Publish(context.Background()))
}

func TestQueue_ReportsDeliveryErrors(t *testing.T) {
	next := &gatedPublisher{release: make(chan struct{}), fail: errors.New("broker down")}
	close(next.release)

	var mu sync.Mutex
	var pairs []string
	q := NewQueue(next, 4, time.Second, func(pair string, err error) {
		mu.Lock()
		defer mu.Unlock()
		pairs = append(pairs, pair)
		assert.EqualError(t, err, "broker down")
	})
	require.NoError(t, q.Publish(context.Background(), Event{Kind: KindPair, Pair: "BTC/USDC"}))
	require.NoError(t, q.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"BTC/USDC"}, pairs)
}
