// Package events publishes order and trade changes for downstream
// consumers.
package events

import (
	"context"
	"time"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// Kind names an event on the wire.
type Kind string

const (
	KindOrder Kind = "order"
	KindTrade Kind = "trade"
	KindPair  Kind = "pair"
)

// Event is the envelope every message carries. Exactly one payload is set.
type Event struct {
	Kind  Kind         `json:"kind"`
	Pair  string       `json:"pair"`
	At    time.Time    `json:"at"`
	Order *types.Order `json:"order,omitempty"`
	Trade *types.Trade `json:"trade,omitempty"`
	State *types.Pair  `json:"state,omitempty"`
}

// Publisher delivers events. Publish may be called from many pairs at once.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }
func (Nop) Close() error { return nil }

// FromChanges builds the events for one committed operation: trades first,
// then every updated order.
func FromChanges(pair string, at time.Time, trades []types.Trade, orders []*types.Order) []Event {
	out := make([]Event, 0, len(trades)+len(orders))
	for i := range trades {
		t := trades[i]
		out = append(out, Event{Kind: KindTrade, Pair: pair, At: at, Trade: &t})
	}
	for _, o := range orders {
		out = append(out, Event{Kind: KindOrder, Pair: pair, At: at, Order: o})
	}
	return out
}
