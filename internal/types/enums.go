package types

import (
	"errors"
	"strconv"
)

// Enumerations travel as their upper-case names in JSON, YAML and query
// strings. All of them implement encoding.TextMarshaler/TextUnmarshaler.

// Side of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

var sideNames = []string{"BUY", "SELL"}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	return enumString(sideNames, uint8(s))
}

func (s Side) MarshalText() ([]byte, error) {
	return enumText(sideNames, uint8(s), "side")
}

func (s *Side) UnmarshalText(b []byte) error {
	return enumParse(sideNames, b, "side", (*uint8)(s))
}

// ParseSide accepts BUY or SELL.
func ParseSide(v string) (Side, error) {
	var s Side
	err := s.UnmarshalText([]byte(v))
	return s, err
}

// OrderKind is the order type. STOP and STOPLIMIT exist for wire
// compatibility and are never accepted by the engine.
type OrderKind uint8

const (
	Market OrderKind = iota
	Limit
	Stop
	StopLimit
)

var kindNames = []string{"MARKET", "LIMIT", "STOP", "STOPLIMIT"}

func (k OrderKind) String() string {
	return enumString(kindNames, uint8(k))
}

func (k OrderKind) MarshalText() ([]byte, error) {
	return enumText(kindNames, uint8(k), "order kind")
}

func (k *OrderKind) UnmarshalText(b []byte) error {
	return enumParse(kindNames, b, "order kind", (*uint8)(k))
}

func ParseOrderKind(v string) (OrderKind, error) {
	var k OrderKind
	err := k.UnmarshalText([]byte(v))
	return k, err
}

// TimeInForce controls what happens to the unfilled remainder.
type TimeInForce uint8

const (
	GTC TimeInForce = iota // good till canceled
	FOK                    // fill or kill
	IOC                    // immediate or cancel
	PO                     // post only
)

var tifNames = []string{"GTC", "FOK", "IOC", "PO"}

func (t TimeInForce) String() string {
	return enumString(tifNames, uint8(t))
}

func (t TimeInForce) MarshalText() ([]byte, error) {
	return enumText(tifNames, uint8(t), "time in force")
}

func (t *TimeInForce) UnmarshalText(b []byte) error {
	return enumParse(tifNames, b, "time in force", (*uint8)(t))
}

func ParseTimeInForce(v string) (TimeInForce, error) {
	var t TimeInForce
	err := t.UnmarshalText([]byte(v))
	return t, err
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus uint8

const (
	StatusNew OrderStatus = iota
	StatusRejected
	StatusPartial
	StatusFilled
	StatusCanceled
	StatusExpired
	StatusKilled
)

var statusNames = []string{"NEW", "REJECTED", "PARTIAL", "FILLED", "CANCELED", "EXPIRED", "KILLED"}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s != StatusNew && s != StatusPartial
}

func (s OrderStatus) String() string {
	return enumString(statusNames, uint8(s))
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	return enumText(statusNames, uint8(s), "order status")
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	return enumParse(statusNames, b, "order status", (*uint8)(s))
}

// AuctionMode is the per-pair trading phase.
type AuctionMode uint8

const (
	AuctionOff AuctionMode = iota
	AuctionLiveTrading
	AuctionOpen
	AuctionClosing
	AuctionPaused
	AuctionMatching
	AuctionRestricted
)

var auctionNames = []string{"OFF", "LIVETRADING", "OPEN", "CLOSING", "PAUSED", "MATCHING", "RESTRICTED"}

func (m AuctionMode) String() string {
	return enumString(auctionNames, uint8(m))
}

func (m AuctionMode) MarshalText() ([]byte, error) {
	return enumText(auctionNames, uint8(m), "auction mode")
}

func (m *AuctionMode) UnmarshalText(b []byte) error {
	return enumParse(auctionNames, b, "auction mode", (*uint8)(m))
}

func ParseAuctionMode(v string) (AuctionMode, error) {
	var m AuctionMode
	err := m.UnmarshalText([]byte(v))
	return m, err
}

func enumString(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return "UNKNOWN(" + strconv.Itoa(int(v)) + ")"
}

func enumText(names []string, v uint8, what string) ([]byte, error) {
	if int(v) < len(names) {
		return []byte(names[v]), nil
	}
	return nil, errors.New("invalid " + what + ": " + strconv.Itoa(int(v)))
}

func enumParse(names []string, b []byte, what string, out *uint8) error {
	for i, name := range names {
		if string(b) == name {
			*out = uint8(i)
			return nil
		}
	}
	return errors.New("unsupported " + what + ": " + string(b))
}
