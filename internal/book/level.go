package book

import "github.com/shopspring/decimal"

// entry is one queued order. prev/next are order ids; 0 ends the chain.
type entry struct {
	prev uint64
	next uint64
	qty  decimal.Decimal
}

// priceLevel is a FIFO of orders at one price, linked by order id so any
// queue position can be unlinked in O(1).
type priceLevel struct {
	price  decimal.Decimal
	head   uint64
	tail   uint64
	orders map[uint64]*entry
	total  decimal.Decimal
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{
		price:  price,
		orders: make(map[uint64]*entry),
		total:  decimal.Zero,
	}
}

func (l *priceLevel) empty() bool { return l.head == 0 }

func (l *priceLevel) pushBack(id uint64, qty decimal.Decimal) {
	e := &entry{prev: l.tail, qty: qty}
	if l.tail != 0 {
		l.orders[l.tail].next = id
	} else {
		l.head = id
	}
	l.tail = id
	l.orders[id] = e
	l.total = l.total.Add(qty)
}

func (l *priceLevel) unlink(id uint64) (decimal.Decimal, bool) {
	e, ok := l.orders[id]
	if !ok {
		return decimal.Zero, false
	}
	if e.prev != 0 {
		l.orders[e.prev].next = e.next
	} else {
		l.head = e.next
	}
	if e.next != 0 {
		l.orders[e.next].prev = e.prev
	} else {
		l.tail = e.prev
	}
	delete(l.orders, id)
	l.total = l.total.Sub(e.qty)
	return e.qty, true
}

// quantities lists remaining quantities from the oldest order.
func (l *priceLevel) quantities() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(l.orders))
	for id := l.head; id != 0; id = l.orders[id].next {
		out = append(out, l.orders[id].qty)
	}
	return out
}
