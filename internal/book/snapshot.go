package book

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPageSize = errors.New("book: page sizes must be positive")
	ErrStaleCursor     = errors.New("book: cursor no longer matches the book")
)

// Level is an aggregated view of one price.
type Level struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Orders   int             `json:"orders"`
}

// Cursor resumes a paged read. A zero price starts at the best level; a zero
// order id starts at the head of the cursor's level.
type Cursor struct {
	Price   decimal.Decimal `json:"price"`
	OrderID uint64          `json:"order_id"`
}

// Done reports whether the cursor marks an exhausted side.
func (c Cursor) Done() bool { return c.Price.IsZero() && c.OrderID == 0 }

// Page is one slice of a side. Levels cut short by the order budget repeat
// their price on the next page; callers merge quantities by price.
type Page struct {
	Levels []Level `json:"levels"`
	Next   Cursor  `json:"next"`
}

// QuantitiesAt lists the remaining quantities queued at price, oldest first.
func (s *Side) QuantitiesAt(price decimal.Decimal) ([]decimal.Decimal, error) {
	key, err := s.Key(price)
	if err != nil {
		return nil, err
	}
	lvl, ok := s.tree.Get(key)
	if !ok {
		return []decimal.Decimal{}, nil
	}
	return lvl.quantities(), nil
}

// Page returns up to priceCount levels starting at cursor, each summing at
// most orderCount orders. When a level holds more orders the page ends there
// and the returned cursor points at the next order of that level.
func (s *Side) Page(priceCount, orderCount int, cursor Cursor) (Page, error) {
	if priceCount <= 0 || orderCount <= 0 {
		return Page{}, ErrInvalidPageSize
	}

	key := s.bestKey()
	var startID uint64
	if !cursor.Price.IsZero() {
		k, err := s.Key(cursor.Price)
		if err != nil || !s.tree.Exists(k) {
			return Page{}, ErrStaleCursor
		}
		key = k
		if cursor.OrderID != 0 {
			lvl, _ := s.tree.Get(k)
			if _, ok := lvl.orders[cursor.OrderID]; !ok {
				return Page{}, ErrStaleCursor
			}
			startID = cursor.OrderID
		}
	} else if cursor.OrderID != 0 {
		return Page{}, ErrStaleCursor
	}

	page := Page{Levels: make([]Level, 0, priceCount)}
	for key != 0 && len(page.Levels) < priceCount {
		lvl, _ := s.tree.Get(key)
		id := startID
		if id == 0 {
			id = lvl.head
		}
		startID = 0

		sum := decimal.Zero
		n := 0
		for ; id != 0 && n < orderCount; id = lvl.orders[id].next {
			sum = sum.Add(lvl.orders[id].qty)
			n++
		}
		page.Levels = append(page.Levels, Level{Price: lvl.price, Quantity: sum, Orders: n})
		if id != 0 {
			page.Next = Cursor{Price: lvl.price, OrderID: id}
			return page, nil
		}
		key = s.advance(key)
	}
	if key != 0 {
		lvl, _ := s.tree.Get(key)
		page.Next = Cursor{Price: lvl.price}
	}
	return page, nil
}
