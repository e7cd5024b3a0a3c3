// Package memory holds the in-process order and trade stores that serve
// reads in front of the durable backends.
package memory

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// OrderStore implements storage.OrderStore using an in-memory map with FIFO
// eviction. When maxSize is reached the oldest order is evicted.
type OrderStore struct {
	orders   map[uint64]*types.Order
	orderIDs []uint64 // FIFO queue for eviction
	maxSize  int
	mutex    sync.RWMutex
}

var (
	_ storage.OrderStore       = (*OrderStore)(nil)
	_ storage.OrderIDWatermark = (*OrderStore)(nil)
)

// NewOrderStore creates a new in-memory order store with a size limit
func NewOrderStore(maxSize int) *OrderStore {
	return &OrderStore{
		orders:   make(map[uint64]*types.Order),
		orderIDs: make([]uint64, 0, maxSize),
		maxSize:  maxSize,
	}
}

func (s *OrderStore) Save(order *types.Order) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.orders[order.ID]; !exists {
		s.orderIDs = append(s.orderIDs, order.ID)
		if len(s.orderIDs) > s.maxSize {
			delete(s.orders, s.orderIDs[0])
			s.orderIDs = s.orderIDs[1:]
		}
	}

	s.orders[order.ID] = order.Clone()
	return nil
}

// MaxOrderID is the highest id still held.
func (s *OrderStore) MaxOrderID() (uint64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var max uint64
	for id := range s.orders {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (s *OrderStore) Get(orderID uint64) (*types.Order, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	order, exists := s.orders[orderID]
	if !exists {
		return nil, errors.Wrapf(storage.ErrNotFound, "order %d", orderID)
	}
	return order.Clone(), nil
}

func (s *OrderStore) Remove(orderID uint64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.orders[orderID]; !exists {
		return nil
	}
	delete(s.orders, orderID)
	for i, id := range s.orderIDs {
		if id == orderID {
			s.orderIDs = append(s.orderIDs[:i], s.orderIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (s *OrderStore) GetAll() []*types.Order {
	return s.collect(func(*types.Order) bool { return true })
}

func (s *OrderStore) GetByTrader(trader string) []*types.Order {
	return s.collect(func(o *types.Order) bool { return o.Trader == trader })
}

func (s *OrderStore) GetByPair(pairID string) []*types.Order {
	return s.collect(func(o *types.Order) bool { return o.PairID == pairID })
}

// collect returns matching orders by ascending id
func (s *OrderStore) collect(keep func(*types.Order) bool) []*types.Order {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var orders []*types.Order
	for _, order := range s.orders {
		if keep(order) {
			orders = append(orders, order.Clone())
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (s *OrderStore) Close() error {
	return nil
}
