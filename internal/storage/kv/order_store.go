// Package kv keeps order snapshots in an embedded Pebble database so a
// single node restarts with its order history intact.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cockroachdb/pebble"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// Key layout, ids zero padded so byte order is id order:
//
//	order/<id>            JSON snapshot
//	trader/<trader>/<id>  empty, secondary index
//	pair/<pair>/<id>      empty, secondary index
const (
	orderPrefix  = "order/"
	traderPrefix = "trader/"
	pairPrefix   = "pair/"
)

// OrderStore implements storage.OrderStore on Pebble. Every write is synced.
type OrderStore struct {
	db *pebble.DB
}

var (
	_ storage.OrderStore       = (*OrderStore)(nil)
	_ storage.OrderIDWatermark = (*OrderStore)(nil)
)

func Open(dir string) (*OrderStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &OrderStore{db: db}, nil
}

func orderKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", orderPrefix, id))
}

func indexKey(prefix, value string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d", prefix, value, id))
}

func (s *OrderStore) Save(order *types.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(orderKey(order.ID), data, nil); err != nil {
		return err
	}
	if err := b.Set(indexKey(traderPrefix, order.Trader, order.ID), nil, nil); err != nil {
		return err
	}
	if err := b.Set(indexKey(pairPrefix, order.PairID, order.ID), nil, nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (s *OrderStore) Get(orderID uint64) (*types.Order, error) {
	val, closer, err := s.db.Get(orderKey(orderID))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var order types.Order
	if err := json.Unmarshal(val, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) Remove(orderID uint64) error {
	order, err := s.Get(orderID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range [][]byte{
		orderKey(orderID),
		indexKey(traderPrefix, order.Trader, orderID),
		indexKey(pairPrefix, order.PairID, orderID),
	} {
		if err := b.Delete(k, nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

func (s *OrderStore) GetAll() []*types.Order {
	var orders []*types.Order
	_ = s.scan(orderPrefix, func(key, val []byte) error {
		var order types.Order
		if err := json.Unmarshal(val, &order); err == nil {
			orders = append(orders, &order)
		}
		return nil
	})
	return orders
}

func (s *OrderStore) GetByTrader(trader string) []*types.Order {
	return s.indexed(traderPrefix + trader + "/")
}

func (s *OrderStore) GetByPair(pairID string) []*types.Order {
	return s.indexed(pairPrefix + pairID + "/")
}

// MaxOrderID is the highest id stored, used to resume the id sequence.
func (s *OrderStore) MaxOrderID() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(orderPrefix),
		UpperBound: []byte(orderPrefix + "~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()
	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseID(iter.Key(), orderPrefix)
}

func (s *OrderStore) Close() error {
	return s.db.Close()
}

func (s *OrderStore) indexed(prefix string) []*types.Order {
	var ids []uint64
	_ = s.scan(prefix, func(key, _ []byte) error {
		id, err := parseID(key, prefix)
		if err == nil {
			ids = append(ids, id)
		}
		return nil
	})
	orders := make([]*types.Order, 0, len(ids))
	for _, id := range ids {
		if order, err := s.Get(id); err == nil {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}

func (s *OrderStore) scan(prefix string, fn func(key, val []byte) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func parseID(key []byte, prefix string) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(key[len(prefix):]), "%d", &id)
	return id, err
}
