package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// OrderStore implements storage.OrderStore on Redis with FIFO eviction of
// the oldest orders once MaxOrders is exceeded.
type OrderStore struct {
	client    *redis.Client
	keys      keys
	orderTTL  time.Duration
	maxOrders int
}

var (
	_ storage.OrderStore       = (*OrderStore)(nil)
	_ storage.OrderIDWatermark = (*OrderStore)(nil)
)

// NewOrderStore creates a new Redis-backed order store
func NewOrderStore(cfg Config) (*OrderStore, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &OrderStore{
		client:    client,
		keys:      keys{prefix: cfg.KeyPrefix},
		orderTTL:  cfg.OrderTTL,
		maxOrders: cfg.MaxOrders,
	}, nil
}

func (s *OrderStore) Save(order *types.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.order(order.ID), data, s.orderTTL)

	traderKey := s.keys.traderOrders(order.Trader)
	pipe.SAdd(ctx, traderKey, order.ID)
	pipe.Expire(ctx, traderKey, s.orderTTL)

	pairKey := s.keys.pairOrders(order.PairID)
	pipe.SAdd(ctx, pairKey, order.ID)
	pipe.Expire(ctx, pairKey, s.orderTTL)

	// Ids are sequential, so they order the timeline without a clock
	pipe.ZAdd(ctx, s.keys.ordersTimeline(), redis.Z{
		Score:  float64(order.ID),
		Member: order.ID,
	})
	_, err = pipe.Exec(ctx)
	if err != nil {
		return err
	}
	return s.evict(ctx)
}

// evict drops the oldest orders beyond maxOrders together with their index
// entries
func (s *OrderStore) evict(ctx context.Context) error {
	if s.maxOrders <= 0 {
		return nil
	}
	stale, err := s.client.ZRange(ctx, s.keys.ordersTimeline(), 0, int64(-s.maxOrders-1)).Result()
	if err != nil || len(stale) == 0 {
		return err
	}
	for _, member := range stale {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		if err := s.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

// MaxOrderID is the newest id on the orders timeline. Eviction trims the
// oldest end, so the newest id survives it.
func (s *OrderStore) MaxOrderID() (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	newest, err := s.client.ZRevRangeWithScores(ctx, s.keys.ordersTimeline(), 0, 0).Result()
	if err != nil {
		return 0, err
	}
	if len(newest) == 0 {
		return 0, nil
	}
	return uint64(newest[0].Score), nil
}

func (s *OrderStore) Get(orderID uint64) (*types.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := s.client.Get(ctx, s.keys.order(orderID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("order %d: %w", orderID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var order types.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) Remove(orderID uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pipe := s.client.TxPipeline()
	// The indexes can only be cleaned while the snapshot still names them
	if order, err := s.Get(orderID); err == nil {
		pipe.SRem(ctx, s.keys.traderOrders(order.Trader), orderID)
		pipe.SRem(ctx, s.keys.pairOrders(order.PairID), orderID)
	}
	pipe.Del(ctx, s.keys.order(orderID))
	pipe.ZRem(ctx, s.keys.ordersTimeline(), orderID)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *OrderStore) GetAll() []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, s.keys.orderPattern(), 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil {
		return []*types.Order{}
	}
	return s.getOrdersByKeys(ctx, keys)
}

func (s *OrderStore) GetByTrader(trader string) []*types.Order {
	return s.getIndexed(s.keys.traderOrders(trader))
}

func (s *OrderStore) GetByPair(pairID string) []*types.Order {
	return s.getIndexed(s.keys.pairOrders(pairID))
}

func (s *OrderStore) getIndexed(setKey string) []*types.Order {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return []*types.Order{}
	}
	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, s.keys.order(id))
	}
	return s.getOrdersByKeys(ctx, keys)
}

func (s *OrderStore) Close() error {
	return s.client.Close()
}

// getOrdersByKeys fetches snapshots with one MGET and sorts them by id
func (s *OrderStore) getOrdersByKeys(ctx context.Context, keys []string) []*types.Order {
	if len(keys) == 0 {
		return []*types.Order{}
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return []*types.Order{}
	}

	orders := make([]*types.Order, 0, len(results))
	for _, result := range results {
		data, ok := result.(string)
		if !ok {
			continue
		}
		var order types.Order
		if err := json.Unmarshal([]byte(data), &order); err != nil {
			continue
		}
		orders = append(orders, &order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders
}
