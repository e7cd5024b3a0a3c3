package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// TradeStore implements storage.TradeStore with one sorted set per pair plus
// an all-pairs set, each trimmed to MaxTrades.
type TradeStore struct {
	client    *redis.Client
	keys      keys
	maxTrades int
}

var _ storage.TradeStore = (*TradeStore)(nil)

// NewTradeStore creates a new Redis-backed trade store
func NewTradeStore(cfg Config) (*TradeStore, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &TradeStore{
		client:    client,
		keys:      keys{prefix: cfg.KeyPrefix},
		maxTrades: cfg.MaxTrades,
	}, nil
}

func (s *TradeStore) Save(trade *types.Trade) error {
	return s.SaveBatch([]*types.Trade{trade})
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := s.client.Pipeline()
	touched := map[string]bool{s.keys.recentTrades(""): true}
	for _, trade := range trades {
		data, err := json.Marshal(trade)
		if err != nil {
			return err
		}
		// Trade ids are global and sequential, so they order the sets
		z := redis.Z{Score: float64(trade.TradeID), Member: data}
		pairKey := s.keys.recentTrades(trade.PairID)
		pipe.ZAdd(ctx, s.keys.recentTrades(""), z)
		pipe.ZAdd(ctx, pairKey, z)
		touched[pairKey] = true
	}
	for key := range touched {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.maxTrades-1))
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *TradeStore) GetRecent(pairID string, limit int) ([]*types.Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	results, err := s.client.ZRevRange(ctx, s.keys.recentTrades(pairID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	trades := make([]*types.Trade, 0, len(results))
	for _, data := range results {
		var trade types.Trade
		if err := json.Unmarshal([]byte(data), &trade); err != nil {
			continue
		}
		trades = append(trades, &trade)
	}
	return trades, nil
}

func (s *TradeStore) Close() error {
	return s.client.Close()
}
