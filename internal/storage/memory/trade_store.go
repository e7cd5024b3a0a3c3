package memory

import (
	"sync"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// TradeStore implements storage.TradeStore using a bounded buffer that keeps
// only the N most recent trades.
type TradeStore struct {
	trades  []*types.Trade
	maxSize int
	mutex   sync.RWMutex
}

var _ storage.TradeStore = (*TradeStore)(nil)

// NewTradeStore creates a new in-memory trade store with a size limit
func NewTradeStore(maxSize int) *TradeStore {
	return &TradeStore{
		trades:  make([]*types.Trade, 0, maxSize),
		maxSize: maxSize,
	}
}

func (s *TradeStore) Save(trade *types.Trade) error {
	return s.SaveBatch([]*types.Trade{trade})
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, t := range trades {
		c := *t
		s.trades = append(s.trades, &c)
	}
	if len(s.trades) > s.maxSize {
		s.trades = append([]*types.Trade(nil), s.trades[len(s.trades)-s.maxSize:]...)
	}
	return nil
}

func (s *TradeStore) GetRecent(pairID string, limit int) ([]*types.Trade, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if limit <= 0 {
		limit = len(s.trades)
	}
	result := make([]*types.Trade, 0, limit)
	for i := len(s.trades) - 1; i >= 0 && len(result) < limit; i-- {
		if pairID == "" || s.trades[i].PairID == pairID {
			c := *s.trades[i]
			result = append(result, &c)
		}
	}
	return result, nil
}

func (s *TradeStore) Close() error {
	return nil
}
