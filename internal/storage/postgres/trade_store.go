package postgres

import (
	"context"
	"encoding"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/types"
)

const insertTrade = `
	INSERT INTO trades (trade_id, pair_id, buy_order_id, sell_order_id, buyer, seller,
		maker_order_id, taker_order_id, maker_side, price, quantity, quote_amount,
		buy_fee, sell_fee, auction, executed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (trade_id) DO NOTHING
`

// TradeStore implements storage.TradeStore using PostgreSQL
type TradeStore struct {
	pool *pgxpool.Pool
}

var _ storage.TradeStore = (*TradeStore)(nil)

// NewTradeStore wraps a migrated pool, see Open
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

func tradeArgs(t *types.Trade) []any {
	return []any{
		int64(t.TradeID), t.PairID, int64(t.BuyOrderID), int64(t.SellOrderID), t.Buyer, t.Seller,
		int64(t.MakerOrderID), int64(t.TakerOrderID), t.MakerSide.String(),
		numeric(t.Price), numeric(t.Quantity), numeric(t.QuoteAmount),
		numeric(t.BuyFee), numeric(t.SellFee), t.Auction, t.Timestamp,
	}
}

func (s *TradeStore) Save(trade *types.Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx, insertTrade, tradeArgs(trade)...)
	return err
}

func (s *TradeStore) SaveBatch(trades []*types.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, trade := range trades {
		batch.Queue(insertTrade, tradeArgs(trade)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range trades {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at index %d: %w", i, err)
		}
	}
	return nil
}

func (s *TradeStore) GetRecent(pairID string, limit int) ([]*types.Trade, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT trade_id, pair_id, buy_order_id, sell_order_id, buyer, seller,
			maker_order_id, taker_order_id, maker_side, price::text, quantity::text,
			quote_amount::text, buy_fee::text, sell_fee::text, auction, executed_at
		FROM trades
		WHERE $1 = '' OR pair_id = $1
		ORDER BY trade_id DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, pairID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := []*types.Trade{}
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}
	return trades, rows.Err()
}

func (s *TradeStore) Close() error {
	s.pool.Close()
	return nil
}

func scanTrade(row rowScanner) (*types.Trade, error) {
	var (
		t                                   types.Trade
		id, buyID, sellID, makerID, takerID int64
		makerSide                           string
		price, qty, quote, buyFee, sellFee  string
	)
	err := row.Scan(&id, &t.PairID, &buyID, &sellID, &t.Buyer, &t.Seller,
		&makerID, &takerID, &makerSide, &price, &qty, &quote, &buyFee, &sellFee,
		&t.Auction, &t.Timestamp)
	if err != nil {
		return nil, err
	}
	t.TradeID, t.BuyOrderID, t.SellOrderID = uint64(id), uint64(buyID), uint64(sellID)
	t.MakerOrderID, t.TakerOrderID = uint64(makerID), uint64(takerID)

	if err := parseEnums(map[encoding.TextUnmarshaler]string{&t.MakerSide: makerSide}); err != nil {
		return nil, err
	}
	if err := parseDecimals(map[*decimal.Decimal]string{
		&t.Price: price, &t.Quantity: qty, &t.QuoteAmount: quote,
		&t.BuyFee: buyFee, &t.SellFee: sellFee,
	}); err != nil {
		return nil, err
	}
	return &t, nil
}
