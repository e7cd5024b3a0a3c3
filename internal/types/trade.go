package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a matched fill between a buy and a sell order.
// Auction fills have no taker: TakerOrderID is zero and both sides pay the
// maker rate.
type Trade struct {
	TradeID      uint64          `json:"trade_id,omitempty"`
	PairID       string          `json:"pair"`
	BuyOrderID   uint64          `json:"buy_order_id"`
	SellOrderID  uint64          `json:"sell_order_id"`
	Buyer        string          `json:"buyer"`
	Seller       string          `json:"seller"`
	MakerOrderID uint64          `json:"maker_order_id"`
	TakerOrderID uint64          `json:"taker_order_id,omitempty"`
	MakerSide    Side            `json:"maker_side"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuoteAmount  decimal.Decimal `json:"quote_amount"`
	BuyFee       decimal.Decimal `json:"buy_fee"`  // base asset
	SellFee      decimal.Decimal `json:"sell_fee"` // quote asset
	Auction      bool            `json:"auction,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}
