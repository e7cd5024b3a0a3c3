package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/book"
	"github.com/PxPatel/clob-exchange/internal/settlement"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// BaseResponse is the base structure for all API responses
type BaseResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Error     *APIError `json:"error,omitempty"`
}

// TradeDTO represents a trade in API responses
type TradeDTO struct {
	TradeID      uint64          `json:"trade_id"`
	Pair         string          `json:"pair"`
	BuyOrderID   uint64          `json:"buy_order_id"`
	SellOrderID  uint64          `json:"sell_order_id"`
	MakerOrderID uint64          `json:"maker_order_id"`
	MakerSide    string          `json:"maker_side"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuoteAmount  decimal.Decimal `json:"quote_amount"`
	BuyFee       decimal.Decimal `json:"buy_fee"`
	SellFee      decimal.Decimal `json:"sell_fee"`
	Auction      bool            `json:"auction,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// SubmitOrderResponse represents the response for order submission
type SubmitOrderResponse struct {
	BaseResponse
	OrderID uint64     `json:"order_id,omitempty"`
	Order   *OrderDTO  `json:"order,omitempty"`
	Trades  []TradeDTO `json:"trades,omitempty"`
}

// BatchOrderResult represents a single order result in batch submission
type BatchOrderResult struct {
	Index   int        `json:"index"`
	Success bool       `json:"success"`
	OrderID uint64     `json:"order_id,omitempty"`
	Status  string     `json:"status,omitempty"`
	Trades  []TradeDTO `json:"trades,omitempty"`
	Error   *APIError  `json:"error,omitempty"`
}

// BatchOrderSummary provides summary statistics for batch submission
type BatchOrderSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchOrderResponse represents the response for batch order submission
type BatchOrderResponse struct {
	BaseResponse
	Results []BatchOrderResult `json:"results"`
	Summary BatchOrderSummary  `json:"summary"`
}

// CancelOrderResponse represents the response for order cancellation
type CancelOrderResponse struct {
	BaseResponse
	OrderID uint64 `json:"order_id,omitempty"`
}

// CancelOutcomeDTO is the per-id result of a cancel-all request.
type CancelOutcomeDTO struct {
	OrderID  uint64    `json:"order_id"`
	Canceled bool      `json:"canceled"`
	Error    *APIError `json:"error,omitempty"`
}

// CancelAllResponse reports every requested id in request order.
type CancelAllResponse struct {
	BaseResponse
	Results []CancelOutcomeDTO `json:"results"`
}

// OrderDTO represents an order in API responses
type OrderDTO struct {
	OrderID           uint64          `json:"order_id"`
	ClientOrderID     string          `json:"client_order_id,omitempty"`
	UserID            string          `json:"user_id"`
	Pair              string          `json:"pair"`
	OrderType         string          `json:"order_type"`
	Side              string          `json:"side"`
	TimeInForce       string          `json:"time_in_force"`
	Price             decimal.Decimal `json:"price"`
	Quantity          decimal.Decimal `json:"quantity"`
	FilledQuantity    decimal.Decimal `json:"filled_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalFee          decimal.Decimal `json:"total_fee"`
	Status            string          `json:"status"`
	Timestamp         time.Time       `json:"timestamp"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// GetOrderResponse represents the response for getting a single order
type GetOrderResponse struct {
	BaseResponse
	Order *OrderDTO `json:"order,omitempty"`
}

// GetOrdersResponse represents the response for getting multiple orders
type GetOrdersResponse struct {
	BaseResponse
	Orders []OrderDTO `json:"orders"`
	Count  int        `json:"count"`
}

// PriceLevel represents a price level in the order book
type PriceLevel struct {
	Price      decimal.Decimal `json:"price"`
	Quantity   decimal.Decimal `json:"quantity"`
	OrderCount int             `json:"order_count"`
}

// OrderBookResponse represents an aggregated depth snapshot
type OrderBookResponse struct {
	BaseResponse
	Pair     string          `json:"pair"`
	Bids     []PriceLevel    `json:"bids"`
	Asks     []PriceLevel    `json:"asks"`
	Spread   decimal.Decimal `json:"spread"`
	MidPrice decimal.Decimal `json:"mid_price"`
}

// BestQuote represents the best bid or ask
type BestQuote struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// TopOfBookResponse represents the best bid and ask
type TopOfBookResponse struct {
	BaseResponse
	Pair     string          `json:"pair"`
	BestBid  *BestQuote      `json:"best_bid,omitempty"`
	BestAsk  *BestQuote      `json:"best_ask,omitempty"`
	Spread   decimal.Decimal `json:"spread"`
	MidPrice decimal.Decimal `json:"mid_price"`
}

// BookPageResponse is one page of a book side. NextPrice and NextOrderID
// resume the read; both zero means the side is exhausted.
type BookPageResponse struct {
	BaseResponse
	Pair        string          `json:"pair"`
	Side        string          `json:"side"`
	Levels      []PriceLevel    `json:"levels"`
	NextPrice   decimal.Decimal `json:"next_price"`
	NextOrderID uint64          `json:"next_order_id"`
	Done        bool            `json:"done"`
}

// LevelResponse lists the queued quantities at one price, oldest first.
type LevelResponse struct {
	BaseResponse
	Pair       string            `json:"pair"`
	Side       string            `json:"side"`
	Price      decimal.Decimal   `json:"price"`
	Quantities []decimal.Decimal `json:"quantities"`
}

// GetTradesResponse represents the response for getting trades
type GetTradesResponse struct {
	BaseResponse
	Trades []TradeDTO `json:"trades"`
	Count  int        `json:"count"`
}

// BalanceDTO is one asset balance.
type BalanceDTO struct {
	Asset     string          `json:"asset"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Total     decimal.Decimal `json:"total"`
}

// BalancesResponse lists a trader's balances sorted by asset.
type BalancesResponse struct {
	BaseResponse
	UserID   string       `json:"user_id"`
	Balances []BalanceDTO `json:"balances"`
}

// BalanceResponse answers a deposit, withdrawal or transfer.
type BalanceResponse struct {
	BaseResponse
	UserID  string     `json:"user_id"`
	Balance BalanceDTO `json:"balance"`
}

// PairsResponse lists listed pairs.
type PairsResponse struct {
	BaseResponse
	Pairs []*types.Pair `json:"pairs"`
}

// PairResponse carries one pair's configuration after a change.
type PairResponse struct {
	BaseResponse
	Pair *types.Pair `json:"pair"`
}

// AuctionMatchResponse reports one auction batch.
type AuctionMatchResponse struct {
	BaseResponse
	Pair   string     `json:"pair"`
	Trades []TradeDTO `json:"trades"`
	Count  int        `json:"count"`
}

// UnsolicitedCancelResponse lists the orders an operator canceled.
type UnsolicitedCancelResponse struct {
	BaseResponse
	Pair     string     `json:"pair"`
	Canceled []OrderDTO `json:"canceled"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Version       string    `json:"version"`
	Pairs         int       `json:"pairs"`
}

// NewOrderDTO converts an engine order snapshot.
func NewOrderDTO(o *types.Order) OrderDTO {
	return OrderDTO{
		OrderID:           o.ID,
		ClientOrderID:     o.ClientOrderID,
		UserID:            o.Trader,
		Pair:              o.PairID,
		OrderType:         o.Kind.String(),
		Side:              o.Side.String(),
		TimeInForce:       o.TimeInForce.String(),
		Price:             o.Price,
		Quantity:          o.Quantity,
		FilledQuantity:    o.QuantityFilled,
		RemainingQuantity: o.Remaining(),
		TotalAmount:       o.TotalAmount,
		TotalFee:          o.TotalFee,
		Status:            o.Status.String(),
		Timestamp:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

// NewTradeDTOs converts fills.
func NewTradeDTOs(trades []types.Trade) []TradeDTO {
	dtos := make([]TradeDTO, len(trades))
	for i := range trades {
		dtos[i] = NewTradeDTO(&trades[i])
	}
	return dtos
}

func NewTradeDTO(t *types.Trade) TradeDTO {
	return TradeDTO{
		TradeID:      t.TradeID,
		Pair:         t.PairID,
		BuyOrderID:   t.BuyOrderID,
		SellOrderID:  t.SellOrderID,
		MakerOrderID: t.MakerOrderID,
		MakerSide:    t.MakerSide.String(),
		Price:        t.Price,
		Quantity:     t.Quantity,
		QuoteAmount:  t.QuoteAmount,
		BuyFee:       t.BuyFee,
		SellFee:      t.SellFee,
		Auction:      t.Auction,
		Timestamp:    t.Timestamp,
	}
}

// NewPriceLevels converts aggregated book levels.
func NewPriceLevels(levels []book.Level) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Quantity: l.Quantity, OrderCount: l.Orders}
	}
	return out
}

func NewBalanceDTO(asset string, b settlement.Balance) BalanceDTO {
	return BalanceDTO{Asset: asset, Available: b.Available, Reserved: b.Reserved, Total: b.Total()}
}
