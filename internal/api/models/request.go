package models

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/types"
)

// CallerHeader names the operator on admin requests.
const CallerHeader = "X-Caller-ID"

// MaxBatchSize caps orders per batch request.
const MaxBatchSize = 1000

// SubmitOrderRequest represents a single order submission. Prices and
// quantities are decimal strings or JSON numbers.
type SubmitOrderRequest struct {
	UserID        string          `json:"user_id"`
	Pair          string          `json:"pair"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	OrderType     string          `json:"order_type"`              // "market" | "limit"
	Side          string          `json:"side"`                    // "buy" | "sell"
	TimeInForce   string          `json:"time_in_force,omitempty"` // "gtc" (default) | "ioc" | "fok" | "po"
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// Validate validates the order request
func (r *SubmitOrderRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrBadRequest("user_id cannot be empty", map[string]interface{}{"field": "user_id"})
	}
	if strings.TrimSpace(r.Pair) == "" {
		return ErrBadRequest("pair cannot be empty", map[string]interface{}{"field": "pair"})
	}

	orderType := strings.ToLower(strings.TrimSpace(r.OrderType))
	if orderType != "market" && orderType != "limit" {
		return ErrInvalidOrderTypeError(r.OrderType)
	}

	side := strings.ToLower(strings.TrimSpace(r.Side))
	if side != "buy" && side != "sell" {
		return ErrInvalidSideError(r.Side)
	}

	if _, err := ParseTimeInForce(r.TimeInForce); err != nil {
		return ErrBadRequest("Invalid time_in_force, must be one of gtc, ioc, fok, po",
			map[string]interface{}{"field": "time_in_force", "provided_value": r.TimeInForce})
	}

	if !r.Quantity.IsPositive() {
		return ErrInvalidQuantityError(r.Quantity.String())
	}

	if orderType == "limit" {
		if r.Price.IsZero() {
			return ErrMissingPriceError()
		}
		if r.Price.IsNegative() {
			return ErrInvalidPriceError(r.Price.String())
		}
	}

	return nil
}

// ToEngine converts a validated request into the engine's form.
func (r *SubmitOrderRequest) ToEngine() matching.OrderRequest {
	side, _ := types.ParseSide(strings.ToUpper(strings.TrimSpace(r.Side)))
	kind, _ := types.ParseOrderKind(strings.ToUpper(strings.TrimSpace(r.OrderType)))
	tif, _ := ParseTimeInForce(r.TimeInForce)
	return matching.OrderRequest{
		Trader:        strings.TrimSpace(r.UserID),
		ClientOrderID: r.ClientOrderID,
		Side:          side,
		Kind:          kind,
		TimeInForce:   tif,
		Price:         r.Price,
		Quantity:      r.Quantity,
	}
}

// ParseTimeInForce accepts any case and defaults an empty value to GTC.
func ParseTimeInForce(v string) (types.TimeInForce, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return types.GTC, nil
	}
	return types.ParseTimeInForce(v)
}

// BatchOrderRequest represents a batch order submission
type BatchOrderRequest struct {
	Orders []SubmitOrderRequest `json:"orders"`
}

// Validate validates the batch request
func (r *BatchOrderRequest) Validate() *HTTPError {
	if len(r.Orders) == 0 {
		return ErrBadRequest("orders array cannot be empty", map[string]interface{}{"field": "orders"})
	}

	if len(r.Orders) > MaxBatchSize {
		return ErrBadRequest("batch size cannot exceed 1000 orders",
			map[string]interface{}{"field": "orders", "max_size": MaxBatchSize, "provided_size": len(r.Orders)})
	}

	return nil
}

// ReplaceOrderRequest swaps a live order for a new price and quantity.
type ReplaceOrderRequest struct {
	UserID        string          `json:"user_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
}

func (r *ReplaceOrderRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrBadRequest("user_id cannot be empty", map[string]interface{}{"field": "user_id"})
	}
	if !r.Quantity.IsPositive() {
		return ErrInvalidQuantityError(r.Quantity.String())
	}
	if !r.Price.IsPositive() {
		return ErrInvalidPriceError(r.Price.String())
	}
	return nil
}

// CancelAllRequest cancels several orders of one trader.
type CancelAllRequest struct {
	UserID   string   `json:"user_id"`
	OrderIDs []uint64 `json:"order_ids"`
}

func (r *CancelAllRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrBadRequest("user_id cannot be empty", map[string]interface{}{"field": "user_id"})
	}
	if len(r.OrderIDs) == 0 {
		return ErrBadRequest("order_ids cannot be empty", map[string]interface{}{"field": "order_ids"})
	}
	if len(r.OrderIDs) > MaxBatchSize {
		return ErrBadRequest("cannot cancel more than 1000 orders at once",
			map[string]interface{}{"field": "order_ids", "max_size": MaxBatchSize, "provided_size": len(r.OrderIDs)})
	}
	return nil
}

// FundsRequest is a deposit or withdrawal.
type FundsRequest struct {
	UserID string          `json:"user_id"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *FundsRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.UserID) == "" {
		return ErrBadRequest("user_id cannot be empty", map[string]interface{}{"field": "user_id"})
	}
	if strings.TrimSpace(r.Asset) == "" {
		return ErrBadRequest("asset cannot be empty", map[string]interface{}{"field": "asset"})
	}
	if !r.Amount.IsPositive() {
		return NewHTTPError(http.StatusBadRequest, ErrInvalidAmount, "Amount must be positive",
			map[string]interface{}{"field": "amount", "provided_value": r.Amount.String()})
	}
	return nil
}

// TransferRequest moves funds between two traders.
type TransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *TransferRequest) Validate() *HTTPError {
	if strings.TrimSpace(r.From) == "" || strings.TrimSpace(r.To) == "" {
		return ErrBadRequest("from and to cannot be empty", map[string]interface{}{"field": "from,to"})
	}
	funds := FundsRequest{UserID: r.From, Asset: r.Asset, Amount: r.Amount}
	return funds.Validate()
}

// AuctionModeRequest moves a pair to another auction mode.
type AuctionModeRequest struct {
	Pair string `json:"pair"`
	Mode string `json:"mode"`
}

// AuctionPriceRequest sets a pair's auction clearing price.
type AuctionPriceRequest struct {
	Pair  string          `json:"pair"`
	Price decimal.Decimal `json:"price"`
}

// TradeAmountsRequest sets a pair's notional bounds.
type TradeAmountsRequest struct {
	Pair string          `json:"pair"`
	Min  decimal.Decimal `json:"min"`
	Max  decimal.Decimal `json:"max"`
}

// FeeRatesRequest sets a pair's maker and taker rates in basis points.
type FeeRatesRequest struct {
	Pair     string `json:"pair"`
	MakerBps uint32 `json:"maker_bps"`
	TakerBps uint32 `json:"taker_bps"`
}

// SlippageRequest sets the market order slippage band.
type SlippageRequest struct {
	Pair    string          `json:"pair"`
	Percent decimal.Decimal `json:"percent"`
}

// OrderKindRequest enables or disables an order kind on a pair.
type OrderKindRequest struct {
	Pair    string `json:"pair"`
	Kind    string `json:"kind"`
	Enabled bool   `json:"enabled"`
}

// AuctionMatchRequest runs one auction matching batch.
type AuctionMatchRequest struct {
	Pair      string `json:"pair"`
	MaxOrders int    `json:"max_orders"`
}

// UnsolicitedCancelRequest cancels orders from the best end of one side.
type UnsolicitedCancelRequest struct {
	Pair string `json:"pair"`
	Side string `json:"side"`
	Max  int    `json:"max"`
}
