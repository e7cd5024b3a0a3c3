package testutils

import (
	"github.com/shopspring/decimal"

	"github.com/PxPatel/clob-exchange/internal/api/models"
)

// Pair is the market every test server lists.
const Pair = "AVAX/USDC"

// OrderRequest builders for common test cases

// NewMarketBuyOrder creates a market buy order request
func NewMarketBuyOrder(userID, quantity string) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		UserID:    userID,
		Pair:      Pair,
		OrderType: "market",
		Side:      "buy",
		Quantity:  decimal.RequireFromString(quantity),
	}
}

// NewMarketSellOrder creates a market sell order request
func NewMarketSellOrder(userID, quantity string) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		UserID:    userID,
		Pair:      Pair,
		OrderType: "market",
		Side:      "sell",
		Quantity:  decimal.RequireFromString(quantity),
	}
}

// NewLimitBuyOrder creates a limit buy order request
func NewLimitBuyOrder(userID, price, quantity string) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		UserID:    userID,
		Pair:      Pair,
		OrderType: "limit",
		Side:      "buy",
		Price:     decimal.RequireFromString(price),
		Quantity:  decimal.RequireFromString(quantity),
	}
}

// NewLimitSellOrder creates a limit sell order request
func NewLimitSellOrder(userID, price, quantity string) models.SubmitOrderRequest {
	return models.SubmitOrderRequest{
		UserID:    userID,
		Pair:      Pair,
		OrderType: "limit",
		Side:      "sell",
		Price:     decimal.RequireFromString(price),
		Quantity:  decimal.RequireFromString(quantity),
	}
}

// NewBatchRequest creates a batch order request
func NewBatchRequest(orders ...models.SubmitOrderRequest) models.BatchOrderRequest {
	return models.BatchOrderRequest{
		Orders: orders,
	}
}
