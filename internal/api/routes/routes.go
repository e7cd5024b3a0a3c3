package routes

import (
	"net/http"

	"github.com/PxPatel/clob-exchange/internal/api/handlers"
	"github.com/PxPatel/clob-exchange/internal/api/middleware"
	"github.com/PxPatel/clob-exchange/internal/metrics"
)

// SetupRoutes configures all API routes with middleware. Pair ids contain a
// slash, so book and trade reads take the pair as a query parameter.
func SetupRoutes(eh *handlers.ExchangeHolder, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/v1/health", eh.HealthHandler)
	mux.Handle("GET /metrics", m.Handler())

	// Order endpoints
	mux.HandleFunc("POST /api/v1/orders", eh.SubmitOrderHandler)
	mux.HandleFunc("GET /api/v1/orders", eh.GetAllOrdersHandler)
	mux.HandleFunc("POST /api/v1/orders/batch", eh.BatchOrderHandler)
	mux.HandleFunc("POST /api/v1/orders/cancel", eh.CancelAllHandler)
	mux.HandleFunc("GET /api/v1/orders/{id}", eh.GetOrderHandler)
	mux.HandleFunc("PUT /api/v1/orders/{id}", eh.ReplaceOrderHandler)
	mux.HandleFunc("DELETE /api/v1/orders/{id}", eh.CancelOrderHandler)

	// Order book endpoints
	mux.HandleFunc("GET /api/v1/orderbook", eh.GetOrderBookHandler)
	mux.HandleFunc("GET /api/v1/orderbook/top", eh.GetTopOfBookHandler)
	mux.HandleFunc("GET /api/v1/orderbook/page", eh.GetBookPageHandler)
	mux.HandleFunc("GET /api/v1/orderbook/level", eh.GetLevelHandler)

	// Trade endpoints
	mux.HandleFunc("GET /api/v1/trades", eh.GetTradesHandler)

	// Funds
	mux.HandleFunc("GET /api/v1/balances/{user}", eh.GetBalancesHandler)
	mux.HandleFunc("POST /api/v1/deposits", eh.DepositHandler)
	mux.HandleFunc("POST /api/v1/withdrawals", eh.WithdrawHandler)
	mux.HandleFunc("POST /api/v1/transfers", eh.TransferHandler)

	// Pairs and operator endpoints
	mux.HandleFunc("GET /api/v1/pairs", eh.GetPairsHandler)
	mux.HandleFunc("POST /api/v1/admin/pairs", eh.AddPairHandler)
	mux.HandleFunc("POST /api/v1/admin/auction/mode", eh.SetAuctionModeHandler)
	mux.HandleFunc("POST /api/v1/admin/auction/price", eh.SetAuctionPriceHandler)
	mux.HandleFunc("POST /api/v1/admin/auction/match", eh.MatchAuctionHandler)
	mux.HandleFunc("POST /api/v1/admin/trade-amounts", eh.SetTradeAmountsHandler)
	mux.HandleFunc("POST /api/v1/admin/fees", eh.SetFeeRatesHandler)
	mux.HandleFunc("POST /api/v1/admin/slippage", eh.SetSlippageHandler)
	mux.HandleFunc("POST /api/v1/admin/order-kinds", eh.SetOrderKindHandler)
	mux.HandleFunc("POST /api/v1/admin/cancel", eh.UnsolicitedCancelHandler)

	// Apply middleware (order matters: RequestID -> Logging -> Metrics -> CORS -> Recovery -> Handler)
	handler := middleware.Recovery(mux)
	handler = middleware.CORS(handler)
	handler = middleware.Metrics(m)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	return handler
}
