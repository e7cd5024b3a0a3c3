package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/config"
	"github.com/PxPatel/clob-exchange/internal/api/handlers"
	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/api/routes"
	"github.com/PxPatel/clob-exchange/internal/auth"
	"github.com/PxPatel/clob-exchange/internal/exchange"
	"github.com/PxPatel/clob-exchange/internal/settlement"
	"github.com/PxPatel/clob-exchange/internal/storage"
	"github.com/PxPatel/clob-exchange/internal/storage/file"
	"github.com/PxPatel/clob-exchange/internal/storage/memory"
	"github.com/PxPatel/clob-exchange/internal/types"
)

const (
	// Admin may run every operator endpoint.
	Admin = "admin"
	// Auctioneer may only drive auctions.
	Auctioneer = "auctioneer"
)

// TestServer wraps a test HTTP server around a fresh exchange
type TestServer struct {
	Server       *httptest.Server
	Exchange     *exchange.Exchange
	Ledger       *settlement.Ledger
	TradeLogPath string
	t            testing.TB
	closed       bool
}

// DefaultPair is the pair NewTestServer lists.
func DefaultPair() *types.Pair {
	return &types.Pair{
		ID:                     Pair,
		BaseSymbol:             "AVAX",
		QuoteSymbol:            "USDC",
		BaseDecimals:           18,
		QuoteDecimals:          6,
		BaseDisplayDecimals:    2,
		QuoteDisplayDecimals:   2,
		MinTradeAmount:         decimal.NewFromInt(1),
		MaxTradeAmount:         decimal.NewFromInt(1_000_000),
		MakerRateBps:           10,
		TakerRateBps:           20,
		AllowedKinds:           []types.OrderKind{types.Market, types.Limit},
		AuctionMode:            types.AuctionOff,
		AllowedSlippagePercent: decimal.NewFromInt(5),
	}
}

// NewTestServer creates a new test server with one listed pair. Trades are
// kept in memory and appended to a log file under t.TempDir().
func NewTestServer(t testing.TB) *TestServer {
	tradeLogPath := filepath.Join(t.TempDir(), "test_trades.log")
	fileTrades, err := file.NewTradeStore(tradeLogPath)
	require.NoError(t, err)

	ledger := settlement.NewLedger("exchange")
	x, err := exchange.New(exchange.Options{
		Settlement: ledger,
		Authorizer: auth.NewStaticAuthorizer([]string{Admin}, []string{Auctioneer}),
		Orders:     memory.NewOrderStore(10_000),
		Trades:     storage.NewCompositeTradeStore(memory.NewTradeStore(1_000), fileTrades),
	})
	require.NoError(t, err)
	ledger.SetGuard(x)
	require.NoError(t, x.AddPair(context.Background(), Admin, DefaultPair()))

	limits := config.APIConfig{
		DefaultOrderLimit:     100,
		MaxOrderLimit:         1000,
		DefaultTradeLimit:     100,
		MaxTradeLimit:         1000,
		DefaultOrderBookDepth: 10,
		MaxOrderBookDepth:     50,
	}
	eh := handlers.NewExchangeHolder(x, ledger, limits)
	server := httptest.NewServer(routes.SetupRoutes(eh, x.Metrics()))

	ts := &TestServer{
		Server:       server,
		Exchange:     x,
		Ledger:       ledger,
		TradeLogPath: tradeLogPath,
		t:            t,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close stops the server and flushes the stores. Safe to call twice.
func (ts *TestServer) Close() {
	if ts.closed {
		return
	}
	ts.closed = true
	ts.Server.Close()
	require.NoError(ts.t, ts.Exchange.Close())
}

// URL returns the base URL for the test server
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Fund credits amount of asset to userID.
func (ts *TestServer) Fund(userID, asset, amount string) {
	ts.t.Helper()
	require.NoError(ts.t, ts.Ledger.Deposit(context.Background(), userID, asset, decimal.RequireFromString(amount)))
}

// Balance returns userID's balance of asset.
func (ts *TestServer) Balance(userID, asset string) settlement.Balance {
	return ts.Ledger.Balance(userID, asset)
}

// Get makes a GET request to the test server
func (ts *TestServer) Get(path string) *http.Response {
	resp, err := http.Get(ts.URL() + path)
	require.NoError(ts.t, err, "GET request failed")
	return resp
}

// Post makes a POST request with JSON body
func (ts *TestServer) Post(path string, body interface{}) *http.Response {
	return ts.do(http.MethodPost, path, "", body)
}

// Put makes a PUT request with JSON body
func (ts *TestServer) Put(path string, body interface{}) *http.Response {
	return ts.do(http.MethodPut, path, "", body)
}

// AdminPost makes a POST request on behalf of an operator
func (ts *TestServer) AdminPost(caller, path string, body interface{}) *http.Response {
	return ts.do(http.MethodPost, path, caller, body)
}

// Delete makes a DELETE request
func (ts *TestServer) Delete(path string) *http.Response {
	return ts.do(http.MethodDelete, path, "", nil)
}

func (ts *TestServer) do(method, path, caller string, body interface{}) *http.Response {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(ts.t, err, "Failed to marshal request body")
		reader = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequest(method, ts.URL()+path, reader)
	require.NoError(ts.t, err, "Failed to create request")
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(models.CallerHeader, caller)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(ts.t, err, "%s request failed", method)
	return resp
}

// DecodeJSON decodes JSON response into target
func DecodeJSON(t testing.TB, resp *http.Response, target interface{}) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")

	err = json.Unmarshal(body, target)
	require.NoError(t, err, "Failed to decode JSON response: %s", string(body))
}

// SubmitOrder posts req and decodes the response, failing unless it succeeds.
func (ts *TestServer) SubmitOrder(req models.SubmitOrderRequest) models.SubmitOrderResponse {
	ts.t.Helper()
	resp := ts.Post("/api/v1/orders", req)
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)
	var out models.SubmitOrderResponse
	DecodeJSON(ts.t, resp, &out)
	require.True(ts.t, out.Success)
	return out
}

// ReadTradeLog closes the server so pending writes land, then reads the
// trade log file back.
func (ts *TestServer) ReadTradeLog() []types.Trade {
	ts.Close()
	var trades []types.Trade
	err := file.Replay(ts.TradeLogPath, func(t *types.Trade) error {
		trades = append(trades, *t)
		return nil
	})
	require.NoError(ts.t, err)
	return trades
}

// GetOrderBookDepth returns the number of price levels per side
func (ts *TestServer) GetOrderBookDepth() (bidLevels, askLevels int) {
	bids, asks, err := ts.Exchange.Depth(Pair, 1000)
	require.NoError(ts.t, err)
	return len(bids), len(asks)
}

// GetTrackedOrderCount returns the number of resting orders
func (ts *TestServer) GetTrackedOrderCount() int {
	n := 0
	for _, o := range ts.Exchange.Orders(storage.Filter{PairID: Pair}) {
		if !o.IsTerminal() {
			n++
		}
	}
	return n
}
