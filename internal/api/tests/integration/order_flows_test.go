package integration

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/api/tests/testutils"
)

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

// fundedServer gives every trader enough of both assets for the flows below.
func fundedServer(t *testing.T, traders ...string) *testutils.TestServer {
	ts := testutils.NewTestServer(t)
	for _, tr := range traders {
		ts.Fund(tr, "AVAX", "1000")
		ts.Fund(tr, "USDC", "100000")
	}
	return ts
}

// TestSimpleMarketOrderFlow tests a basic market order execution flow
func TestSimpleMarketOrderFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	// Step 1: Place limit sell orders to create liquidity
	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "10"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "101", "20"))

	// Step 2: Place market buy order that should match
	buyResp := ts.SubmitOrder(testutils.NewMarketBuyOrder("bob", "10"))

	assert.NotZero(t, buyResp.OrderID)
	require.Len(t, buyResp.Trades, 1, "Should have 1 trade")
	requireDecimal(t, "100", buyResp.Trades[0].Price, "Should execute at best ask price")
	requireDecimal(t, "10", buyResp.Trades[0].Quantity)
	assert.Equal(t, "FILLED", buyResp.Order.Status)

	// Step 3: Verify orderbook still has the second sell order
	bidLevels, askLevels := ts.GetOrderBookDepth()
	assert.Equal(t, 0, bidLevels, "No bids should remain")
	assert.Equal(t, 1, askLevels, "One ask level should remain")

	// taker pays 20bps in base, maker 10bps in quote
	requireDecimal(t, "1009.98", ts.Balance("bob", "AVAX").Available)
	requireDecimal(t, "99000", ts.Balance("bob", "USDC").Available)
	requireDecimal(t, "100999", ts.Balance("alice", "USDC").Available)
	requireDecimal(t, "0.02", ts.Balance("exchange", "AVAX").Available)
	requireDecimal(t, "1", ts.Balance("exchange", "USDC").Available)
}

// TestLimitOrderAddToBookFlow tests limit orders being added to the book
func TestLimitOrderAddToBookFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	buyResp := ts.SubmitOrder(testutils.NewLimitBuyOrder("alice", "99", "10"))
	assert.Len(t, buyResp.Trades, 0, "Should not match immediately")
	requireDecimal(t, "990", ts.Balance("alice", "USDC").Reserved)

	ts.SubmitOrder(testutils.NewLimitSellOrder("bob", "101", "20"))

	bidLevels, askLevels := ts.GetOrderBookDepth()
	assert.Equal(t, 1, bidLevels)
	assert.Equal(t, 1, askLevels)

	// Verify via API
	obResp := ts.Get("/api/v1/orderbook?pair=" + testutils.Pair)
	require.Equal(t, http.StatusOK, obResp.StatusCode)

	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)

	assert.True(t, ob.Success)
	require.Len(t, ob.Bids, 1)
	require.Len(t, ob.Asks, 1)
	requireDecimal(t, "99", ob.Bids[0].Price)
	requireDecimal(t, "101", ob.Asks[0].Price)
	requireDecimal(t, "2", ob.Spread)
	requireDecimal(t, "100", ob.MidPrice)

	topResp := ts.Get("/api/v1/orderbook/top?pair=" + testutils.Pair)
	require.Equal(t, http.StatusOK, topResp.StatusCode)
	var top models.TopOfBookResponse
	testutils.DecodeJSON(t, topResp, &top)
	require.NotNil(t, top.BestBid)
	require.NotNil(t, top.BestAsk)
	requireDecimal(t, "10", top.BestBid.Quantity)
	requireDecimal(t, "20", top.BestAsk.Quantity)
}

// TestAggressiveLimitOrderFlow tests limit orders that match immediately
func TestAggressiveLimitOrderFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "15"))
	buyResp := ts.SubmitOrder(testutils.NewLimitBuyOrder("bob", "100", "10"))

	require.Len(t, buyResp.Trades, 1)
	requireDecimal(t, "100", buyResp.Trades[0].Price)
	requireDecimal(t, "10", buyResp.Trades[0].Quantity)

	// Verify remaining quantity in orderbook
	obResp := ts.Get("/api/v1/orderbook?pair=" + testutils.Pair)
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)

	require.Len(t, ob.Asks, 1)
	requireDecimal(t, "5", ob.Asks[0].Quantity, "Remaining 5 units should be in book")
}

// TestPartialFillFlow tests a market order that outsizes the book
func TestPartialFillFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob", "charlie")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "5"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("bob", "101", "8"))

	buyResp := ts.SubmitOrder(testutils.NewMarketBuyOrder("charlie", "20"))
	require.Len(t, buyResp.Trades, 2, "Should have 2 trades")

	totalFilled := buyResp.Trades[0].Quantity.Add(buyResp.Trades[1].Quantity)
	requireDecimal(t, "13", totalFilled, "Should fill 5 + 8 = 13")
	// the unfilled market remainder never rests
	assert.Equal(t, "CANCELED", buyResp.Order.Status)
	requireDecimal(t, "0", ts.Balance("charlie", "USDC").Reserved)

	// Verify trades persist to disk
	persistedTrades := ts.ReadTradeLog()
	assert.Len(t, persistedTrades, 2, "Trades should be persisted")
}

// TestOrderCancellationFlow tests cancelling orders
func TestOrderCancellationFlow(t *testing.T) {
	ts := fundedServer(t, "alice")
	defer ts.Close()

	orderResp := ts.SubmitOrder(testutils.NewLimitBuyOrder("alice", "99", "10"))
	orderID := orderResp.OrderID
	assert.Equal(t, 1, ts.GetTrackedOrderCount())

	// only the owner may cancel
	resp := ts.Delete(fmt.Sprintf("/api/v1/orders/%d?user_id=mallory", orderID))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	cancelResp := ts.Delete(fmt.Sprintf("/api/v1/orders/%d?user_id=alice", orderID))
	require.Equal(t, http.StatusOK, cancelResp.StatusCode)

	var cancelResult models.CancelOrderResponse
	testutils.DecodeJSON(t, cancelResp, &cancelResult)
	assert.True(t, cancelResult.Success)

	bidLevels, _ := ts.GetOrderBookDepth()
	assert.Equal(t, 0, bidLevels, "Order should be removed from book")
	requireDecimal(t, "100000", ts.Balance("alice", "USDC").Available)

	// the closed order stays readable but cannot be canceled again
	getResp := ts.Get(fmt.Sprintf("/api/v1/orders/%d", orderID))
	var got models.GetOrderResponse
	testutils.DecodeJSON(t, getResp, &got)
	assert.Equal(t, "CANCELED", got.Order.Status)

	again := ts.Delete(fmt.Sprintf("/api/v1/orders/%d?user_id=alice", orderID))
	var errResp models.BaseResponse
	testutils.DecodeJSON(t, again, &errResp)
	assert.Equal(t, http.StatusNotFound, again.StatusCode)
	assert.Equal(t, models.ErrorCode("ORDER_TERMINAL"), errResp.Error.Code)
}

// TestBatchOrderFlow tests submitting multiple orders at once
func TestBatchOrderFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob", "charlie", "dave")
	defer ts.Close()

	batch := testutils.NewBatchRequest(
		testutils.NewLimitBuyOrder("alice", "99", "10"),
		testutils.NewLimitSellOrder("bob", "101", "20"),
		testutils.NewLimitBuyOrder("charlie", "-5", "5"), // Invalid price
		testutils.NewLimitSellOrder("dave", "102", "15"),
	)

	resp := ts.Post("/api/v1/orders/batch", batch)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batchResp models.BatchOrderResponse
	testutils.DecodeJSON(t, resp, &batchResp)

	assert.True(t, batchResp.Success)
	assert.Equal(t, 4, batchResp.Summary.Total)
	assert.Equal(t, 3, batchResp.Summary.Successful)
	assert.Equal(t, 1, batchResp.Summary.Failed)

	assert.True(t, batchResp.Results[0].Success)
	assert.True(t, batchResp.Results[1].Success)
	assert.False(t, batchResp.Results[2].Success, "Invalid order should fail")
	assert.Equal(t, models.ErrInvalidPrice, batchResp.Results[2].Error.Code)
	assert.True(t, batchResp.Results[3].Success)
}

// TestPriceTimePriorityFlow tests FIFO ordering at same price
func TestPriceTimePriorityFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob", "charlie", "dave")
	defer ts.Close()

	order1 := ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "5"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("bob", "100", "8"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("charlie", "100", "12"))

	levelResp := ts.Get("/api/v1/orderbook/level?pair=" + testutils.Pair + "&side=sell&price=100")
	require.Equal(t, http.StatusOK, levelResp.StatusCode)
	var level models.LevelResponse
	testutils.DecodeJSON(t, levelResp, &level)
	require.Len(t, level.Quantities, 3)
	requireDecimal(t, "5", level.Quantities[0])
	requireDecimal(t, "12", level.Quantities[2])

	buyResp := ts.SubmitOrder(testutils.NewMarketBuyOrder("dave", "5"))

	// Should match Alice's order (first in time)
	require.Len(t, buyResp.Trades, 1)
	assert.Equal(t, order1.OrderID, buyResp.Trades[0].SellOrderID)
	assert.Equal(t, order1.OrderID, buyResp.Trades[0].MakerOrderID)
}

// TestCrossedOrderBookFlow tests when buy price >= sell price
func TestCrossedOrderBookFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "10"))
	buyResp := ts.SubmitOrder(testutils.NewLimitBuyOrder("bob", "105", "10"))

	// Should match at seller's price (100), not buyer's price
	require.Len(t, buyResp.Trades, 1)
	requireDecimal(t, "100", buyResp.Trades[0].Price, "Should execute at resting order price")
	requireDecimal(t, "10", buyResp.Trades[0].Quantity)

	bidLevels, askLevels := ts.GetOrderBookDepth()
	assert.Equal(t, 0, bidLevels)
	assert.Equal(t, 0, askLevels)
	// the unused price improvement is released
	requireDecimal(t, "0", ts.Balance("bob", "USDC").Reserved)
	requireDecimal(t, "99000", ts.Balance("bob", "USDC").Available)
}

// TestMultiLevelExecutionFlow tests sweeping through multiple price levels
func TestMultiLevelExecutionFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob", "charlie", "dave")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "5"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("bob", "101", "10"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("charlie", "102", "8"))

	buyResp := ts.SubmitOrder(testutils.NewMarketBuyOrder("dave", "18"))
	require.Len(t, buyResp.Trades, 3, "Should match 3 price levels")

	requireDecimal(t, "100", buyResp.Trades[0].Price)
	requireDecimal(t, "5", buyResp.Trades[0].Quantity)
	requireDecimal(t, "101", buyResp.Trades[1].Price)
	requireDecimal(t, "10", buyResp.Trades[1].Quantity)
	requireDecimal(t, "102", buyResp.Trades[2].Price)
	requireDecimal(t, "3", buyResp.Trades[2].Quantity)

	obResp := ts.Get("/api/v1/orderbook?pair=" + testutils.Pair)
	var ob models.OrderBookResponse
	testutils.DecodeJSON(t, obResp, &ob)

	require.Len(t, ob.Asks, 1, "One ask level should remain")
	requireDecimal(t, "102", ob.Asks[0].Price)
	requireDecimal(t, "5", ob.Asks[0].Quantity, "5 units remain from original 8")
}

// TestMarketOrderSlippageFlow tests that market orders stop at the band
func TestMarketOrderSlippageFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "100", "5"))
	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "106", "5"))

	// 5% above 100 excludes the 106 level
	buyResp := ts.SubmitOrder(testutils.NewMarketBuyOrder("bob", "10"))
	require.Len(t, buyResp.Trades, 1)
	requireDecimal(t, "100", buyResp.Trades[0].Price)
	assert.Equal(t, "CANCELED", buyResp.Order.Status)

	_, askLevels := ts.GetOrderBookDepth()
	assert.Equal(t, 1, askLevels)
}

// TestRejectionFlow tests engine rejections surfacing as API errors
func TestRejectionFlow(t *testing.T) {
	ts := fundedServer(t, "alice")
	defer ts.Close()
	ts.Fund("poor", "USDC", "1")

	cases := []struct {
		name   string
		req    models.SubmitOrderRequest
		status int
		code   models.ErrorCode
	}{
		{"no liquidity", testutils.NewMarketBuyOrder("alice", "1"), http.StatusBadRequest, "NO_LIQUIDITY"},
		{"insufficient funds", testutils.NewLimitBuyOrder("poor", "10", "1"), http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"precision", testutils.NewLimitBuyOrder("alice", "10.001", "1"), http.StatusBadRequest, "PRECISION_VIOLATION"},
		{"below minimum", testutils.NewLimitBuyOrder("alice", "0.5", "1"), http.StatusBadRequest, "TRADE_AMOUNT_OUT_OF_RANGE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.Post("/api/v1/orders", tc.req)
			var body models.BaseResponse
			testutils.DecodeJSON(t, resp, &body)
			assert.Equal(t, tc.status, resp.StatusCode)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}

	unknown := testutils.NewLimitBuyOrder("alice", "10", "1")
	unknown.Pair = "DOGE/USDC"
	resp := ts.Post("/api/v1/orders", unknown)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestReplaceAndCancelAllFlow tests cancel-replace and bulk cancel
func TestReplaceAndCancelAllFlow(t *testing.T) {
	ts := fundedServer(t, "alice")
	defer ts.Close()

	first := ts.SubmitOrder(testutils.NewLimitBuyOrder("alice", "50", "10"))
	second := ts.SubmitOrder(testutils.NewLimitBuyOrder("alice", "51", "10"))

	replace := ts.Put(fmt.Sprintf("/api/v1/orders/%d", first.OrderID), models.ReplaceOrderRequest{
		UserID:   "alice",
		Price:    decimal.RequireFromString("49"),
		Quantity: decimal.RequireFromString("20"),
	})
	require.Equal(t, http.StatusOK, replace.StatusCode)
	var replaced models.SubmitOrderResponse
	testutils.DecodeJSON(t, replace, &replaced)
	assert.NotEqual(t, first.OrderID, replaced.OrderID)
	assert.NotEmpty(t, replaced.Order.ClientOrderID)
	requireDecimal(t, "1490", ts.Balance("alice", "USDC").Reserved)

	cancelAll := ts.Post("/api/v1/orders/cancel", models.CancelAllRequest{
		UserID:   "alice",
		OrderIDs: []uint64{second.OrderID, first.OrderID, replaced.OrderID},
	})
	require.Equal(t, http.StatusOK, cancelAll.StatusCode)
	var out models.CancelAllResponse
	testutils.DecodeJSON(t, cancelAll, &out)
	require.Len(t, out.Results, 3)
	assert.True(t, out.Results[0].Canceled)
	assert.False(t, out.Results[1].Canceled)
	assert.Equal(t, models.ErrorCode("ORDER_TERMINAL"), out.Results[1].Error.Code)
	assert.True(t, out.Results[2].Canceled)
	requireDecimal(t, "0", ts.Balance("alice", "USDC").Reserved)
}

// TestBookPagingFlow walks a side one page at a time
func TestBookPagingFlow(t *testing.T) {
	ts := fundedServer(t, "alice")
	defer ts.Close()

	for _, p := range []string{"100", "101", "102"} {
		ts.SubmitOrder(testutils.NewLimitSellOrder("alice", p, "1"))
	}

	var prices []string
	path := "/api/v1/orderbook/page?pair=" + testutils.Pair + "&side=sell&prices=2&orders=10"
	cursor := ""
	for i := 0; i < 5; i++ {
		resp := ts.Get(path + cursor)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page models.BookPageResponse
		testutils.DecodeJSON(t, resp, &page)
		for _, l := range page.Levels {
			prices = append(prices, l.Price.String())
		}
		if page.Done {
			break
		}
		cursor = fmt.Sprintf("&cursor_price=%s&cursor_order_id=%d", page.NextPrice, page.NextOrderID)
	}
	assert.Equal(t, []string{"100", "101", "102"}, prices)
}

// TestAuctionFlow runs a pair through an auction over the admin endpoints
func TestAuctionFlow(t *testing.T) {
	ts := testutils.NewTestServer(t)
	defer ts.Close()
	ts.Fund("alice", "AVAX", "20")
	ts.Fund("bob", "USDC", "100")

	mode := func(caller, m string) *http.Response {
		return ts.AdminPost(caller, "/api/v1/admin/auction/mode", models.AuctionModeRequest{Pair: testutils.Pair, Mode: m})
	}

	resp := ts.Post("/api/v1/admin/auction/mode", models.AuctionModeRequest{Pair: testutils.Pair, Mode: "OPEN"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = mode("mallory", "OPEN")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = mode(testutils.Auctioneer, "OPEN")
	var pr models.PairResponse
	testutils.DecodeJSON(t, resp, &pr)
	assert.Equal(t, "OPEN", pr.Pair.AuctionMode.String())

	// orders rest without matching while the auction collects
	ts.SubmitOrder(testutils.NewLimitSellOrder("alice", "1", "10"))
	bid := ts.SubmitOrder(testutils.NewLimitBuyOrder("bob", "2", "10"))
	assert.Empty(t, bid.Trades)

	withdraw := ts.Post("/api/v1/withdrawals", models.FundsRequest{UserID: "alice", Asset: "AVAX", Amount: decimal.RequireFromString("1")})
	var werr models.BaseResponse
	testutils.DecodeJSON(t, withdraw, &werr)
	assert.Equal(t, http.StatusConflict, withdraw.StatusCode)
	assert.Equal(t, models.ErrAssetLocked, werr.Error.Code)

	resp = mode(testutils.Auctioneer, "LIVETRADING")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "crossed book cannot go live")

	resp = mode(testutils.Auctioneer, "MATCHING")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.AdminPost(testutils.Auctioneer, "/api/v1/admin/auction/price",
		models.AuctionPriceRequest{Pair: testutils.Pair, Price: decimal.RequireFromString("1.5")})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.AdminPost(testutils.Auctioneer, "/api/v1/admin/auction/match", models.AuctionMatchRequest{Pair: testutils.Pair, MaxOrders: 10})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matched models.AuctionMatchResponse
	testutils.DecodeJSON(t, resp, &matched)
	require.Equal(t, 1, matched.Count)
	assert.True(t, matched.Trades[0].Auction)
	requireDecimal(t, "1.5", matched.Trades[0].Price)

	resp = ts.AdminPost(testutils.Auctioneer, "/api/v1/admin/auction/match", models.AuctionMatchRequest{Pair: testutils.Pair, MaxOrders: 10})
	var none models.BaseResponse
	testutils.DecodeJSON(t, resp, &none)
	assert.Equal(t, models.ErrorCode("NO_AUCTION_MATCH"), none.Error.Code)

	resp = mode(testutils.Admin, "OFF")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	balResp := ts.Get("/api/v1/balances/bob")
	var bal models.BalancesResponse
	testutils.DecodeJSON(t, balResp, &bal)
	require.Len(t, bal.Balances, 2)
	assert.Equal(t, "AVAX", bal.Balances[0].Asset)
	requireDecimal(t, "9.99", bal.Balances[0].Available)
	requireDecimal(t, "85", bal.Balances[1].Available)
}

// TestFundsFlow tests deposits, transfers and withdrawals
func TestFundsFlow(t *testing.T) {
	ts := testutils.NewTestServer(t)
	defer ts.Close()

	amount := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	resp := ts.Post("/api/v1/deposits", models.FundsRequest{UserID: "alice", Asset: "USDC", Amount: amount("50")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dep models.BalanceResponse
	testutils.DecodeJSON(t, resp, &dep)
	requireDecimal(t, "50", dep.Balance.Available)

	resp = ts.Post("/api/v1/transfers", models.TransferRequest{From: "alice", To: "bob", Asset: "USDC", Amount: amount("20")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	requireDecimal(t, "20", ts.Balance("bob", "USDC").Available)

	resp = ts.Post("/api/v1/withdrawals", models.FundsRequest{UserID: "bob", Asset: "USDC", Amount: amount("25")})
	var werr models.BaseResponse
	testutils.DecodeJSON(t, resp, &werr)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, models.ErrorCode("INSUFFICIENT_FUNDS"), werr.Error.Code)

	resp = ts.Post("/api/v1/withdrawals", models.FundsRequest{UserID: "bob", Asset: "USDC", Amount: amount("5")})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	requireDecimal(t, "15", ts.Balance("bob", "USDC").Available)
}

// TestAdminConfigFlow tests pair listing and configuration endpoints
func TestAdminConfigFlow(t *testing.T) {
	ts := testutils.NewTestServer(t)
	defer ts.Close()

	eth := testutils.DefaultPair()
	eth.ID = "ETH/USDC"
	eth.BaseSymbol = "ETH"

	resp := ts.AdminPost(testutils.Auctioneer, "/api/v1/admin/pairs", eth)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.AdminPost(testutils.Admin, "/api/v1/admin/pairs", eth)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.AdminPost(testutils.Admin, "/api/v1/admin/pairs", eth)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.Get("/api/v1/pairs")
	var pairs models.PairsResponse
	testutils.DecodeJSON(t, resp, &pairs)
	require.Len(t, pairs.Pairs, 2)
	assert.Equal(t, "AVAX/USDC", pairs.Pairs[0].ID)

	resp = ts.AdminPost(testutils.Admin, "/api/v1/admin/fees", models.FeeRatesRequest{Pair: "ETH/USDC", MakerBps: 0, TakerBps: 5})
	var pr models.PairResponse
	testutils.DecodeJSON(t, resp, &pr)
	assert.Equal(t, uint32(5), pr.Pair.TakerRateBps)

	resp = ts.AdminPost(testutils.Admin, "/api/v1/admin/order-kinds", models.OrderKindRequest{Pair: "ETH/USDC", Kind: "market", Enabled: false})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ts.Fund("alice", "USDC", "100")
	market := testutils.NewMarketBuyOrder("alice", "1")
	market.Pair = "ETH/USDC"
	resp = ts.Post("/api/v1/orders", market)
	var rej models.BaseResponse
	testutils.DecodeJSON(t, resp, &rej)
	assert.Equal(t, models.ErrorCode("ORDER_KIND_NOT_ENABLED"), rej.Error.Code)
}

// TestUnsolicitedCancelFlow tests operator cancels from the top of a side
func TestUnsolicitedCancelFlow(t *testing.T) {
	ts := fundedServer(t, "alice", "bob")
	defer ts.Close()

	ts.SubmitOrder(testutils.NewLimitBuyOrder("alice", "40", "1"))
	high := ts.SubmitOrder(testutils.NewLimitBuyOrder("bob", "41", "1"))

	resp := ts.AdminPost(testutils.Admin, "/api/v1/admin/cancel", models.UnsolicitedCancelRequest{Pair: testutils.Pair, Side: "buy", Max: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out models.UnsolicitedCancelResponse
	testutils.DecodeJSON(t, resp, &out)
	require.Len(t, out.Canceled, 1)
	assert.Equal(t, high.OrderID, out.Canceled[0].OrderID)

	bids, _ := ts.GetOrderBookDepth()
	assert.Equal(t, 1, bids)
}

// TestHTTPPlumbingFlow tests health, metrics and the request middleware
func TestHTTPPlumbingFlow(t *testing.T) {
	ts := testutils.NewTestServer(t)
	defer ts.Close()

	resp := ts.Get("/api/v1/health")
	var health models.HealthResponse
	testutils.DecodeJSON(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Pairs)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err := http.NewRequest(http.MethodOptions, ts.URL()+"/api/v1/orders", nil)
	require.NoError(t, err)
	pre, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	pre.Body.Close()
	assert.Equal(t, http.StatusNoContent, pre.StatusCode)

	resp = ts.Get("/api/v1/orders/abc")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = ts.Get("/api/v1/orders/12345")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	metrics := ts.Get("/metrics")
	defer metrics.Body.Close()
	require.Equal(t, http.StatusOK, metrics.StatusCode)
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `clob_http_requests_total{method="GET",route="GET /api/v1/orders/{id}",status="404"} 1`)
}
