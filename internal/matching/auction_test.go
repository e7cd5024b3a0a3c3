package matching_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/types"
)

func TestAuction_OpenCollectsCrossingOrders(t *testing.T) {
	f := newFixture(t, types.AuctionOpen)
	f.fund("alice", "AVAX", "1000")
	f.fund("bob", "AVAX", "1000")
	f.fund("carol", "USDC", "5000")
	f.fund("dave", "USDC", "5000")

	f.limit("alice", types.Sell, "0.01", "1000")
	f.limit("bob", types.Sell, "0.01", "1000")
	f.limit("carol", types.Buy, "500000", "0.01")
	f.limit("dave", types.Buy, "500000", "0.01")

	top := f.engine.BestPrices()
	requireDecimal(t, "500000", top.BidPrice)
	requireDecimal(t, "0.02", top.BidQuantity)
	requireDecimal(t, "0.01", top.AskPrice)
	requireDecimal(t, "2000", top.AskQuantity)
	assert.True(t, f.engine.Crossed())

	err := f.engine.SetAuctionMode(types.AuctionLiveTrading)
	assert.ErrorIs(t, err, matching.ErrCrossedBookOnTransition)
	assert.Equal(t, types.AuctionOpen, f.engine.Pair().AuctionMode)

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionClosing))
	require.NoError(t, f.engine.SetAuctionMode(types.AuctionMatching))
}

func TestAuction_OrderRestrictions(t *testing.T) {
	f := newFixture(t, types.AuctionOpen)
	f.fund("alice", "AVAX", "10")
	f.fund("bob", "USDC", "100")
	f.limit("alice", types.Sell, "5", "1")

	crossingPO := matching.OrderRequest{
		Trader:      "bob",
		Side:        types.Buy,
		Kind:        types.Limit,
		TimeInForce: types.PO,
		Price:       d("6"),
		Quantity:    d("1"),
	}
	res, err := f.submit(crossingPO)
	require.NoError(t, err)
	assert.Equal(t, types.GTC, res.Order.TimeInForce)
	assert.Empty(t, res.Trades)

	for _, tif := range []types.TimeInForce{types.IOC, types.FOK} {
		req := crossingPO
		req.TimeInForce = tif
		_, err := f.submit(req)
		assert.ErrorIs(t, err, matching.ErrAuctionStateForbidsOrders, tif.String())
	}
	_, err = f.submit(matching.OrderRequest{Trader: "bob", Side: types.Buy, Kind: types.Market, Quantity: d("1")})
	assert.ErrorIs(t, err, matching.ErrAuctionStateForbidsOrders)

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionClosing))
	crossingPO.ClientOrderID = "po-2"
	_, err = f.submit(crossingPO)
	assert.ErrorIs(t, err, matching.ErrPostOnlyWouldCross)
	crossingPO.Price = d("4")
	res, err = f.submit(crossingPO)
	require.NoError(t, err)
	assert.Equal(t, types.PO, res.Order.TimeInForce)
}

func TestAuction_ModeGates(t *testing.T) {
	f := newFixture(t, types.AuctionOff)
	f.fund("bob", "USDC", "100")
	bid := f.limit("bob", types.Buy, "5", "1")

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionPaused))
	_, err := f.submit(matching.OrderRequest{
		Trader:      "bob",
		Side:        types.Buy,
		Kind:        types.Limit,
		TimeInForce: types.GTC,
		Price:       d("5"),
		Quantity:    d("1"),
	})
	assert.ErrorIs(t, err, matching.ErrAuctionStateForbidsOrders)
	_, err = f.engine.CancelOrder(f.ctx, "bob", bid.ID)
	assert.ErrorIs(t, err, matching.ErrAuctionStateForbidsCancel)
	_, err = f.engine.CancelReplaceOrder(f.ctx, "bob", bid.ID, "", d("5"), d("2"))
	assert.ErrorIs(t, err, matching.ErrAuctionStateForbidsCancel)

	_, err = f.engine.MatchAuctionOrders(f.ctx, 10)
	assert.ErrorIs(t, err, matching.ErrAuctionNotMatching)

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionOff))
	assert.ErrorIs(t, f.engine.SetAuctionPrice(d("1")), matching.ErrAuctionNotActive)
}

func TestModeRules(t *testing.T) {
	tests := []struct {
		mode                                       types.AuctionMode
		orders, cancels, withdraw, transfer, batch bool
	}{
		{types.AuctionOff, true, true, true, true, false},
		{types.AuctionLiveTrading, true, true, false, true, false},
		{types.AuctionOpen, true, true, false, true, true},
		{types.AuctionClosing, true, true, false, true, true},
		{types.AuctionPaused, false, false, false, true, false},
		{types.AuctionMatching, false, false, false, true, false},
		{types.AuctionRestricted, false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.orders, matching.AcceptsOrders(tt.mode))
			assert.Equal(t, tt.cancels, matching.AcceptsCancels(tt.mode))
			assert.Equal(t, tt.withdraw, matching.AllowsWithdraw(tt.mode))
			assert.Equal(t, tt.transfer, matching.AllowsTransfer(tt.mode))
			assert.Equal(t, tt.batch, matching.IsAuction(tt.mode))
		})
	}

	assert.NoError(t, matching.ValidateTransition(types.AuctionMatching, types.AuctionOff, false))
	assert.NoError(t, matching.ValidateTransition(types.AuctionOpen, types.AuctionOpen, true))
	assert.NoError(t, matching.ValidateTransition(types.AuctionOpen, types.AuctionPaused, true))
	assert.ErrorIs(t, matching.ValidateTransition(types.AuctionMatching, types.AuctionOff, true), matching.ErrCrossedBookOnTransition)
	assert.ErrorIs(t, matching.ValidateTransition(types.AuctionOff, types.AuctionMode(42), false), matching.ErrInvalidArgument)
}

// buildAuctionBook rests 170 asks of 10 between 0.42 and 0.51 and a single
// 8699.05 bid at 1.0, all collected while the auction is open.
func buildAuctionBook(t *testing.T) *fixture {
	f := newFixture(t, types.AuctionOpen)
	f.fund("seller", "AVAX", "1700")
	f.fund("buyer", "USDC", "8699.05")

	for i := 0; i < 170; i++ {
		price := d("0.51").Sub(decimal.NewFromInt(int64(i % 10)).Shift(-2))
		f.limit("seller", types.Sell, price.String(), "10")
	}
	f.limit("buyer", types.Buy, "1.0", "8699.05")

	_, err := f.engine.MatchAuctionOrders(f.ctx, 30)
	assert.ErrorIs(t, err, matching.ErrAuctionNotMatching)

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionMatching))
	_, err = f.engine.MatchAuctionOrders(f.ctx, 30)
	assert.ErrorIs(t, err, matching.ErrAuctionPriceNotSet)
	require.NoError(t, f.engine.SetAuctionPrice(d("0.51")))
	return f
}

func TestAuction_MatchInBatches(t *testing.T) {
	f := buildAuctionBook(t)

	for call := 1; call <= 5; call++ {
		res, err := f.engine.MatchAuctionOrders(f.ctx, 30)
		require.NoError(t, err, "call %d", call)
		require.Len(t, res.Trades, 30)
		require.NoError(t, res.SettlementErr)
	}
	top := f.engine.BestPrices()
	// 150 fills consume 0.42 through 0.49 and 14 of the 17 asks at 0.50
	requireDecimal(t, "0.5", top.AskPrice)
	requireDecimal(t, "30", top.AskQuantity)
	requireDecimal(t, "7199.05", top.BidQuantity)

	res, err := f.engine.MatchAuctionOrders(f.ctx, 30)
	require.NoError(t, err)
	assert.Len(t, res.Trades, 20)

	top = f.engine.BestPrices()
	assert.True(t, top.AskPrice.IsZero())
	requireDecimal(t, "1", top.BidPrice)
	requireDecimal(t, "6999.05", top.BidQuantity)

	_, err = f.engine.MatchAuctionOrders(f.ctx, 30)
	assert.ErrorIs(t, err, matching.ErrNoAuctionMatch)

	for _, tr := range res.Trades {
		assert.True(t, tr.Auction)
		requireDecimal(t, "0.51", tr.Price)
		assert.Zero(t, tr.TakerOrderID)
		assert.Equal(t, tr.SellOrderID, tr.MakerOrderID)
		// both sides pay the 10 bps maker rate
		requireDecimal(t, "0.01", tr.BuyFee)
		requireDecimal(t, "0.0051", tr.SellFee)
	}

	requireDecimal(t, "1698.3", f.available("buyer", "AVAX"))
	requireDecimal(t, "6999.05", f.reserved("buyer", "USDC"))
	requireDecimal(t, "833", f.available("buyer", "USDC"))
	requireDecimal(t, "866.133", f.available("seller", "USDC"))
	requireDecimal(t, "0", f.reserved("seller", "AVAX"))

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionLiveTrading))
	assert.True(t, f.engine.Pair().AuctionPrice.IsZero())
}

func TestAuction_MatchStopsAtClearingPrice(t *testing.T) {
	f := newFixture(t, types.AuctionOpen)
	f.fund("seller", "AVAX", "100")
	f.fund("buyer", "USDC", "1000")
	for _, p := range []string{"9", "10", "11"} {
		f.limit("seller", types.Sell, p, "1")
	}
	for _, p := range []string{"12", "10", "9.5"} {
		f.limit("buyer", types.Buy, p, "1")
	}
	require.NoError(t, f.engine.SetAuctionMode(types.AuctionMatching))
	require.NoError(t, f.engine.SetAuctionPrice(d("10")))

	res, err := f.engine.MatchAuctionOrders(f.ctx, 100)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)
	for i, tr := range res.Trades {
		requireDecimal(t, "10", tr.Price, fmt.Sprintf("trade %d", i))
	}
	top := f.engine.BestPrices()
	requireDecimal(t, "9.5", top.BidPrice)
	requireDecimal(t, "11", top.AskPrice)
	assert.False(t, f.engine.Crossed())
	require.NoError(t, f.engine.SetAuctionMode(types.AuctionOff))
}

func TestAdmin_Setters(t *testing.T) {
	f := newFixture(t, types.AuctionOff)

	assert.ErrorIs(t, f.engine.SetTradeAmountBounds(d("10"), d("5")), matching.ErrInvalidPairConfig)
	require.NoError(t, f.engine.SetTradeAmountBounds(d("2"), d("50")))
	assert.ErrorIs(t, f.engine.SetFeeRates(10, 20000), matching.ErrInvalidPairConfig)
	require.NoError(t, f.engine.SetFeeRates(0, 0))
	assert.ErrorIs(t, f.engine.SetAllowedSlippage(d("-1")), matching.ErrInvalidPairConfig)
	require.NoError(t, f.engine.SetAllowedSlippage(d("0")))

	p := f.engine.Pair()
	requireDecimal(t, "2", p.MinTradeAmount)
	requireDecimal(t, "50", p.MaxTradeAmount)
	assert.Zero(t, p.TakerRateBps)
	assert.True(t, p.AllowedSlippagePercent.IsZero())

	require.NoError(t, f.engine.SetAuctionMode(types.AuctionClosing))
	assert.ErrorIs(t, f.engine.SetAuctionPrice(d("0")), matching.ErrInvalidArgument)
	assert.ErrorIs(t, f.engine.SetAuctionPrice(d("1.234")), matching.ErrPrecisionViolation)
	require.NoError(t, f.engine.SetAuctionPrice(d("1.23")))
	requireDecimal(t, "1.23", f.engine.Pair().AuctionPrice)
}
