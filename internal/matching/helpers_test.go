package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/settlement"
	"github.com/PxPatel/clob-exchange/internal/types"
)

const feeAccount = "exchange"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPair(mode types.AuctionMode) *types.Pair {
	return &types.Pair{
		ID:                     "AVAX/USDC",
		BaseSymbol:             "AVAX",
		QuoteSymbol:            "USDC",
		BaseDecimals:           18,
		QuoteDecimals:          6,
		BaseDisplayDecimals:    2,
		QuoteDisplayDecimals:   2,
		MinTradeAmount:         d("1"),
		MaxTradeAmount:         d("100000"),
		MakerRateBps:           10,
		TakerRateBps:           20,
		AllowedKinds:           []types.OrderKind{types.Market, types.Limit},
		AuctionMode:            mode,
		AllowedSlippagePercent: d("5"),
	}
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	engine *matching.Engine
	ledger *settlement.Ledger
}

func newFixture(t *testing.T, mode types.AuctionMode) *fixture {
	t.Helper()
	ledger := settlement.NewLedger(feeAccount)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e, err := matching.NewEngine(testPair(mode), matching.Options{
		Settlement: ledger,
		Clock:      func() time.Time { return clock },
	})
	require.NoError(t, err)
	return &fixture{t: t, ctx: context.Background(), engine: e, ledger: ledger}
}

func (f *fixture) fund(trader, asset, amount string) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Deposit(f.ctx, trader, asset, d(amount)))
}

func (f *fixture) submit(req matching.OrderRequest) (*matching.Result, error) {
	return f.engine.SubmitOrder(f.ctx, req)
}

func (f *fixture) limit(trader string, side types.Side, price, qty string) *types.Order {
	f.t.Helper()
	res, err := f.submit(matching.OrderRequest{
		Trader:      trader,
		Side:        side,
		Kind:        types.Limit,
		TimeInForce: types.GTC,
		Price:       d(price),
		Quantity:    d(qty),
	})
	require.NoError(f.t, err)
	require.NoError(f.t, res.SettlementErr)
	return res.Order
}

func (f *fixture) available(trader, asset string) decimal.Decimal {
	return f.ledger.Balance(trader, asset).Available
}

func (f *fixture) reserved(trader, asset string) decimal.Decimal {
	return f.ledger.Balance(trader, asset).Reserved
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
