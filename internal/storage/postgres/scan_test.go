package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// fakeRow hands Scan the values a SELECT would produce.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r[i].(int64)
		case *string:
			*p = r[i].(string)
		case *bool:
			*p = r[i].(bool)
		case *time.Time:
			*p = r[i].(time.Time)
		}
	}
	return nil
}

func TestScanOrder(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := fakeRow{
		int64(7), "c-1", "alice", "AVAX/USDC", "SELL", "LIMIT", "PO",
		"12.50", "3", "1.25", "15.625", "0.015625", "1.75",
		"PARTIAL", now, now,
	}

	o, err := scanOrder(row)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), o.ID)
	assert.Equal(t, types.Sell, o.Side)
	assert.Equal(t, types.Limit, o.Kind)
	assert.Equal(t, types.PO, o.TimeInForce)
	assert.Equal(t, types.StatusPartial, o.Status)
	assert.Equal(t, "12.5", o.Price.String())
	assert.Equal(t, "1.75", o.Remaining().String())

	row[4] = "SIDEWAYS"
	_, err = scanOrder(row)
	assert.Error(t, err)
}

func TestScanTrade(t *testing.T) {
	row := fakeRow{
		int64(3), "AVAX/USDC", int64(10), int64(9), "bob", "alice",
		int64(9), int64(0), "SELL", "0.51", "10", "5.1", "0.01", "0.0051",
		true, time.Unix(0, 0).UTC(),
	}
	tr, err := scanTrade(row)
	require.NoError(t, err)
	assert.True(t, tr.Auction)
	assert.Zero(t, tr.TakerOrderID)
	assert.Equal(t, types.Sell, tr.MakerSide)
	assert.Equal(t, "0.0051", tr.SellFee.String())

	row[10] = "ten"
	_, err = scanTrade(row)
	assert.Error(t, err)
}

// fakeQuerier answers every QueryRow with row.
type fakeQuerier struct {
	row pgx.Row
	sql string
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	q.sql = sql
	return q.row
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestMaxOrderID(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{int64(4711)}}
	id, err := maxOrderID(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, uint64(4711), id)
	assert.Contains(t, q.sql, "MAX(order_id)")

	_, err = maxOrderID(context.Background(), &fakeQuerier{row: errRow{err: errors.New("connection reset")}})
	assert.ErrorContains(t, err, "connection reset")
}
