package book_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PxPatel/clob-exchange/internal/book"
	"github.com/PxPatel/clob-exchange/internal/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimals(t *testing.T, want []string, got []decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Truef(t, d(want[i]).Equal(got[i]), "index %d: want %s got %s", i, want[i], got[i])
	}
}

// TestSide_Key tests price to tick conversion
func TestSide_Key(t *testing.T) {
	s := book.NewSide(types.Sell, 2)

	tests := []struct {
		name  string
		price string
		want  uint64
		err   error
	}{
		{"whole", "5", 500, nil},
		{"exact tick", "0.01", 1, nil},
		{"two decimals", "12.34", 1234, nil},
		{"finer than tick", "0.015", 0, book.ErrInvalidPrice},
		{"zero", "0", 0, book.ErrInvalidPrice},
		{"negative", "-1", 0, book.ErrInvalidPrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := s.Key(d(tt.price))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

// TestSide_FIFO tests time priority within a level and removal from the middle
func TestSide_FIFO(t *testing.T) {
	s := book.NewSide(types.Buy, 2)
	require.NoError(t, s.Insert(d("10"), 1, d("1")))
	require.NoError(t, s.Insert(d("10"), 2, d("2")))
	require.NoError(t, s.Insert(d("10"), 3, d("3")))
	assert.ErrorIs(t, s.Insert(d("10"), 2, d("1")), book.ErrDuplicateOrder)
	assert.ErrorIs(t, s.Insert(d("10"), 4, d("0")), book.ErrInvalidQuantity)

	qtys, err := s.QuantitiesAt(d("10"))
	require.NoError(t, err)
	assertDecimals(t, []string{"1", "2", "3"}, qtys)
	assert.True(t, d("6").Equal(s.Aggregate(d("10"))))

	left, err := s.Remove(d("10"), 2)
	require.NoError(t, err)
	assert.True(t, d("2").Equal(left))

	qtys, err = s.QuantitiesAt(d("10"))
	require.NoError(t, err)
	assertDecimals(t, []string{"1", "3"}, qtys)
	assert.Equal(t, 2, s.OrderCount())

	_, err = s.Remove(d("10"), 2)
	assert.ErrorIs(t, err, book.ErrOrderNotFound)
	_, err = s.Remove(d("11"), 1)
	assert.ErrorIs(t, err, book.ErrOrderNotFound)

	// the head moves on and the level disappears when emptied
	_, err = s.Remove(d("10"), 1)
	require.NoError(t, err)
	head, ok := s.PeekBest()
	require.True(t, ok)
	assert.Equal(t, uint64(3), head.OrderID)

	_, err = s.Remove(d("10"), 3)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	qtys, err = s.QuantitiesAt(d("10"))
	require.NoError(t, err)
	assert.Empty(t, qtys)
}

// TestSide_BestAndWalk tests price priority on both sides
func TestSide_BestAndWalk(t *testing.T) {
	bids := book.NewSide(types.Buy, 2)
	asks := book.NewSide(types.Sell, 2)
	for i, p := range []string{"10", "12", "11", "12"} {
		require.NoError(t, bids.Insert(d(p), uint64(i+1), d("1")))
		require.NoError(t, asks.Insert(d(p), uint64(i+11), d("1")))
	}

	best, ok := bids.Best()
	require.True(t, ok)
	assert.True(t, d("12").Equal(best))
	best, ok = asks.Best()
	require.True(t, ok)
	assert.True(t, d("10").Equal(best))

	var bidIDs []uint64
	bids.Walk(func(_ decimal.Decimal, id uint64, _ decimal.Decimal) bool {
		bidIDs = append(bidIDs, id)
		return true
	})
	assert.Equal(t, []uint64{2, 4, 3, 1}, bidIDs)

	var askIDs []uint64
	asks.Walk(func(_ decimal.Decimal, id uint64, _ decimal.Decimal) bool {
		askIDs = append(askIDs, id)
		return len(askIDs) < 2
	})
	assert.Equal(t, []uint64{11, 13}, askIDs)

	depth := bids.Depth(2)
	require.Len(t, depth, 2)
	assert.True(t, d("12").Equal(depth[0].Price))
	assert.True(t, d("2").Equal(depth[0].Quantity))
	assert.Equal(t, 2, depth[0].Orders)
}

// TestSide_ReduceHead tests partial and full consumption of the head
func TestSide_ReduceHead(t *testing.T) {
	s := book.NewSide(types.Sell, 2)
	assert.ErrorIs(t, s.ReduceHead(d("1")), book.ErrEmptySide)

	require.NoError(t, s.Insert(d("5"), 1, d("3")))
	require.NoError(t, s.Insert(d("5"), 2, d("4")))
	require.NoError(t, s.Insert(d("6"), 3, d("1")))

	assert.ErrorIs(t, s.ReduceHead(d("3.5")), book.ErrReduceExceedsHead)

	require.NoError(t, s.ReduceHead(d("1")))
	head, _ := s.PeekBest()
	assert.Equal(t, uint64(1), head.OrderID)
	assert.True(t, d("2").Equal(head.Quantity))
	assert.True(t, d("6").Equal(s.Aggregate(d("5"))))

	require.NoError(t, s.ReduceHead(d("2")))
	head, _ = s.PeekBest()
	assert.Equal(t, uint64(2), head.OrderID)

	require.NoError(t, s.ReduceHead(d("4")))
	head, _ = s.PeekBest()
	assert.Equal(t, uint64(3), head.OrderID)
	assert.True(t, d("6").Equal(head.Price))
	assert.Equal(t, 1, s.Levels())
}

// TestSide_AggregateMatchesQueue checks that every level's aggregate equals
// the sum of its queued quantities under random inserts and removals.
func TestSide_AggregateMatchesQueue(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := book.NewSide(types.Buy, 2)
	type resting struct {
		price decimal.Decimal
		qty   decimal.Decimal
	}
	live := map[uint64]resting{}

	for id := uint64(1); id <= 500; id++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			for victim, r := range live {
				_, err := s.Remove(r.price, victim)
				require.NoError(t, err)
				delete(live, victim)
				break
			}
			continue
		}
		price := decimal.New(int64(rng.Intn(20)+1), -1)
		qty := decimal.New(int64(rng.Intn(1000)+1), -2)
		require.NoError(t, s.Insert(price, id, qty))
		live[id] = resting{price, qty}
	}

	perPrice := map[string]decimal.Decimal{}
	for _, r := range live {
		k := r.price.String()
		perPrice[k] = perPrice[k].Add(r.qty)
	}
	require.Equal(t, len(perPrice), s.Levels())
	require.Equal(t, len(live), s.OrderCount())

	for price, want := range perPrice {
		agg := s.Aggregate(d(price))
		assert.Truef(t, want.Equal(agg), "price %s: want %s got %s", price, want, agg)

		qtys, err := s.QuantitiesAt(d(price))
		require.NoError(t, err)
		sum := decimal.Zero
		for _, q := range qtys {
			sum = sum.Add(q)
		}
		assert.True(t, sum.Equal(agg))
	}
}

// BenchmarkSideInsert benchmarks resting orders across 100 price levels
func BenchmarkSideInsert(b *testing.B) {
	s := book.NewSide(types.Buy, 2)
	prices := make([]decimal.Decimal, 100)
	for i := range prices {
		prices[i] = decimal.New(int64(10000+i), -2)
	}
	qty := decimal.NewFromInt(10)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = s.Insert(prices[i%100], uint64(i+1), qty)
	}

	addsPerSec := float64(b.N) / b.Elapsed().Seconds()
	b.ReportMetric(addsPerSec, "adds/sec")
}
