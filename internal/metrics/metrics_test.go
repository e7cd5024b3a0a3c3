package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.OrderAccepted("AVAX/USDC", "BUY", "LIMIT")
	m.OrderAccepted("AVAX/USDC", "BUY", "LIMIT")
	m.Rejected("AVAX/USDC", "submit", "INSUFFICIENT_FUNDS")
	m.Trade("AVAX/USDC", true, 5.1)
	m.Trade("AVAX/USDC", true, 4.9)
	m.Resting("AVAX/USDC", 3)
	m.Observe("submit", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("AVAX/USDC", "BUY", "LIMIT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejects.WithLabelValues("AVAX/USDC", "submit", "INSUFFICIENT_FUNDS")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.trades.WithLabelValues("AVAX/USDC", "true")))
	assert.InDelta(t, 10.0, testutil.ToFloat64(m.volume.WithLabelValues("AVAX/USDC")), 1e-9)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.resting.WithLabelValues("AVAX/USDC")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SettlementError("AVAX/USDC")
	m.PersistError("orders")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `clob_settlement_errors_total{pair="AVAX/USDC"} 1`))
	assert.True(t, strings.Contains(body, `clob_persist_errors_total{sink="orders"} 1`))
}

func TestMetrics_HTTPRequest(t *testing.T) {
	m := New()
	m.HTTPRequest("GET", "GET /api/v1/orders/{id}", 404, time.Now())
	m.HTTPRequest("GET", "GET /api/v1/orders/{id}", 404, time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/v1/orders/{id}", "404")))
}
