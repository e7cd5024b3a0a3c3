package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PxPatel/clob-exchange/config"
	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
	"github.com/PxPatel/clob-exchange/internal/exchange"
	"github.com/PxPatel/clob-exchange/internal/settlement"
)

// ExchangeHolder wraps the exchange and the ledger for dependency injection
type ExchangeHolder struct {
	Exchange *exchange.Exchange
	Ledger   *settlement.Ledger
	Limits   config.APIConfig
}

// NewExchangeHolder creates a new exchange holder
func NewExchangeHolder(x *exchange.Exchange, ledger *settlement.Ledger, limits config.APIConfig) *ExchangeHolder {
	return &ExchangeHolder{Exchange: x, Ledger: ledger, Limits: limits}
}

func ok(message string) models.BaseResponse {
	return models.BaseResponse{
		Success:   true,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// writeErrorResponse writes an error response
func writeErrorResponse(w http.ResponseWriter, httpErr *models.HTTPError) {
	logger.Warn("Request failed", map[string]interface{}{
		"error_code": httpErr.Error.Code,
		"status":     httpErr.StatusCode,
		"message":    httpErr.Error.Message,
	})

	writeJSON(w, httpErr.StatusCode, models.BaseResponse{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Message:   httpErr.Error.Message,
		Error:     &httpErr.Error,
	})
}

func decodeBody(r *http.Request, v interface{}) *models.HTTPError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("Invalid JSON format", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// queryLimit reads a positive int query value, falling back to def when
// absent or invalid and capping at max.
func queryLimit(r *http.Request, key string, def, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func pathOrderID(r *http.Request) (uint64, *models.HTTPError) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.ErrBadRequest("Invalid order ID format", map[string]interface{}{"provided_value": raw})
	}
	return id, nil
}

func requirePair(r *http.Request) (string, *models.HTTPError) {
	pair := strings.TrimSpace(r.URL.Query().Get("pair"))
	if pair == "" {
		return "", models.ErrBadRequest("pair query parameter is required", map[string]interface{}{"field": "pair"})
	}
	return pair, nil
}
