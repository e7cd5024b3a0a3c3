package handlers

import (
	"net/http"
	"strings"

	"github.com/PxPatel/clob-exchange/internal/api/logger"
	"github.com/PxPatel/clob-exchange/internal/api/models"
)

// GetTradesHandler handles retrieving recent trades, newest first. Without
// a pair every pair's trades are returned.
func (eh *ExchangeHolder) GetTradesHandler(w http.ResponseWriter, r *http.Request) {
	pair := strings.TrimSpace(r.URL.Query().Get("pair"))
	limit := queryLimit(r, "limit", eh.Limits.DefaultTradeLimit, eh.Limits.MaxTradeLimit)

	trades, err := eh.Exchange.RecentTrades(pair, limit)
	if err != nil {
		writeErrorResponse(w, models.FromError(err))
		return
	}

	tradeDTOs := make([]models.TradeDTO, len(trades))
	for i, t := range trades {
		tradeDTOs[i] = models.NewTradeDTO(t)
	}

	logger.Debug("Retrieved trades", map[string]interface{}{
		"pair":  pair,
		"count": len(tradeDTOs),
		"limit": limit,
	})

	writeJSON(w, http.StatusOK, models.GetTradesResponse{
		BaseResponse: ok(""),
		Trades:       tradeDTOs,
		Count:        len(tradeDTOs),
	})
}
