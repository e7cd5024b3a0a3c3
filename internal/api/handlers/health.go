package handlers

import (
	"net/http"
	"time"

	"github.com/PxPatel/clob-exchange/internal/api/models"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var startTime = time.Now()

// HealthHandler handles health check requests
func (eh *ExchangeHolder) HealthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startTime)

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: int64(uptime.Seconds()),
		Version:       Version,
		Pairs:         len(eh.Exchange.Pairs()),
	})
}
