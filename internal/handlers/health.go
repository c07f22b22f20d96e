package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/response"
)

const readinessTimeout = 2 * time.Second

// HealthHandler responds with service health information.
type HealthHandler struct {
	DB Pinger
}

type healthStatus struct {
	Status string `json:"status"`
}

// Live implements GET /healthz.
func (HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, healthStatus{Status: "ok"}, "")
}

// Ready implements GET /readyz. It fails with 503 when the database cannot be reached.
func (h HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		response.OK(w, r, healthStatus{Status: "ok"}, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		logging.FromContext(ctx).Warn("readiness check failed", "error", err)
		response.JSON(r.Context(), w, http.StatusServiceUnavailable, healthStatus{Status: "unavailable"}, "database unreachable")
		return
	}
	response.OK(w, r, healthStatus{Status: "ok"}, "")
}
