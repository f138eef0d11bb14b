package api

import (
	"net/http"
	"time"

	"github.com/phrazzld/taskmgr-api/internal/api/shared"
)

// HealthHandler reports liveness and process uptime.
type HealthHandler struct {
	started  time.Time
	timeFunc func() time.Time
}

// NewHealthHandler creates a HealthHandler counting uptime from started.
func NewHealthHandler(started time.Time) *HealthHandler {
	return &HealthHandler{started: started, timeFunc: time.Now}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(h.timeFunc().Sub(h.started).Seconds()),
	})
}
