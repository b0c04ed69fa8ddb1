package handler

import (
	"net/http"
	"time"

	"github.com/orderpulse/notification-service/internal/service"
)

const serviceName = "notification-service"

// HealthHandler serves the liveness probe, including the reachability of
// the status store.
type HealthHandler struct {
	svc *service.NotificationService
}

func NewHealthHandler(svc *service.NotificationService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	redisStatus := "UP"
	if !h.svc.StoreHealthy(r.Context()) {
		redisStatus = "DOWN"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"dependencies": map[string]string{
			"redis": redisStatus,
		},
	})
}
