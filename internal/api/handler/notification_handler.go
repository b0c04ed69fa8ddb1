package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/orderpulse/notification-service/internal/api/middleware"
	"github.com/orderpulse/notification-service/internal/domain"
	"github.com/orderpulse/notification-service/internal/service"
)

// NotificationHandler handles the manual-send, status, and stats endpoints.
type NotificationHandler struct {
	svc    *service.NotificationService
	logger *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// SendEmail handles POST /notifications/email
//
// The record is created before this returns; rendering and delivery happen
// in the background. Callers poll the status endpoint with the returned id.
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.svc.SendManual(r.Context(), req)
	if err != nil {
		h.logger.Warn("queue email notification failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":         "Notification queued successfully",
		"notification_id": id,
	})
}

// GetStatus handles GET /notifications/{id}/status
func (h *NotificationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := h.svc.Status(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// GetStats handles GET /notifications/stats
func (h *NotificationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats aggregation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "error retrieving stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
