package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health сообщает, что сервис запущен.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Message: "Ysrap Etpe API is running"})
}

// Ready проверяет доступность базы данных.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "UNAVAILABLE", Message: "Database is unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Message: "Database is reachable"})
}
