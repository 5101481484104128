package handlers

import (
	"log/slog"
	"net/http"

	"grid-assistant-service/internal/models"
	"grid-assistant-service/internal/services"
)

type AdminHandlers struct {
	Logger *slog.Logger
	Chat   *services.ChatService
}

// ResetMemory clears the in-process conversation memory for every caller.
func (h *AdminHandlers) ResetMemory(w http.ResponseWriter, r *http.Request) {
	n := h.Chat.ResetMemory(r.Context(), CallerKey(r))
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "conversations_cleared": n})
}

func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Chat.Dashboard(r.Context())
	if err != nil {
		loggerOr(h.Logger).Error("admin: dashboard failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "dashboard_failed"})
		return
	}
	if stats.RecentLogs == nil {
		stats.RecentLogs = []models.LogEntry{}
	}
	writeJSON(w, http.StatusOK, models.DashboardResponse{Data: stats})
}
