package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"grid-assistant-service/internal/models"
	"grid-assistant-service/internal/services"
)

// friendlyFailure is shown to operators instead of internal error detail.
const friendlyFailure = "I encountered an issue processing your request. Please try again or rephrase your question."

type ChatHandlers struct {
	Logger *slog.Logger
	Chat   *services.ChatService
}

func decodeChatRequest(r *http.Request) (models.ChatRequest, string) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "invalid_json"
	}
	if strings.TrimSpace(req.Message) == "" {
		return req, "message_required"
	}
	return req, ""
}

func (h *ChatHandlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, problem := decodeChatRequest(r)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": problem})
		return
	}

	resp, err := h.Chat.Chat(r.Context(), CallerKey(r), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "message_required"})
			return
		}
		loggerOr(h.Logger).Error("chat: request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "chat_failed", "message": friendlyFailure})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
