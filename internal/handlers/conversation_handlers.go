package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"grid-assistant-service/internal/models"
)

const (
	defaultMessageLimit = 20
	maxMessageLimit     = 200
)

// ConversationStore is the part of the persistence layer the conversation
// endpoints need.
type ConversationStore interface {
	CreateConversation(ctx context.Context, ownerKey string) (models.Conversation, error)
	GetConversation(ctx context.Context, ownerKey, conversationID string) (models.Conversation, error)
	ListMessages(ctx context.Context, ownerKey, conversationID string, limit int) ([]models.Message, error)
}

type ConversationHandlers struct {
	Store ConversationStore
}

func (h *ConversationHandlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.CreateConversation(r.Context(), CallerKey(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "create_conversation_failed"})
		return
	}
	writeJSON(w, http.StatusOK, models.ConversationsResponse{Data: c})
}

func (h *ConversationHandlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "conversation_id_required"})
		return
	}
	c, err := h.Store.GetConversation(r.Context(), CallerKey(r), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "get_conversation_failed"})
		return
	}
	writeJSON(w, http.StatusOK, models.ConversationsResponse{Data: c})
}

func (h *ConversationHandlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "conversation_id_required"})
		return
	}
	limit := defaultMessageLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxMessageLimit)
		}
	}
	msgs, err := h.Store.ListMessages(r.Context(), CallerKey(r), id, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "list_messages_failed"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, models.MessagesResponse{Data: msgs})
}
