package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"grid-assistant-service/internal/config"
	"grid-assistant-service/internal/handlers"
	"grid-assistant-service/internal/metrics"
)

type Handlers struct {
	Chat          *handlers.ChatHandlers
	Stream        *handlers.StreamHandlers
	Conversations *handlers.ConversationHandlers
	Admin         *handlers.AdminHandlers
}

func NewRouter(cfg config.Config, log *slog.Logger, health handlers.HealthInfo, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(handlers.WithRequestLogging(log))
	r.Use(handlers.WithCORS(cfg))

	r.Get("/health", handlers.Health(health))

	auth := handlers.WithAPIKey(cfg)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		if h.Conversations != nil {
			r.Post("/conversations", h.Conversations.CreateConversation)
			r.Get("/conversations/{id}", h.Conversations.GetConversation)
			r.Get("/conversations/{id}/messages", h.Conversations.ListMessages)
		}

		r.Post("/chat", h.Chat.HandleChat)
		r.Post("/chat/stream", h.Stream.HandleChatStream)

		r.Route("/admin", func(r chi.Router) {
			r.Use(handlers.RequireAdmin(cfg))
			r.Post("/reset-memory", h.Admin.ResetMemory)
			r.Get("/dashboard", h.Admin.Dashboard)
		})
	})

	return r
}
