package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat API routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Post("/chat/trace", h.Trace)
		r.Get("/chat/history", h.History)
		r.Delete("/chat/history", h.ClearHistory)
		r.Get("/chat/history/export", h.ExportHistory)
		r.Post("/llm/stream", h.Stream)
	})
}
