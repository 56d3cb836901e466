package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the browser pages. requireAuth guards the chat pages.
func RegisterRoutes(r chi.Router, h *Handler, requireAuth func(http.Handler) http.Handler) {
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ChatPage)
		r.Post("/chat", h.Ask)
		r.Post("/clear", h.ClearHistory)
	})
}
