package api

import (
	"net/http"

	chatapi "github.com/futig/fundqa-bot/internal/api/chat"
	"github.com/futig/fundqa-bot/internal/api/docs"
	"github.com/futig/fundqa-bot/internal/api/middleware"
	"github.com/futig/fundqa-bot/internal/api/web"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router. authenticator is nil when
// login is disabled.
func SetupRouter(
	chatHandler *chatapi.Handler,
	webHandler *web.Handler,
	authenticator middleware.Authenticator,
	cfg config.ServerConfig,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	// a turn makes two model calls, each allowed up to the Bedrock read timeout
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	docs.RegisterRoutes(r)

	web.RegisterRoutes(r, webHandler, middleware.Auth(authenticator, web.RedirectToLogin))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authenticator, func(w http.ResponseWriter, _ *http.Request) {
			response.Error(w, http.StatusUnauthorized, "login required")
		}))
		chatapi.RegisterRoutes(r, chatHandler)
	})

	return r
}
