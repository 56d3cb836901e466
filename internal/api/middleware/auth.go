package middleware

import (
	"context"
	"net/http"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, cookieValue string) (*entity.AuthSession, error)
	CookieName() string
}

type sessionKey struct{}

// GuestCookieName keeps the visitor identity when login is disabled.
const GuestCookieName = "fundqa_guest"

// Auth resolves the session cookie. Requests without a valid session are
// passed to onFail. A nil authenticator lets everyone in as a guest with a
// conversation of their own.
func Auth(auth Authenticator, onFail http.HandlerFunc) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), guestSession(w, r))))
				return
			}

			cookie, err := r.Cookie(auth.CookieName())
			if err != nil {
				onFail(w, r)
				return
			}

			session, err := auth.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				ctxzap.Debug(r.Context(), "session rejected", zap.Error(err))
				onFail(w, r)
				return
			}

			ctx := logger.AddFields(WithSession(r.Context(), session), zap.String("username", session.Username))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// guestSession reuses the visitor's guest cookie or issues a new one.
func guestSession(w http.ResponseWriter, r *http.Request) *entity.AuthSession {
	id := ""
	if cookie, err := r.Cookie(GuestCookieName); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			id = parsed.String()
		}
	}

	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     GuestCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return &entity.AuthSession{Username: "guest-" + id, Name: "Guest"}
}

func WithSession(ctx context.Context, session *entity.AuthSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session stored by Auth.
func SessionFromContext(ctx context.Context) (*entity.AuthSession, bool) {
	session, ok := ctx.Value(sessionKey{}).(*entity.AuthSession)
	return session, ok
}

// ConversationID derives the history key of a web user.
func ConversationID(session *entity.AuthSession) string {
	return "web:" + session.Username
}
