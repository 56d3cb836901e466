package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/futig/fundqa-bot/internal/api/middleware"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/pkg/logger"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pages = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type loginView struct {
	Username string
	Error    string
}

type chatView struct {
	Name        string
	AuthEnabled bool
	History     []*entity.ChatMessage
	Error       string
}

type Handler struct {
	chat      ChatUsecase
	auth      AuthUsecase
	validator *validator.Validator
}

// NewHandler creates the page handler. auth is nil when login is disabled.
func NewHandler(chat ChatUsecase, auth AuthUsecase, validator *validator.Validator) *Handler {
	return &Handler{
		chat:      chat,
		auth:      auth,
		validator: validator,
	}
}

// LoginPage handles GET /login
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(r.Context(), w, http.StatusOK, "login", loginView{})
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Login")
	if h.auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	req := entity.LoginRequest{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.ValidateLogin(&req); err != nil {
		h.render(ctx, w, http.StatusBadRequest, "login", loginView{Username: req.Username, Error: "Username and password are required."})
		return
	}

	session, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Login failed, please try again."
		if errors.Is(err, entity.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			msg = "Username/password is incorrect."
		}
		h.render(ctx, w, status, "login", loginView{Username: req.Username, Error: msg})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    h.auth.CookieValue(session),
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(h.auth.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.auth != nil {
		if cookie, err := r.Cookie(h.auth.CookieName()); err == nil {
			h.auth.Logout(r.Context(), cookie.Value)
		}
		http.SetCookie(w, &http.Cookie{
			Name:     h.auth.CookieName(),
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ChatPage handles GET /
func (h *Handler) ChatPage(w http.ResponseWriter, r *http.Request) {
	h.renderChat(logger.WithAction(r.Context(), "ChatPage"), w, http.StatusOK, "")
}

// Ask handles POST /chat from the page form
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")
	session, _ := middleware.SessionFromContext(ctx)

	message, err := h.validator.ValidateMessage(r.PostFormValue("message"))
	if err != nil {
		msg := "Please enter a question."
		if errors.Is(err, entity.ErrMessageTooLong) {
			msg = "The question is too long."
		}
		h.renderChat(ctx, w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.chat.Ask(ctx, middleware.ConversationID(session), message); err != nil {
		ctxzap.Error(ctx, "failed to store chat exchange", zap.Error(err))
		h.renderChat(ctx, w, http.StatusInternalServerError, entity.GenericChatError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearHistory handles POST /clear
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ClearHistory")
	session, _ := middleware.SessionFromContext(ctx)

	if err := h.chat.ClearHistory(ctx, middleware.ConversationID(session)); err != nil {
		ctxzap.Error(ctx, "failed to clear history", zap.Error(err))
		h.renderChat(ctx, w, http.StatusInternalServerError, "Could not clear the history.")
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) renderChat(ctx context.Context, w http.ResponseWriter, status int, errMsg string) {
	session, _ := middleware.SessionFromContext(ctx)

	history, err := h.chat.History(ctx, middleware.ConversationID(session))
	if err != nil {
		ctxzap.Error(ctx, "failed to load history", zap.Error(err))
		errMsg = "Could not load the history."
	}

	h.render(ctx, w, status, "chat", chatView{
		Name:        session.Name,
		AuthEnabled: h.auth != nil,
		History:     history,
		Error:       errMsg,
	})
}

func (h *Handler) render(ctx context.Context, w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, page, data); err != nil {
		ctxzap.Error(ctx, "failed to render page", zap.String("page", page), zap.Error(err))
	}
}

// RedirectToLogin is the failure handler for pages behind the auth middleware.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
