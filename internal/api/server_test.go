package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatapi "github.com/futig/fundqa-bot/internal/api/chat"
	"github.com/futig/fundqa-bot/internal/api/middleware"
	"github.com/futig/fundqa-bot/internal/api/web"
	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/futig/fundqa-bot/internal/integration/embedding"
	"github.com/futig/fundqa-bot/internal/integration/graph"
	"github.com/futig/fundqa-bot/internal/integration/llm"
	"github.com/futig/fundqa-bot/internal/integration/search"
	"github.com/futig/fundqa-bot/internal/pkg/validator"
	"github.com/futig/fundqa-bot/internal/repository"
	"github.com/futig/fundqa-bot/internal/usecase/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rejectAll struct{}

func (rejectAll) CookieName() string { return "fundqa_auth" }

func (rejectAll) Authenticate(context.Context, string) (*entity.AuthSession, error) {
	return nil, entity.ErrUnauthorized
}

func newServer(t *testing.T, authenticator middleware.Authenticator) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	embedder := embedding.NewMockConnector()
	store := search.NewMemoryStore(embedder, 256, logger)
	require.NoError(t, store.EnsureIndex(context.Background(), "text_neptune"))

	uc := chat.NewUsecase(llm.NewMockConnector(logger), graph.NewMockExecutor(logger), embedder, store,
		chat.NewCypherValidator(true), repository.NewMessageMemory(time.Hour),
		chat.Settings{Profile: "profile1", Index: "text_neptune", TopK: 1, Dimension: 256}, logger)
	v := validator.NewValidator(config.ChatConfig{MaxMessageLength: 4000})

	cfg := config.ServerConfig{RequestTimeout: time.Minute}
	return SetupRouter(chatapi.NewHandler(uc, v), web.NewHandler(uc, nil, v), authenticator, cfg, logger)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestAPI_RequiresSession(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(t, rejectAll{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized","message":"login required"}`, rec.Body.String())
}

func TestRouter_LoginGatesEverySurface(t *testing.T) {
	h := newServer(t, rejectAll{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	for _, path := range []string{"/api/chat", "/api/chat/trace", "/api/llm/stream"} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, stringsReader(`{"message":"hi","prompt":"hi"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_GuestsDoNotShareHistory(t *testing.T) {
	h := newServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", stringsReader(`{"message":"Who does Zhang Kun manage?"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Zhang Kun")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Zhang Kun")
}

func TestAPI_MockPipeline(t *testing.T) {
	h := newServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/trace", stringsReader(`{"message":"Who does Zhang Kun manage?"}`))
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "MATCH (m:FundManager)-[:manage]-\\u003e(f:Fund)")
	assert.Contains(t, body, "No related samples found.")
	assert.NotContains(t, body, entity.GenericChatError)
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
