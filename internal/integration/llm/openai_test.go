package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/futig/fundqa-bot/internal/entity"
	pkgRetry "github.com/futig/fundqa-bot/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(url string) *OpenAIConnector {
	return NewOpenAIConnector(
		config.LLMConfig{
			ModelID:     "llama3",
			Temperature: 0.01,
			TopP:        0.9,
			OpenAI:      config.OpenAIConfig{BaseURL: url, APIKey: "test"},
		},
		pkgRetry.RetryConfig{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		10*time.Second,
		zap.NewNop(),
	)
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])
		messages := req["messages"].([]any)
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Zhang Kun manages three funds."}}]}`)
	}))
	defer srv.Close()

	text, err := newTestOpenAI(srv.URL).Generate(context.Background(), &entity.LLMGenerateRequest{
		SystemPrompt: "You are a helpful chatbot.",
		UserPrompt:   "who is Zhang Kun",
	})
	require.NoError(t, err)
	assert.Equal(t, "Zhang Kun manages three funds.", text)
}

func TestOpenAIGenerate_RetryPolicy(t *testing.T) {
	for _, tc := range []struct {
		status int
		calls  int32
	}{
		{status: http.StatusServiceUnavailable, calls: 3},
		{status: http.StatusBadRequest, calls: 1},
	} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			fmt.Fprint(w, `{"error":{"message":"nope","type":"server_error"}}`)
		}))

		_, err := newTestOpenAI(srv.URL).Generate(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
		srv.Close()

		require.Error(t, err)
		assert.Equal(t, tc.calls, calls.Load(), "status %d", tc.status)
	}
}

func TestOpenAIGenerateStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Zhang ", "Kun"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	chunks, err := newTestOpenAI(srv.URL).GenerateStream(context.Background(), &entity.LLMGenerateRequest{UserPrompt: "q"})
	require.NoError(t, err)

	var text strings.Builder
	for chunk := range chunks {
		require.NoError(t, chunk.Err)
		text.WriteString(chunk.Text)
	}
	assert.Equal(t, "Zhang Kun", text.String())
}
