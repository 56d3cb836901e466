package asr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnector_TranscribeBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			assert.Equal(t, "whisper-1", r.FormValue("model"))

			file, header, err := r.FormFile("file")
			if assert.NoError(t, err) {
				defer file.Close()
				data, _ := io.ReadAll(file)
				assert.Equal(t, "voice.ogg", header.Filename)
				assert.Equal(t, []byte("OggS-audio"), data)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "Who manages E Fund Blue Chip Select?"})
	}))
	defer srv.Close()

	c := NewConnector(config.ASRConfig{
		Model:   "whisper-1",
		Timeout: 5 * time.Second,
		OpenAI:  config.OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key"},
	}, zap.NewNop())

	text, err := c.TranscribeBytes(context.Background(), []byte("OggS-audio"), "voice.ogg")
	require.NoError(t, err)
	assert.Equal(t, "Who manages E Fund Blue Chip Select?", text)
}

func TestConnector_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"unsupported audio","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewConnector(config.ASRConfig{
		Model:  "whisper-1",
		OpenAI: config.OpenAIConfig{BaseURL: srv.URL, APIKey: "k"},
	}, zap.NewNop())

	_, err := c.TranscribeBytes(context.Background(), []byte("x"), "voice.ogg")
	assert.ErrorContains(t, err, "unsupported audio")
}

func TestEmptyAudioRejected(t *testing.T) {
	c := NewConnector(config.ASRConfig{Model: "whisper-1"}, zap.NewNop())
	_, err := c.TranscribeBytes(context.Background(), nil, "voice.ogg")
	assert.Error(t, err)

	mock := NewMockConnector(zap.NewNop())
	_, err = mock.TranscribeBytes(context.Background(), nil, "voice.ogg")
	assert.Error(t, err)

	text, err := mock.TranscribeBytes(context.Background(), []byte{1}, "voice.ogg")
	require.NoError(t, err)
	assert.Equal(t, mockTranscription, text)
}
