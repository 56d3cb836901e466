package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_StoresExchange(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	exchange, err := f.uc.Ask(ctx, "web:jsmith", "Tell me about Zhang Kun")
	require.NoError(t, err)

	assert.Equal(t, entity.RoleUser, exchange.Question.Role)
	assert.Equal(t, "Tell me about Zhang Kun", exchange.Question.Content)
	assert.Equal(t, entity.RoleAssistant, exchange.Answer.Role)
	assert.Contains(t, exchange.Answer.Content, "Zhang Kun manages three funds.")

	history, err := f.uc.History(ctx, "web:jsmith")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, exchange.Question.ID, history[0].ID)
	assert.Equal(t, exchange.Answer.ID, history[1].ID)

	other, err := f.uc.History(ctx, "web:other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAsk_FailureIsStoredAsGenericAnswer(t *testing.T) {
	f := newFixture(nil)
	f.graph.err = errors.New("connection refused")

	exchange, err := f.uc.Ask(context.Background(), "tg:42", "Tell me about Zhang Kun")
	require.NoError(t, err)
	assert.Equal(t, entity.GenericChatError, exchange.Answer.Content)
}

func TestClearHistory(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.uc.Ask(ctx, "tg:42", "Tell me about Zhang Kun")
	require.NoError(t, err)
	require.NoError(t, f.uc.ClearHistory(ctx, "tg:42"))

	history, err := f.uc.History(ctx, "tg:42")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExportHistory(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.uc.Ask(ctx, "web:jsmith", "Tell me about Zhang Kun")
	require.NoError(t, err)

	exported, err := f.uc.ExportHistory(ctx, "web:jsmith", entity.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "chat-history.md", exported.Filename)
	assert.True(t, strings.HasPrefix(string(exported.Data), "# Fund Q&A conversation\n"))
	assert.Contains(t, string(exported.Data), "Tell me about Zhang Kun")

	_, err = f.uc.ExportHistory(ctx, "web:jsmith", "html")
	assert.ErrorIs(t, err, entity.ErrUnsupportedFormat)
}
