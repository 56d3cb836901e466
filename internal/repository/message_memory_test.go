package repository

import (
	"context"
	"testing"
	"time"

	"github.com/futig/fundqa-bot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageMemory(time.Hour)

	q, err := repo.CreateMessage(ctx, "tg:1", entity.RoleUser, "Who is Zhang Kun?")
	require.NoError(t, err)
	a, err := repo.CreateMessage(ctx, "tg:1", entity.RoleAssistant, "A fund manager.")
	require.NoError(t, err)
	_, err = repo.CreateMessage(ctx, "tg:2", entity.RoleUser, "other chat")
	require.NoError(t, err)

	assert.NotEqual(t, q.ID, a.ID)
	assert.Equal(t, "tg:1", q.ConversationID)

	history, err := repo.ListMessages(ctx, "tg:1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.RoleUser, history[0].Role)
	assert.Equal(t, "A fund manager.", history[1].Content)

	require.NoError(t, repo.DeleteMessages(ctx, "tg:1"))

	history, err = repo.ListMessages(ctx, "tg:1")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = repo.ListMessages(ctx, "tg:2")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestMessageMemory_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageMemory(0)

	_, err := repo.CreateMessage(ctx, "c", entity.RoleUser, "one")
	require.NoError(t, err)

	history, err := repo.ListMessages(ctx, "c")
	require.NoError(t, err)
	history[0] = nil

	history, err = repo.ListMessages(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, history[0])
}

func TestMessageMemory_Expires(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageMemory(20 * time.Millisecond)

	_, err := repo.CreateMessage(ctx, "c", entity.RoleUser, "one")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	history, err := repo.ListMessages(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, history)
}
