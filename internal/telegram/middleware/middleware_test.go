package middleware

import (
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu    sync.Mutex
	texts []string
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func textUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	bot := &recordingSender{}
	rl := NewRateLimiterMiddleware(6, 2, zap.NewNop(), bot)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	passed := 0
	next := func(tgbotapi.Update) { passed++ }

	for i := 0; i < 3; i++ {
		rl.Handle(textUpdate(7, 70, "q"), next)
	}
	assert.Equal(t, 2, passed)
	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0], "Too many requests")

	// another user has its own bucket
	rl.Handle(textUpdate(8, 80, "q"), next)
	assert.Equal(t, 3, passed)

	// 6 per minute refills one token every 10 seconds
	now = now.Add(10 * time.Second)
	rl.Handle(textUpdate(7, 70, "q"), next)
	assert.Equal(t, 4, passed)

	rl.Handle(textUpdate(7, 70, "q"), next)
	assert.Equal(t, 4, passed)
	assert.Len(t, bot.texts, 1, "warnings are throttled")
}

func TestRateLimiter_CleanupForgetsIdleUsers(t *testing.T) {
	rl := NewRateLimiterMiddleware(60, 1, zap.NewNop(), &recordingSender{})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Handle(textUpdate(7, 70, "q"), func(tgbotapi.Update) {})
	require.Len(t, rl.limits, 1)

	now = now.Add(2 * time.Hour)
	rl.cleanup()
	assert.Empty(t, rl.limits)
}

func TestAllowlist(t *testing.T) {
	t.Run("empty list allows everyone", func(t *testing.T) {
		bot := &recordingSender{}
		mw := NewAllowlistMiddleware(nil, zap.NewNop(), bot)

		called := false
		mw.Handle(textUpdate(1, 1, "hi"), func(tgbotapi.Update) { called = true })
		assert.True(t, called)
		assert.Empty(t, bot.texts)
	})

	t.Run("listed user passes", func(t *testing.T) {
		mw := NewAllowlistMiddleware([]int64{7}, zap.NewNop(), &recordingSender{})

		called := false
		mw.Handle(textUpdate(7, 70, "hi"), func(tgbotapi.Update) { called = true })
		assert.True(t, called)
	})

	t.Run("other user is refused", func(t *testing.T) {
		bot := &recordingSender{}
		mw := NewAllowlistMiddleware([]int64{7}, zap.NewNop(), bot)

		called := false
		mw.Handle(textUpdate(8, 80, "hi"), func(tgbotapi.Update) { called = true })
		assert.False(t, called)
		assert.Equal(t, []string{msgAccessDenied}, bot.texts)
	})
}

func TestRecovery_NotifiesChat(t *testing.T) {
	bot := &recordingSender{}
	mw := NewRecoveryMiddleware(zap.NewNop(), bot)

	assert.NotPanics(t, func() {
		mw.Handle(textUpdate(7, 70, "hi"), func(tgbotapi.Update) { panic("boom") })
	})
	assert.Equal(t, []string{msgPanic}, bot.texts)
}

type orderMW struct {
	name  string
	trace *[]string
}

func (m orderMW) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	*m.trace = append(*m.trace, m.name)
	next(update)
}

func TestChain_Order(t *testing.T) {
	var trace []string
	Chain(textUpdate(1, 1, "hi"), func(tgbotapi.Update) {
		trace = append(trace, "final")
	}, orderMW{"a", &trace}, orderMW{"b", &trace}, NewLoggingMiddleware(zap.NewNop()))

	assert.Equal(t, []string{"a", "b", "final"}, trace)
}
