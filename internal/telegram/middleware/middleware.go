package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Middleware interface {
	Handle(update tgbotapi.Update, next func(tgbotapi.Update))
}

// Chain runs update through mws in order and then hands it to final.
func Chain(update tgbotapi.Update, final func(tgbotapi.Update), mws ...Middleware) {
	if len(mws) == 0 {
		final(update)
		return
	}
	mws[0].Handle(update, func(u tgbotapi.Update) {
		Chain(u, final, mws[1:]...)
	})
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// updateIDs extracts the user and chat of an update; ok is false for kinds the bot ignores.
func updateIDs(update tgbotapi.Update) (userID, chatID int64, ok bool) {
	if update.Message == nil {
		return 0, 0, false
	}
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}
	if update.Message.Chat != nil {
		chatID = update.Message.Chat.ID
	}
	return userID, chatID, true
}

func notify(bot sender, chatID int64, text string) error {
	_, err := bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
