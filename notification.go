package pricewatch

import (
	"context"

	"github.com/raykavin/pricewatch/pkg/notification"
)

// initializeNotifications sets up the Telegram transport when a token is configured
func initializeNotifications(ctx context.Context, bot *Bot) error {
	if bot.settings.Telegram.Token == "" {
		bot.log.Warn("no telegram token, running without chat transport")
		return nil
	}

	telegram, err := notification.NewTelegram(ctx, bot.dispatcher, bot.settings.Telegram, bot.log)
	if err != nil {
		return err
	}

	bot.telegram = telegram
	// alerts go to telegram after any extra notifier
	bot.notifier.Add(telegram)
	return nil
}
