package pricewatch

import (
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
)

// Option is a functional option for configuring a Bot instance
type Option func(*Bot)

// WithStorage sets the position store, by default it uses a local file called status.json
func WithStorage(store core.PositionStore) Option {
	return func(bot *Bot) {
		bot.store = store
	}
}

// WithFeed replaces the CoinGecko price feed
func WithFeed(feed core.PriceFeed) Option {
	return func(bot *Bot) {
		bot.feed = feed
	}
}

// WithNotifier registers an extra alert notifier, e-mail for instance
func WithNotifier(notifier core.Notifier) Option {
	return func(bot *Bot) {
		bot.notifiers = append(bot.notifiers, notifier)
	}
}

// WithLogger sets the logger used by every component
func WithLogger(log logger.Logger) Option {
	return func(bot *Bot) {
		bot.log = log
	}
}

// WithAutoStart starts watching chatID as soon as the bot runs.
// A zero chatID falls back to the chat bound by /start or CHAT_ID.
func WithAutoStart(chatID int64) Option {
	return func(bot *Bot) {
		bot.autoStart = true
		bot.autoStartChat = chatID
	}
}
