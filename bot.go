package pricewatch

import (
	"context"
	"fmt"

	"github.com/raykavin/pricewatch/pkg/command"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/feed"
	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/raykavin/pricewatch/pkg/notification"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/raykavin/pricewatch/pkg/watch"
)

// DefaultLog is the default logger instance
var DefaultLog logger.Logger

// Bot wires the price feed, the position store, the watch scheduler and the chat transport
type Bot struct {
	store    core.PositionStore
	feed     core.PriceFeed
	notifier *notification.Fanout
	telegram core.NotifierWithStart
	log      logger.Logger

	settings   core.Settings
	scheduler  *watch.Scheduler
	dispatcher *command.Dispatcher
	notifiers  []core.Notifier
	ownsStore  bool

	autoStart     bool
	autoStartChat int64
}

// NewBot creates a new pricewatch bot with the provided settings and dependencies
func NewBot(ctx context.Context, settings core.Settings, options ...Option) (*Bot, error) {
	bot := &Bot{
		settings: settings,
		log:      DefaultLog,
	}

	for _, option := range options {
		option(bot)
	}

	if bot.log == nil {
		return nil, fmt.Errorf("pricewatch: no logger configured")
	}

	if err := initializeStorage(bot); err != nil {
		return nil, err
	}

	if bot.feed == nil {
		bot.feed = feed.NewCoinGecko()
	}

	bot.notifier = notification.NewFanout(bot.log, bot.notifiers...)

	bot.scheduler = watch.NewScheduler(ctx, bot.feed, bot.store, bot.notifier, bot.log,
		watch.WithInterval(settings.Watch.Interval),
		watch.WithThreshold(settings.Watch.Threshold),
		watch.WithSymbol(settings.Asset.Symbol),
	)

	bot.dispatcher = command.NewDispatcher(bot.feed, bot.store, bot.scheduler, bot.log,
		command.WithAsset(settings.Asset.Symbol, settings.Asset.Currency),
		command.WithBoundChat(settings.Telegram.ChatID),
	)

	if err := initializeNotifications(ctx, bot); err != nil {
		// a store passed with WithStorage belongs to the caller
		if bot.ownsStore {
			_ = bot.store.Close()
		}
		return nil, err
	}

	return bot, nil
}

// initializeStorage falls back to the status file in the working directory
func initializeStorage(bot *Bot) error {
	if bot.store != nil {
		return nil
	}

	store, err := storage.New(context.Background(), storage.Config{
		Backend: storage.BackendFile,
		Log:     bot.log,
	})
	if err != nil {
		return err
	}
	bot.store = store
	bot.ownsStore = true
	return nil
}

// Dispatcher returns the command dispatcher
func (b *Bot) Dispatcher() *command.Dispatcher {
	return b.dispatcher
}

// Scheduler returns the watch scheduler
func (b *Bot) Scheduler() *watch.Scheduler {
	return b.scheduler
}

// startAtBoot watches the configured chat, or the chat bound with /start
func (b *Bot) startAtBoot() {
	chatID := b.autoStartChat
	if chatID == 0 {
		chatID = b.dispatcher.BoundChat()
	}
	if chatID == 0 {
		b.log.Warn("watch autostart skipped, no chat bound")
		return
	}

	if b.scheduler.Start(chatID) {
		b.log.WithField("chat_id", chatID).Info("watch started at boot")
	}
}

// Run starts the chat transport and blocks until ctx is done, then releases everything
func (b *Bot) Run(ctx context.Context) error {
	if b.telegram != nil {
		b.telegram.Start()
	}

	if b.autoStart {
		b.startAtBoot()
	}

	<-ctx.Done()

	b.scheduler.Stop()
	if b.telegram != nil {
		b.telegram.Stop()
	}

	if err := b.store.Close(); err != nil {
		return fmt.Errorf("pricewatch: close store: %w", err)
	}

	b.log.Info("bot stopped")
	return nil
}
