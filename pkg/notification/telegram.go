// Package notification provides the chat transports of pricewatch
package notification

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/raykavin/pricewatch/pkg/command"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/samber/lo"
	tb "gopkg.in/tucnak/telebot.v2"
)

// Telegram accepts bot commands and delivers watch alerts
type Telegram struct {
	ctx         context.Context
	settings    core.TelegramSettings
	dispatcher  *command.Dispatcher
	defaultMenu *tb.ReplyMarkup
	client      *tb.Bot
	log         logger.Logger
}

// chatRecipient addresses a chat by its numeric id
type chatRecipient int64

func (c chatRecipient) Recipient() string {
	return strconv.FormatInt(int64(c), 10)
}

// slash commands must be lowercase for the bot menu
var menuCommand = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// NewTelegram creates and initializes a new Telegram service
func NewTelegram(
	ctx context.Context,
	dispatcher *command.Dispatcher,
	settings core.TelegramSettings,
	log logger.Logger,
) (*Telegram, error) {
	menu := &tb.ReplyMarkup{ResizeReplyKeyboard: true}
	poller := &tb.LongPoller{Timeout: 10 * time.Second}
	log = log.WithField("component", "telegram")

	client, err := tb.NewBot(tb.Settings{
		URL:    settings.APIURL,
		Token:  settings.Token,
		Poller: tb.NewMiddlewarePoller(poller, authorize(settings.Users, log)),
		Reporter: func(err error) {
			log.WithError(err).Error("telegram poller error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	setupKeyboard(menu)
	if err := client.SetCommands(menuCommands(dispatcher.Commands())); err != nil {
		return nil, fmt.Errorf("failed to set commands: %w", err)
	}

	bot := &Telegram{
		ctx:         ctx,
		settings:    settings,
		dispatcher:  dispatcher,
		defaultMenu: menu,
		client:      client,
		log:         log,
	}

	for _, endpoint := range endpoints(dispatcher.Commands()) {
		client.Handle(endpoint, bot.handle)
	}
	// keyword spellings such as "Start" arrive as plain text
	client.Handle(tb.OnText, bot.handle)

	return bot, nil
}

// authorize drops updates from users outside the allow-list; an empty list allows everyone
func authorize(users []int64, log logger.Logger) func(u *tb.Update) bool {
	return func(u *tb.Update) bool {
		if u.Message == nil || u.Message.Sender == nil {
			return false
		}

		if len(users) == 0 || lo.Contains(users, int64(u.Message.Sender.ID)) {
			return true
		}

		log.WithField("user", u.Message.Sender.ID).Warn("unauthorized user")
		return false
	}
}

// setupKeyboard configures the reply keyboard layout
func setupKeyboard(menu *tb.ReplyMarkup) {
	var (
		priceBtn      = menu.Text("/" + command.CmdPrice)
		statusBtn     = menu.Text("/" + command.CmdStatus)
		startWatchBtn = menu.Text("/" + command.CmdStartWatch)
		stopWatchBtn  = menu.Text("/" + command.CmdStopWatch)
	)

	menu.Reply(
		menu.Row(priceBtn, statusBtn),
		menu.Row(startWatchBtn, stopWatchBtn),
	)
}

// menuCommands converts dispatcher commands to the bot menu
func menuCommands(commands []command.Command) []tb.Command {
	return lo.Map(commands, func(c command.Command, _ int) tb.Command {
		return tb.Command{Text: c.Name, Description: c.Description}
	})
}

// endpoints lists every slash spelling the bot must route
func endpoints(commands []command.Command) []string {
	var out []string
	for _, c := range commands {
		out = append(out, "/"+c.Name)
		for _, alias := range c.Aliases {
			if menuCommand.MatchString(alias) {
				out = append(out, "/"+alias)
			}
		}
	}
	return out
}

// handle answers any routed message through the dispatcher
func (t *Telegram) handle(m *tb.Message) {
	if m.Chat == nil {
		return
	}

	reply := t.dispatcher.Handle(t.ctx, command.Request{ChatID: m.Chat.ID, Text: m.Text})
	if reply == "" {
		return
	}

	if _, err := t.client.Send(m.Chat, reply, t.defaultMenu); err != nil {
		t.log.WithError(err).WithField("chat_id", m.Chat.ID).Error("failed to send message")
	}
}

// Notify implements core.Notifier
func (t *Telegram) Notify(_ context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return fmt.Errorf("telegram: no chat bound, send /start first")
	}

	if _, err := t.client.Send(chatRecipient(chatID), text); err != nil {
		return fmt.Errorf("telegram: send to %d: %w", chatID, err)
	}
	return nil
}

// Start begins polling and greets the bound chat, if any
func (t *Telegram) Start() {
	go t.client.Start()
	t.log.Info("Bot initialized.")

	if chatID := t.dispatcher.BoundChat(); chatID != 0 {
		if _, err := t.client.Send(chatRecipient(chatID), "Bot initialized.", t.defaultMenu); err != nil {
			t.log.WithError(err).Warn("failed to greet bound chat")
		}
	}
}

// Stop ends polling
func (t *Telegram) Stop() {
	t.client.Stop()
}
