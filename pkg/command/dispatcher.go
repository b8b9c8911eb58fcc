// Package command maps chat commands to position, quote and watch operations
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/samber/lo"
	"github.com/xhit/go-str2duration/v2"
)

// Canonical command names
const (
	CmdStart      = "start"
	CmdHelp       = "help"
	CmdPrice      = "price"
	CmdStatus     = "status"
	CmdBuy        = "buy"
	CmdSell       = "sell"
	CmdStartWatch = "startwatch"
	CmdStopWatch  = "stopwatch"
)

// Fixed replies
const (
	MsgNoRecord      = "No purchase or sale record found."
	MsgFeedFailure   = "Sorry, I couldn't fetch the price at the moment."
	MsgStoreFailure  = "Sorry, I couldn't read your record at the moment."
	msgUsage         = "Please provide a valid number as the price. Example: /%s 45000"
	msgRecordFailure = "Sorry, I couldn't process your %s command."
)

// Watcher is the part of the watch scheduler driven by chat commands
type Watcher interface {
	Start(chatID int64) bool
	Stop() bool
	Interval() time.Duration
}

// Request is one inbound chat message
type Request struct {
	ChatID int64
	Text   string
}

// Command describes a registered command for menus and help
type Command struct {
	Name        string
	Description string
	Aliases     []string
}

type handlerFunc func(ctx context.Context, req Request, invoked string, args []string) string

// Dispatcher routes each message to exactly one handler
type Dispatcher struct {
	feed     core.PriceFeed
	store    core.PositionStore
	watcher  Watcher
	log      logger.Logger
	symbol   string
	currency string

	descriptions map[string]string
	handlers     map[string]handlerFunc
	aliases      map[string]string

	mu        sync.RWMutex
	boundChat int64
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithAsset sets the symbol and quote currency used in replies; empty values keep BTC and usd
func WithAsset(symbol, currency string) Option {
	return func(d *Dispatcher) {
		if symbol != "" {
			d.symbol = symbol
		}
		if currency != "" {
			d.currency = currency
		}
	}
}

// WithAlias makes alias behave like command
func WithAlias(alias, command string) Option {
	return func(d *Dispatcher) {
		d.aliases[alias] = command
	}
}

// WithBoundChat sets the chat bound before any /start
func WithBoundChat(chatID int64) Option {
	return func(d *Dispatcher) {
		d.boundChat = chatID
	}
}

// NewDispatcher creates a dispatcher with the default command spellings
func NewDispatcher(
	feed core.PriceFeed,
	store core.PositionStore,
	watcher Watcher,
	log logger.Logger,
	options ...Option,
) *Dispatcher {
	d := &Dispatcher{
		feed:     feed,
		store:    store,
		watcher:  watcher,
		log:      log.WithField("component", "command"),
		symbol:   "BTC",
		currency: "usd",
		aliases: map[string]string{
			"Start":  CmdStart,
			"p":      CmdPrice,
			"s":      CmdStatus,
			"Status": CmdStatus,
			"bought": CmdBuy,
			"b":      CmdBuy,
			"sold":   CmdSell,
		},
	}

	d.handlers = map[string]handlerFunc{
		CmdStart:      d.start,
		CmdHelp:       d.help,
		CmdPrice:      d.price,
		CmdStatus:     d.status,
		CmdBuy:        d.record(core.SideBought),
		CmdSell:       d.record(core.SideSold),
		CmdStartWatch: d.startWatch,
		CmdStopWatch:  d.stopWatch,
	}

	for _, option := range options {
		option(d)
	}

	d.descriptions = map[string]string{
		CmdStart:      "Start the bot and get a welcome message",
		CmdHelp:       "Display available commands",
		CmdPrice:      fmt.Sprintf("Get current %s price", d.symbol),
		CmdStatus:     fmt.Sprintf("Check your %s purchase or sale against the current price", d.symbol),
		CmdBuy:        fmt.Sprintf("Record the purchase price of %s", d.symbol),
		CmdSell:       fmt.Sprintf("Record the sale price of %s", d.symbol),
		CmdStartWatch: "Start monitoring the price change",
		CmdStopWatch:  "Stop monitoring the price change",
	}

	return d
}

// BoundChat returns the chat bound by the last /start, or the configured default
func (d *Dispatcher) BoundChat() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.boundChat
}

// Commands lists the canonical commands in menu order
func (d *Dispatcher) Commands() []Command {
	order := []string{CmdStart, CmdHelp, CmdPrice, CmdStatus, CmdBuy, CmdSell, CmdStartWatch, CmdStopWatch}

	return lo.Map(order, func(name string, _ int) Command {
		aliases := lo.Filter(lo.Keys(d.aliases), func(alias string, _ int) bool {
			return d.aliases[alias] == name
		})
		sort.Strings(aliases)
		return Command{Name: name, Description: d.descriptions[name], Aliases: aliases}
	})
}

// Handle returns the reply for req; unknown commands yield an empty reply
func (d *Dispatcher) Handle(ctx context.Context, req Request) string {
	invoked, args, ok := parse(req.Text)
	if !ok {
		return ""
	}

	name := invoked
	if canonical, isAlias := d.aliases[invoked]; isAlias {
		name = canonical
	}

	handler, found := d.handlers[name]
	if !found {
		return ""
	}

	d.log.WithFields(map[string]any{
		"chat_id": req.ChatID,
		"command": name,
	}).Debug("Handling command")

	return handler(ctx, req, invoked, args)
}

// parse splits "/cmd@bot arg ..." into the command word and its arguments
func parse(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", nil, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}

	return name, fields[1:], true
}

func (d *Dispatcher) start(_ context.Context, req Request, _ string, _ []string) string {
	d.mu.Lock()
	d.boundChat = req.ChatID
	d.mu.Unlock()

	d.log.WithField("chat_id", req.ChatID).Info("Chat bound")

	var sb strings.Builder
	sb.WriteString("Welcome to the Telegram bot! Here are the available commands:\n")
	sb.WriteString(d.commandList())
	return sb.String()
}

func (d *Dispatcher) help(context.Context, Request, string, []string) string {
	return d.commandList()
}

func (d *Dispatcher) commandList() string {
	lines := lo.Map(d.Commands(), func(c Command, _ int) string {
		usage := "/" + c.Name
		if c.Name == CmdBuy || c.Name == CmdSell {
			usage += " <price>"
		}
		if len(c.Aliases) > 0 {
			usage += " (" + strings.Join(lo.Map(c.Aliases, func(a string, _ int) string { return "/" + a }), ", ") + ")"
		}
		return fmt.Sprintf("  %s - %s", usage, c.Description)
	})
	return strings.Join(lines, "\n")
}

func (d *Dispatcher) price(ctx context.Context, _ Request, _ string, _ []string) string {
	quote, err := d.feed.LastQuote(ctx)
	if err != nil {
		d.log.WithError(err).Error("Failed to fetch price")
		return MsgFeedFailure
	}

	return fmt.Sprintf("The current %s price is %s %s", d.symbol, core.FormatPrice(quote.Value), d.currency)
}

func (d *Dispatcher) status(ctx context.Context, _ Request, _ string, _ []string) string {
	position, err := d.store.Position(ctx)
	if err != nil {
		d.log.WithError(err).Error("Failed to read position")
		return MsgStoreFailure
	}
	if position == nil {
		return MsgNoRecord
	}

	quote, err := d.feed.LastQuote(ctx)
	if err != nil {
		d.log.WithError(err).Error("Failed to fetch price")
		return MsgFeedFailure
	}

	deviation, err := core.ComputeDeviation(position.Price, quote.Value, position.Side)
	if err != nil {
		d.log.WithError(err).Error("Failed to compute deviation")
		return MsgStoreFailure
	}

	return FormatStatus(d.symbol, *position, quote.Value, deviation)
}

// FormatStatus renders the /status reply
func FormatStatus(symbol string, position core.Position, current float64, d core.Deviation) string {
	tag := "[GAIN]"
	if d.Direction == core.DirectionLoss {
		tag = "[LOSS]"
	}

	move := "grew"
	if !d.Rising() {
		move = "fell"
	}

	return fmt.Sprintf("%s You %s %s for %s, since then it %s by %s%% and is now %s.",
		tag, position.Side.Verb(), symbol, core.FormatPrice(position.Price),
		move, d.FormatPercent(), core.FormatPrice(current))
}

func (d *Dispatcher) record(side core.Side) handlerFunc {
	command := CmdBuy
	if side == core.SideSold {
		command = CmdSell
	}

	return func(ctx context.Context, req Request, invoked string, args []string) string {
		price, err := parsePrice(args)
		if err != nil {
			return fmt.Sprintf(msgUsage, invoked)
		}

		if err := d.store.RecordPosition(ctx, side, price); err != nil {
			d.log.WithError(err).WithField("side", side).Error("Failed to record position")
			if errors.Is(err, core.ErrInvalidPrice) {
				return fmt.Sprintf(msgUsage, invoked)
			}
			return fmt.Sprintf(msgRecordFailure, command)
		}

		d.log.WithFields(map[string]any{
			"chat_id": req.ChatID,
			"side":    side,
			"price":   price,
		}).Info("Position recorded")

		return fmt.Sprintf("Recorded %s of %s at $%s", side.Noun(), d.symbol, core.FormatPrice(price))
	}
}

// parsePrice accepts exactly one positive decimal argument, optionally prefixed by $
func parsePrice(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: expected one argument", core.ErrInvalidPrice)
	}

	price, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "$"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidPrice, err)
	}

	if err := core.ValidatePrice(price); err != nil {
		return 0, err
	}

	return price, nil
}

func (d *Dispatcher) startWatch(_ context.Context, req Request, _ string, _ []string) string {
	if !d.watcher.Start(req.ChatID) {
		return fmt.Sprintf("Already monitoring the %s price.", d.symbol)
	}

	return fmt.Sprintf("Started monitoring the %s price (every %s).",
		d.symbol, str2duration.String(d.watcher.Interval()))
}

func (d *Dispatcher) stopWatch(context.Context, Request, string, []string) string {
	if !d.watcher.Stop() {
		return fmt.Sprintf("Not monitoring the %s price.", d.symbol)
	}

	return fmt.Sprintf("Stopped monitoring the %s price.", d.symbol)
}
