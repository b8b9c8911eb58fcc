package command

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger/zerolog"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 77

type stubFeed struct {
	price float64
	err   error
	calls int
}

func (f *stubFeed) LastQuote(context.Context) (core.Quote, error) {
	f.calls++
	if f.err != nil {
		return core.Quote{}, f.err
	}
	return core.Quote{Value: f.price, FetchedAt: time.Now()}, nil
}

type stubWatcher struct {
	watching bool
	chatID   int64
	starts   int
}

func (w *stubWatcher) Start(chatID int64) bool {
	w.starts++
	if w.watching {
		return false
	}
	w.watching, w.chatID = true, chatID
	return true
}

func (w *stubWatcher) Stop() bool {
	if !w.watching {
		return false
	}
	w.watching = false
	return true
}

func (w *stubWatcher) Interval() time.Duration {
	return time.Hour
}

type brokenStore struct{}

func (brokenStore) RecordPosition(context.Context, core.Side, float64) error {
	return errors.New("disk full")
}

func (brokenStore) Position(context.Context) (*core.Position, error) {
	return nil, errors.New("disk full")
}

func (brokenStore) Close() error { return nil }

type fixture struct {
	dispatcher *Dispatcher
	feed       *stubFeed
	store      *storage.MemoryStorage
	watcher    *stubWatcher
}

func newFixture(options ...Option) *fixture {
	f := &fixture{
		feed:    &stubFeed{price: 42000},
		store:   storage.FromMemory(),
		watcher: &stubWatcher{},
	}
	f.dispatcher = NewDispatcher(f.feed, f.store, f.watcher, zerolog.Nop(), options...)
	return f
}

func (f *fixture) send(text string) string {
	return f.dispatcher.Handle(context.Background(), Request{ChatID: chatID, Text: text})
}

func TestDispatcher_Price(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "The current BTC price is 42000 usd", f.send("/price"))
	assert.Equal(t, "The current BTC price is 42000 usd", f.send("/p"))

	f.feed.err = fmt.Errorf("%w: status 500", core.ErrFeedUnavailable)
	assert.Equal(t, MsgFeedFailure, f.send("/price"))
}

func TestDispatcher_StatusWithoutRecordSkipsFeed(t *testing.T) {
	f := newFixture()
	assert.Equal(t, MsgNoRecord, f.send("/status"))
	assert.Equal(t, MsgNoRecord, f.send("Status"))
	assert.Zero(t, f.feed.calls)
}

func TestDispatcher_Status(t *testing.T) {
	tests := []struct {
		record  string
		current float64
		reply   string
	}{
		{"/buy 40000", 42000, "[GAIN] You bought BTC for 40000, since then it grew by 5.00% and is now 42000."},
		{"/bought 40000", 38000, "[LOSS] You bought BTC for 40000, since then it fell by 5.00% and is now 38000."},
		{"/sell 40000", 42000, "[LOSS] You sold BTC for 40000, since then it grew by 5.00% and is now 42000."},
		{"/sold 40000", 39000, "[GAIN] You sold BTC for 40000, since then it fell by 2.50% and is now 39000."},
	}

	for _, tt := range tests {
		t.Run(tt.record, func(t *testing.T) {
			f := newFixture()
			f.feed.price = tt.current
			require.NotEmpty(t, f.send(tt.record))
			assert.Equal(t, tt.reply, f.send("/s"))
		})
	}
}

func TestDispatcher_Record(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "Recorded purchase of BTC at $45000", f.send("/buy 45000"))

	p, err := f.store.Position(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, core.SideBought, p.Side)
	assert.Equal(t, 45000.0, p.Price)

	assert.Equal(t, "Recorded sale of BTC at $45100.25", f.send("/sell $45100.25"))
	p, err = f.store.Position(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.SideSold, p.Side)
	assert.Equal(t, 45100.25, p.Price)
}

func TestDispatcher_RecordRejectsInvalidPrice(t *testing.T) {
	inputs := map[string]string{
		"/buy abc":        "/buy 45000",
		"/buy":            "/buy 45000",
		"/buy 0":          "/buy 45000",
		"/buy -10":        "/buy 45000",
		"/buy NaN":        "/buy 45000",
		"/buy 1 2":        "/buy 45000",
		"/bought Inf":     "/bought 45000",
		"/sell 12,5":      "/sell 45000",
		"/b 45000abc":     "/b 45000",
		"/sold something": "/sold 45000",
	}

	for input, example := range inputs {
		t.Run(input, func(t *testing.T) {
			f := newFixture()
			assert.Equal(t, "Please provide a valid number as the price. Example: "+example, f.send(input))

			p, err := f.store.Position(context.Background())
			require.NoError(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestDispatcher_StoreFailure(t *testing.T) {
	d := NewDispatcher(&stubFeed{price: 1}, brokenStore{}, &stubWatcher{}, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, "Sorry, I couldn't process your buy command.", d.Handle(ctx, Request{Text: "/bought 1"}))
	assert.Equal(t, "Sorry, I couldn't process your sell command.", d.Handle(ctx, Request{Text: "/sell 1"}))
	assert.Equal(t, MsgStoreFailure, d.Handle(ctx, Request{Text: "/status"}))
}

func TestDispatcher_Watch(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "Started monitoring the BTC price (every 1h).", f.send("/startwatch"))
	assert.Equal(t, chatID, f.watcher.chatID)
	assert.Equal(t, "Already monitoring the BTC price.", f.send("/startwatch"))

	assert.Equal(t, "Stopped monitoring the BTC price.", f.send("/stopwatch"))
	assert.Equal(t, "Not monitoring the BTC price.", f.send("/stopwatch"))
}

func TestDispatcher_StartBindsChat(t *testing.T) {
	f := newFixture(WithBoundChat(5))
	assert.Equal(t, int64(5), f.dispatcher.BoundChat())

	reply := f.send("/start")
	assert.Contains(t, reply, "Welcome to the Telegram bot!")
	assert.Contains(t, reply, "/buy <price> (/b, /bought) - Record the purchase price of BTC")
	assert.Contains(t, reply, "/startwatch - Start monitoring the price change")
	assert.Equal(t, chatID, f.dispatcher.BoundChat())
}

func TestDispatcher_ParseVariants(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "The current BTC price is 42000 usd", f.send("/price@pricewatch_bot"))
	assert.Equal(t, "The current BTC price is 42000 usd", f.send("  price  "))
	assert.Empty(t, f.send("/PRICE"))
	assert.Empty(t, f.send("hello there"))
	assert.Empty(t, f.send(""))
	assert.Empty(t, f.send("/"))
}

func TestDispatcher_Options(t *testing.T) {
	f := newFixture(WithAsset("ETH", "eur"), WithAlias("q", CmdPrice))
	assert.Equal(t, "The current ETH price is 42000 eur", f.send("/q"))

	commands := f.dispatcher.Commands()
	require.Len(t, commands, 8)
	assert.Equal(t, CmdStart, commands[0].Name)
	assert.Equal(t, []string{"p", "q"}, commands[2].Aliases)
	assert.Equal(t, "Get current ETH price", commands[2].Description)
}

func TestDispatcher_EmptyAssetKeepsDefaults(t *testing.T) {
	f := newFixture(WithAsset("", ""))
	assert.Equal(t, "The current BTC price is 42000 usd", f.send("/price"))

	f = newFixture(WithAsset("ETH", ""))
	assert.Equal(t, "The current ETH price is 42000 usd", f.send("/price"))
}
