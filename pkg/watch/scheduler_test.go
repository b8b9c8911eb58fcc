package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger/zerolog"
	"github.com/raykavin/pricewatch/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = 1001

type fakeFeed struct {
	mu      sync.Mutex
	price   float64
	err     error
	calls   int
	onQuote func()
}

func (f *fakeFeed) LastQuote(context.Context) (core.Quote, error) {
	f.mu.Lock()
	f.calls++
	price, err, hook := f.price, f.err, f.onQuote
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return core.Quote{}, err
	}
	return core.Quote{Value: price, FetchedAt: time.Now()}, nil
}

func (f *fakeFeed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type message struct {
	chatID int64
	text   string
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []message
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message{chatID, text})
	return nil
}

func (n *recordingNotifier) Messages() []message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]message(nil), n.messages...)
}

func newScheduler(t *testing.T, feed *fakeFeed, options ...Option) (*Scheduler, *storage.MemoryStorage, *recordingNotifier) {
	t.Helper()
	store := storage.FromMemory()
	notifier := &recordingNotifier{}
	s := NewScheduler(context.Background(), feed, store, notifier, zerolog.Nop(), options...)
	t.Cleanup(func() { s.Stop() })
	return s, store, notifier
}

func TestScheduler_StartStop(t *testing.T) {
	s, _, _ := newScheduler(t, &fakeFeed{price: 1})
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Session())

	require.True(t, s.Start(chatID))
	session := s.Session()
	require.NotNil(t, session)

	require.False(t, s.Start(2002))
	assert.Equal(t, StateWatching, s.State())
	assert.Equal(t, session.ID, s.Session().ID)
	assert.Equal(t, chatID, s.Session().ChatID)

	require.True(t, s.Stop())
	assert.Equal(t, StateIdle, s.State())

	require.False(t, s.Stop())
	assert.Equal(t, StateIdle, s.State())

	require.True(t, s.Start(2002))
	assert.Equal(t, int64(2002), s.Session().ChatID)
}

func TestScheduler_Check(t *testing.T) {
	tests := []struct {
		name    string
		side    core.Side
		current float64
		alert   string
	}{
		{
			name:    "bought gain",
			side:    core.SideBought,
			current: 42000,
			alert:   "[GAINING] Current BTC price gained 5.00% from your purchase ($40000) and is now $42000.",
		},
		{
			name:    "bought loss",
			side:    core.SideBought,
			current: 36000,
			alert:   "[LOSING] Current BTC price lost 10.00% from your purchase ($40000) and is now $36000.",
		},
		{
			name:    "sold rise",
			side:    core.SideSold,
			current: 42000,
			alert:   "[LOSING] Current BTC price gained 5.00% from your sale ($40000) and is now $42000.",
		},
		{
			name:    "sold drop",
			side:    core.SideSold,
			current: 37000.5,
			alert:   "[GAINING] Current BTC price lost 7.50% from your sale ($40000) and is now $37000.5.",
		},
		{
			name:    "below threshold",
			side:    core.SideBought,
			current: 41000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, notifier := newScheduler(t, &fakeFeed{price: tt.current})
			require.NoError(t, store.RecordPosition(context.Background(), tt.side, 40000))
			require.True(t, s.Start(chatID))

			s.Check(context.Background())

			if tt.alert == "" {
				assert.Empty(t, notifier.Messages())
				return
			}
			assert.Equal(t, []message{{chatID, tt.alert}}, notifier.Messages())
		})
	}
}

func TestScheduler_CheckWithoutPosition(t *testing.T) {
	feed := &fakeFeed{price: 42000}
	s, _, notifier := newScheduler(t, feed)
	require.True(t, s.Start(chatID))

	s.Check(context.Background())
	assert.Equal(t, 1, feed.Calls())
	assert.Empty(t, notifier.Messages())
}

func TestScheduler_FeedFailureKeepsWatching(t *testing.T) {
	feed := &fakeFeed{err: fmt.Errorf("%w: timeout", core.ErrFeedUnavailable)}
	s, store, notifier := newScheduler(t, feed)
	require.NoError(t, store.RecordPosition(context.Background(), core.SideBought, 40000))
	require.True(t, s.Start(chatID))

	s.Check(context.Background())
	assert.Empty(t, notifier.Messages())
	assert.Equal(t, StateWatching, s.State())
}

func TestScheduler_CheckWhileIdle(t *testing.T) {
	feed := &fakeFeed{price: 42000}
	s, _, notifier := newScheduler(t, feed)

	s.Check(context.Background())
	assert.Zero(t, feed.Calls())
	assert.Empty(t, notifier.Messages())
}

func TestScheduler_StopDuringCheckDiscardsAlert(t *testing.T) {
	feed := &fakeFeed{price: 50000}
	s, store, notifier := newScheduler(t, feed)
	feed.onQuote = func() { s.Stop() }
	require.NoError(t, store.RecordPosition(context.Background(), core.SideBought, 40000))
	require.True(t, s.Start(chatID))

	s.Check(context.Background())
	assert.Empty(t, notifier.Messages())
	assert.Equal(t, StateIdle, s.State())
}

func TestScheduler_Threshold(t *testing.T) {
	s, store, notifier := newScheduler(t, &fakeFeed{price: 41000}, WithThreshold(2.5), WithSymbol("ETH"))
	require.NoError(t, store.RecordPosition(context.Background(), core.SideBought, 40000))
	require.True(t, s.Start(chatID))

	s.Check(context.Background())
	require.Len(t, notifier.Messages(), 1)
	assert.Contains(t, notifier.Messages()[0].text, "Current ETH price gained 2.50%")
}

func TestScheduler_Ticks(t *testing.T) {
	s, store, notifier := newScheduler(t, &fakeFeed{price: 50000}, WithInterval(time.Second))
	require.NoError(t, store.RecordPosition(context.Background(), core.SideBought, 40000))
	require.True(t, s.Start(chatID))

	require.Eventually(t, func() bool {
		return len(notifier.Messages()) > 0
	}, 5*time.Second, 50*time.Millisecond)

	require.True(t, s.Stop())
}

func TestCronLogger_Fields(t *testing.T) {
	out := fields([]interface{}{"entry", 1, "now", "x", "dangling"})
	assert.Equal(t, map[string]any{"entry": 1, "now": "x"}, out)

	// must not panic on a nil error
	cronLogger{zerolog.Nop()}.Error(nil, "panic", "stack", "...")
	cronLogger{zerolog.Nop()}.Error(errors.New("boom"), "job failed")
}

func TestScheduler_ZeroOptionsKeepDefaults(t *testing.T) {
	s, store, notifier := newScheduler(t, &fakeFeed{price: 40001}, WithInterval(0), WithThreshold(0), WithSymbol(""))
	assert.Equal(t, DefaultInterval, s.Interval())
	assert.Equal(t, DefaultThreshold, s.Threshold())

	// a 0.0025% move stays below the default threshold
	require.NoError(t, store.RecordPosition(context.Background(), core.SideBought, 40000))
	require.True(t, s.Start(chatID))
	s.Check(context.Background())
	assert.Empty(t, notifier.Messages())
}
