// Package watch runs the recurring price check that alerts on large deviations
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	DefaultInterval  = time.Hour
	DefaultThreshold = 5.0
	DefaultSymbol    = "BTC"
)

// State of the scheduler
type State string

const (
	StateIdle     State = "idle"
	StateWatching State = "watching"
)

// Session describes the active watch
type Session struct {
	ID        uuid.UUID
	ChatID    int64
	StartedAt time.Time
}

// Scheduler owns at most one cron entry. Start and Stop are idempotent.
type Scheduler struct {
	ctx       context.Context
	feed      core.PriceFeed
	store     core.PositionStore
	notifier  core.Notifier
	log       logger.Logger
	interval  time.Duration
	threshold float64
	symbol    string

	mu      sync.Mutex
	runner  *cron.Cron
	entry   cron.EntryID
	session *Session
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithInterval sets the time between two checks; zero keeps the default
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithThreshold sets the absolute percentage that triggers an alert; zero keeps the default
func WithThreshold(threshold float64) Option {
	return func(s *Scheduler) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// WithSymbol sets the asset symbol used in alerts
func WithSymbol(symbol string) Option {
	return func(s *Scheduler) {
		if symbol != "" {
			s.symbol = symbol
		}
	}
}

// NewScheduler creates an idle scheduler. ctx bounds every check.
func NewScheduler(
	ctx context.Context,
	feed core.PriceFeed,
	store core.PositionStore,
	notifier core.Notifier,
	log logger.Logger,
	options ...Option,
) *Scheduler {
	s := &Scheduler{
		ctx:       ctx,
		feed:      feed,
		store:     store,
		notifier:  notifier,
		log:       log.WithField("component", "watch"),
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		symbol:    DefaultSymbol,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// State returns the current state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return StateIdle
	}
	return StateWatching
}

// Session returns a copy of the active session, or nil when idle
func (s *Scheduler) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	session := *s.session
	return &session
}

// Interval returns the time between two checks
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Threshold returns the alert threshold in percent
func (s *Scheduler) Threshold() float64 {
	return s.threshold
}

// Start registers the recurring check for chatID. It returns false,
// without touching the running entry, when a watch is already active.
func (s *Scheduler) Start(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return false
	}

	cronLog := cronLogger{s.log}
	runner := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	s.entry = runner.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		s.Check(s.ctx)
	}))
	runner.Start()

	s.runner = runner
	s.session = &Session{ID: uuid.New(), ChatID: chatID, StartedAt: time.Now()}

	s.log.WithFields(map[string]any{
		"session":  s.session.ID.String(),
		"chat_id":  chatID,
		"interval": s.interval.String(),
	}).Info("Started monitoring the price.")

	return true
}

// Stop removes the recurring check. It returns false when already idle.
// A check already in flight completes but its result is discarded.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	runner, session := s.runner, s.session
	if session == nil {
		s.mu.Unlock()
		return false
	}
	runner.Remove(s.entry)
	s.runner, s.session = nil, nil
	s.mu.Unlock()

	// does not wait for a running check, which may itself need the lock
	runner.Stop()

	s.log.WithField("session", session.ID.String()).Info("Stopped monitoring the price.")
	return true
}

// Check runs one tick: fetch, compare, alert. Failures are logged, never returned.
func (s *Scheduler) Check(ctx context.Context) {
	session := s.Session()
	if session == nil {
		return
	}
	log := s.log.WithField("session", session.ID.String())

	alert, err := s.evaluate(ctx)
	if err != nil {
		log.WithError(err).Error("Price check skipped")
		return
	}
	if alert == "" {
		return
	}

	// the watch may have been stopped while the quote was in flight
	if current := s.Session(); current == nil || current.ID != session.ID {
		log.Debug("Watch stopped during check, alert discarded")
		return
	}

	if err := s.notifier.Notify(ctx, session.ChatID, alert); err != nil {
		log.WithError(err).Error("Failed to send price alert")
		return
	}

	log.Info("Price alert sent")
}

// evaluate returns the alert text, or "" when nothing must be sent
func (s *Scheduler) evaluate(ctx context.Context) (string, error) {
	quote, err := s.feed.LastQuote(ctx)
	if err != nil {
		return "", err
	}

	position, err := s.store.Position(ctx)
	if err != nil {
		return "", fmt.Errorf("read position: %w", err)
	}
	if position == nil {
		s.log.Debug("No position recorded.")
		return "", nil
	}

	deviation, err := core.ComputeDeviation(position.Price, quote.Value, position.Side)
	if err != nil {
		return "", err
	}

	if !deviation.Exceeds(s.threshold) {
		s.log.WithFields(map[string]any{
			"price":     quote.Value,
			"reference": position.Price,
			"percent":   deviation.FormatPercent(),
		}).Debug("Deviation below threshold")
		return "", nil
	}

	return FormatAlert(s.symbol, *position, quote.Value, deviation), nil
}

// FormatAlert renders the watch notification
func FormatAlert(symbol string, position core.Position, current float64, d core.Deviation) string {
	tag, verb := "[GAINING]", "gained"
	if d.Direction == core.DirectionLoss {
		tag = "[LOSING]"
	}
	if !d.Rising() {
		verb = "lost"
	}

	return fmt.Sprintf("%s Current %s price %s %s%% from your %s ($%s) and is now $%s.",
		tag, symbol, verb, d.FormatPercent(), position.Side.Noun(),
		core.FormatPrice(position.Price), core.FormatPrice(current))
}

// cronLogger routes cron's own messages to the application logger
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.WithFields(fields(keysAndValues)).Trace(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if err == nil {
		err = errors.New(msg)
	}
	c.log.WithError(err).WithFields(fields(keysAndValues)).Error(msg)
}

func fields(keysAndValues []interface{}) map[string]any {
	out := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
