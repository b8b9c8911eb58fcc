package notification

import (
	"context"
	"errors"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
)

// Fanout delivers every message to all notifiers; one failure does not stop the others
type Fanout struct {
	notifiers []core.Notifier
	log       logger.Logger
}

// NewFanout creates a notifier that forwards to notifiers in order
func NewFanout(log logger.Logger, notifiers ...core.Notifier) *Fanout {
	return &Fanout{notifiers: notifiers, log: log}
}

// Add registers another notifier
func (f *Fanout) Add(n core.Notifier) {
	f.notifiers = append(f.notifiers, n)
}

// Notify implements core.Notifier
func (f *Fanout) Notify(ctx context.Context, chatID int64, text string) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, chatID, text); err != nil {
			f.log.WithError(err).Error("failed to send notification")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
