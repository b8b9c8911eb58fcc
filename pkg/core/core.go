package core

import (
	"context"
)

// PriceFeed provides the live market price of the watched asset
type PriceFeed interface {
	LastQuote(ctx context.Context) (Quote, error)
}

// PositionStore keeps the single recorded trade
type PositionStore interface {
	// RecordPosition overwrites the stored position
	RecordPosition(ctx context.Context, side Side, price float64) error

	// Position returns the stored position, or nil when nothing was recorded
	Position(ctx context.Context) (*Position, error)

	Close() error
}

// Notifier delivers proactive messages to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// NotifierWithStart is a notifier that also owns a long-running receive loop
type NotifierWithStart interface {
	Notifier
	Start()
	Stop()
}
