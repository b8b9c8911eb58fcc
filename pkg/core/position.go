package core

import (
	"fmt"
	"math"
	"time"
)

// Side is the direction of the recorded trade
type Side string

const (
	SideBought Side = "bought"
	SideSold   Side = "sold"
)

// ParseSide converts the persisted status string into a Side
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBought, SideSold:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Verb returns the past-tense verb used in chat replies
func (s Side) Verb() string {
	if s == SideSold {
		return "sold"
	}
	return "bought"
}

// Noun returns the trade noun used in chat replies
func (s Side) Noun() string {
	if s == SideSold {
		return "sale"
	}
	return "purchase"
}

// Position is the single reference trade compared against the live price
type Position struct {
	Side       Side
	Price      float64
	RecordedAt time.Time
}

// Quote is a freshly fetched market price
type Quote struct {
	Value     float64
	FetchedAt time.Time
}

// ValidatePrice ensures price is a positive finite number
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return nil
}

// NewPosition validates side and price and builds a Position stamped with now
func NewPosition(side Side, price float64, now time.Time) (Position, error) {
	if _, err := ParseSide(string(side)); err != nil {
		return Position{}, err
	}

	if err := ValidatePrice(price); err != nil {
		return Position{}, err
	}

	return Position{Side: side, Price: price, RecordedAt: now}, nil
}

// Validate checks a position read back from storage
func (p Position) Validate() error {
	if _, err := ParseSide(string(p.Side)); err != nil {
		return err
	}
	return ValidatePrice(p.Price)
}
