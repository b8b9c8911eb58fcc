package core

import "errors"

var (
	// ErrFeedUnavailable is returned when the price source is unreachable or returns unusable data
	ErrFeedUnavailable = errors.New("price feed unavailable")

	// ErrInvalidPrice is returned for non-numeric, non-positive, non-finite or missing prices
	ErrInvalidPrice = errors.New("invalid price")
)
