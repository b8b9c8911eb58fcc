package core

import (
	"math"
	"strconv"
)

// Direction tells whether the price move favours the recorded trade
type Direction string

const (
	DirectionGain Direction = "gain"
	DirectionLoss Direction = "loss"
)

// Deviation is the percentage change between the reference and the current price
type Deviation struct {
	Percent   float64
	Direction Direction
}

// ComputeDeviation returns the percentage change from reference to current.
// A rise is a gain for a bought position and a loss for a sold one.
func ComputeDeviation(reference, current float64, side Side) (Deviation, error) {
	if err := ValidatePrice(reference); err != nil {
		return Deviation{}, err
	}

	if err := ValidatePrice(current); err != nil {
		return Deviation{}, err
	}

	if _, err := ParseSide(string(side)); err != nil {
		return Deviation{}, err
	}

	percent := (current - reference) / reference * 100

	rising := percent >= 0
	direction := DirectionLoss
	if rising == (side == SideBought) {
		direction = DirectionGain
	}

	return Deviation{Percent: percent, Direction: direction}, nil
}

// Magnitude is the absolute percentage
func (d Deviation) Magnitude() float64 {
	return math.Abs(d.Percent)
}

// Exceeds reports whether the move reached the alert threshold
func (d Deviation) Exceeds(threshold float64) bool {
	return d.Magnitude() >= threshold
}

// Rising reports whether the price went up or stayed flat
func (d Deviation) Rising() bool {
	return d.Percent >= 0
}

// FormatPercent renders the magnitude with two decimals; the sign is carried by Direction
func (d Deviation) FormatPercent() string {
	return strconv.FormatFloat(d.Magnitude(), 'f', 2, 64)
}

// FormatPrice renders a price the way users typed it, without trailing zeros
func FormatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
