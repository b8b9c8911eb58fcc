package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestComputeDeviation(t *testing.T) {
	tests := []struct {
		name      string
		reference float64
		current   float64
		side      Side
		percent   float64
		direction Direction
		fires     bool
	}{
		{"bought rise", 40000, 42000, SideBought, 5, DirectionGain, true},
		{"sold rise", 40000, 42000, SideSold, 5, DirectionLoss, true},
		{"bought small rise", 40000, 41000, SideBought, 2.5, DirectionGain, false},
		{"bought drop", 40000, 36000, SideBought, -10, DirectionLoss, true},
		{"sold drop", 40000, 36000, SideSold, -10, DirectionGain, true},
		{"bought flat", 40000, 40000, SideBought, 0, DirectionGain, false},
		{"sold flat", 40000, 40000, SideSold, 0, DirectionLoss, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ComputeDeviation(tt.reference, tt.current, tt.side)
			require.NoError(t, err)
			assert.InDelta(t, tt.percent, d.Percent, 1e-9)
			assert.Equal(t, tt.direction, d.Direction)
			assert.Equal(t, tt.fires, d.Exceeds(5))
		})
	}
}

func TestComputeDeviation_SoldInvertsBought(t *testing.T) {
	pairs := [][2]float64{{40000, 42000}, {40000, 39999.99}, {1, 1}, {0.5, 100}, {100, 0.5}}
	for _, p := range pairs {
		bought, err := ComputeDeviation(p[0], p[1], SideBought)
		require.NoError(t, err)
		sold, err := ComputeDeviation(p[0], p[1], SideSold)
		require.NoError(t, err)

		assert.Equal(t, bought.Percent, sold.Percent)
		assert.NotEqual(t, bought.Direction, sold.Direction)
	}
}

func TestComputeDeviation_ZeroIffEqual(t *testing.T) {
	d, err := ComputeDeviation(123.45, 123.45, SideBought)
	require.NoError(t, err)
	assert.Zero(t, d.Percent)

	d, err = ComputeDeviation(123.45, 123.46, SideBought)
	require.NoError(t, err)
	assert.NotZero(t, d.Percent)
}

func TestComputeDeviation_InvalidPrice(t *testing.T) {
	invalid := []float64{0, -1, math.NaN(), math.Inf(1)}
	for _, v := range invalid {
		_, err := ComputeDeviation(v, 100, SideBought)
		require.ErrorIs(t, err, ErrInvalidPrice)

		_, err = ComputeDeviation(100, v, SideBought)
		require.ErrorIs(t, err, ErrInvalidPrice)
	}

	_, err := ComputeDeviation(100, 110, Side("held"))
	require.Error(t, err)
}

func TestDeviation_FormatPercent(t *testing.T) {
	d := Deviation{Percent: -3.14159, Direction: DirectionLoss}
	assert.Equal(t, "3.14", d.FormatPercent())
	assert.False(t, d.Rising())

	d = Deviation{Percent: 5}
	assert.Equal(t, "5.00", d.FormatPercent())
	assert.True(t, d.Exceeds(5))
}

func TestNewPosition(t *testing.T) {
	p, err := NewPosition(SideSold, 45000, fixedTime)
	require.NoError(t, err)
	assert.Equal(t, SideSold, p.Side)
	assert.Equal(t, 45000.0, p.Price)
	require.NoError(t, p.Validate())

	_, err = NewPosition(SideBought, 0, fixedTime)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ParseSide("Bought")
	require.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "45000", FormatPrice(45000))
	assert.Equal(t, "45000.5", FormatPrice(45000.50))
}
