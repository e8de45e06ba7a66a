package slippage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMinOutput(t *testing.T) {
	min, err := CalculateMinOutput(100_000, 100) // 1%
	require.NoError(t, err)
	assert.Equal(t, uint64(99_000), min)
	assert.LessOrEqual(t, min, uint64(100_000)) // P8
}

func TestCalculateMinOutputRejectsExcessiveTolerance(t *testing.T) {
	_, err := CalculateMinOutput(100_000, 5001)
	require.Error(t, err)
}

func TestCalculateMaxInput(t *testing.T) {
	max, err := CalculateMaxInput(100_000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(101_000), max)
}

func TestEnforceMinOutput(t *testing.T) {
	require.NoError(t, EnforceMinOutput(100, 100))
	require.NoError(t, EnforceMinOutput(101, 100))
	require.Error(t, EnforceMinOutput(99, 100)) // P8: fails iff actual < min
}

func TestEnforceMaxInput(t *testing.T) {
	require.NoError(t, EnforceMaxInput(100, 100))
	require.Error(t, EnforceMaxInput(101, 100))
}

func TestCalculatePriceImpactZeroGuards(t *testing.T) {
	assert.Equal(t, uint64(0), CalculatePriceImpact(0, 1000, 100, 50))
	assert.Equal(t, uint64(0), CalculatePriceImpact(1000, 1000, 0, 0))
}

func TestCalculatePriceImpactNoImpactForExactQuote(t *testing.T) {
	// reserveOut*amountIn == amountOut*reserveIn => zero impact
	impact := CalculatePriceImpact(1000, 2000, 10, 20)
	assert.Equal(t, uint64(0), impact)
}

func TestCalculatePriceImpactNonZero(t *testing.T) {
	impact := CalculatePriceImpact(1_000_000, 1_000_000, 100_000, 90_000)
	assert.Greater(t, impact, uint64(0))
}

func TestEnforceDeadline(t *testing.T) {
	require.NoError(t, EnforceDeadline(100, 100))
	require.NoError(t, EnforceDeadline(99, 100))
	require.Error(t, EnforceDeadline(101, 100))
}
