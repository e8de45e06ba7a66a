// Package slippage implements the slippage, price-impact and deadline
// guards of spec.md §4.2: pure functions over reserves and amounts,
// built on the widened arithmetic in fixedpoint.
package slippage

import (
	"fmt"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/fixedpoint"
	"github.com/holiman/uint256"
)

// MaxSlippageBPS is the hard cap on any slippage tolerance a caller may
// request (50%).
const MaxSlippageBPS uint64 = 5000

// DefaultPriceImpactBPS is the suggested default price-impact ceiling
// (5%) a host may enforce via EnforcePriceImpact; the core itself never
// applies a default, it only offers the calculation and the guard.
const DefaultPriceImpactBPS uint64 = 500

// CalculateMinOutput returns the minimum acceptable output for a swap
// expected to return `expected`, given a slippage tolerance in basis
// points. Fails if slipBPS exceeds MaxSlippageBPS.
func CalculateMinOutput(expected, slipBPS uint64) (uint64, error) {
	if slipBPS > MaxSlippageBPS {
		return 0, fmt.Errorf("%w: %d bps exceeds max %d bps", ammerrors.ErrInvalidSlippageTolerance, slipBPS, MaxSlippageBPS)
	}
	return expected - fixedpoint.BPSOf(expected, slipBPS), nil
}

// CalculateMaxInput returns the maximum acceptable input for a swap
// expected to require `expected`, given a slippage tolerance in basis
// points. Fails if slipBPS exceeds MaxSlippageBPS.
func CalculateMaxInput(expected, slipBPS uint64) (uint64, error) {
	if slipBPS > MaxSlippageBPS {
		return 0, fmt.Errorf("%w: %d bps exceeds max %d bps", ammerrors.ErrInvalidSlippageTolerance, slipBPS, MaxSlippageBPS)
	}
	return expected + fixedpoint.BPSOf(expected, slipBPS), nil
}

// EnforceMinOutput fails with ErrSlippageExceeded if actual is below min.
func EnforceMinOutput(actual, min uint64) error {
	if actual < min {
		return fmt.Errorf("%w: got %d, required at least %d", ammerrors.ErrSlippageExceeded, actual, min)
	}
	return nil
}

// EnforceMaxInput fails with ErrSlippageExceeded if actual exceeds max.
func EnforceMaxInput(actual, max uint64) error {
	if actual > max {
		return fmt.Errorf("%w: got %d, allowed at most %d", ammerrors.ErrSlippageExceeded, actual, max)
	}
	return nil
}

// CalculatePriceImpact returns the price impact of a trade, in basis
// points: |reserveOut*amountIn - amountOut*reserveIn| * BPS / (reserveOut*amountIn).
// Returns 0 if reserveIn or amountIn is zero (spec.md §4.2).
func CalculatePriceImpact(reserveIn, reserveOut, amountIn, amountOut uint64) uint64 {
	if reserveIn == 0 || amountIn == 0 {
		return 0
	}

	lhs := new(uint256.Int).Mul(uint256.NewInt(reserveOut), uint256.NewInt(amountIn))
	rhs := new(uint256.Int).Mul(uint256.NewInt(amountOut), uint256.NewInt(reserveIn))

	var diff uint256.Int
	if lhs.Cmp(rhs) >= 0 {
		diff.Sub(lhs, rhs)
	} else {
		diff.Sub(rhs, lhs)
	}

	diff.Mul(&diff, uint256.NewInt(fixedpoint.BPSDenominator))
	return fixedpoint.DivideWidenedByWidened(&diff, lhs)
}

// EnforcePriceImpact fails with ErrPriceImpactTooHigh if the computed
// impact exceeds maxImpactBPS.
func EnforcePriceImpact(reserveIn, reserveOut, amountIn, amountOut, maxImpactBPS uint64) error {
	impact := CalculatePriceImpact(reserveIn, reserveOut, amountIn, amountOut)
	if impact > maxImpactBPS {
		return fmt.Errorf("%w: %d bps exceeds max %d bps", ammerrors.ErrPriceImpactTooHigh, impact, maxImpactBPS)
	}
	return nil
}

// EnforceDeadline fails with ErrDeadlineExpired if now is past deadline.
// now and deadline share whatever clock the caller wires in (epoch
// seconds, block timestamp, ...); the inequality is the same either way.
func EnforceDeadline(now, deadline uint64) error {
	if now > deadline {
		return fmt.Errorf("%w: now=%d deadline=%d", ammerrors.ErrDeadlineExpired, now, deadline)
	}
	return nil
}
