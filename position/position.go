// Package position implements the LP position object of spec.md §4.3:
// an owned record of shares, fee-index cursors and claimed totals bound
// to one pool. Positions are plain mutable structs — mirroring the
// teacher's protocols/uniswapv2.Pool convention of an external package
// mutating named fields directly rather than hiding them behind an
// object graph — created only by Mint, mutated only by the functions in
// this file, and destroyed only by Burn.
package position

import (
	"fmt"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/fixedpoint"
)

// Position is an owned object representing a proportional claim on one
// pool's reserves and accrued fees.
type Position struct {
	ID      ammtypes.PositionID
	PoolID  ammtypes.PoolID
	Shares  uint64

	LastFeeIndexA uint64
	LastFeeIndexB uint64

	ClaimedFeesA uint64
	ClaimedFeesB uint64

	InitialAmountA uint64
	InitialAmountB uint64

	CreatedAt uint64
	Name      []byte
}

// Mint creates a new position bound to poolID with an initial share
// count and fee-index cursors taken from the pool at mint time, so that
// CalculatePendingFees is zero until the pool's indices move forward
// again.
func Mint(id ammtypes.PositionID, poolID ammtypes.PoolID, shares, feeIndexA, feeIndexB, amountA, amountB, createdAt uint64, name []byte) (*Position, error) {
	if shares == 0 {
		return nil, ammerrors.ErrZeroShares
	}
	return &Position{
		ID:             id,
		PoolID:         poolID,
		Shares:         shares,
		LastFeeIndexA:  feeIndexA,
		LastFeeIndexB:  feeIndexB,
		InitialAmountA: amountA,
		InitialAmountB: amountB,
		CreatedAt:      createdAt,
		Name:           name,
	}, nil
}

// Burn destroys the position. The caller must have already reduced
// Shares to zero; spec.md §3 permits burning only once shares == 0 is
// acceptable (i.e. the position has nothing left to claim against).
func Burn(p *Position) error {
	if p.Shares != 0 {
		return fmt.Errorf("%w: position has %d shares remaining", ammerrors.ErrInsufficientShares, p.Shares)
	}
	return nil
}

// AddShares increases the position's share count by delta.
func (p *Position) AddShares(delta uint64) {
	p.Shares += delta
}

// ReduceShares decreases the position's share count by delta, failing
// if delta exceeds the current share count.
func (p *Position) ReduceShares(delta uint64) error {
	if delta > p.Shares {
		return fmt.Errorf("%w: reduce %d exceeds %d shares held", ammerrors.ErrInsufficientShares, delta, p.Shares)
	}
	p.Shares -= delta
	return nil
}

// UpdateMetadata advances the position's fee-index cursors and credits
// the claimed-fee counters. This is the only mutator the fee
// distributor (C7) is allowed to call on claim.
func (p *Position) UpdateMetadata(newIndexA, newIndexB, deltaClaimedA, deltaClaimedB uint64) {
	p.LastFeeIndexA = newIndexA
	p.LastFeeIndexB = newIndexB
	p.ClaimedFeesA += deltaClaimedA
	p.ClaimedFeesB += deltaClaimedB
}

// UpdateInitialAmounts additively accumulates deposited amounts into
// the position's initial-deposit totals. Per spec.md §9 Q2, this is
// also invoked by auto-compound with the compounded fee amounts — the
// spec documents this as the source's actual behavior, conflating
// fresh deposits with compounded fees for the purposes of the
// impermanent-loss display in CalculateImpermanentLoss. That
// conflation is preserved here deliberately, not fixed.
func (p *Position) UpdateInitialAmounts(deltaA, deltaB uint64) {
	p.InitialAmountA += deltaA
	p.InitialAmountB += deltaB
}

// SetName overwrites the position's opaque user label.
func (p *Position) SetName(name []byte) {
	p.Name = name
}

// CalculatePositionValue returns the position's proportional claim on
// the pool's reserves: (shares*reserveA/totalShares, shares*reserveB/totalShares).
// Returns (0,0) if totalShares is zero.
func (p *Position) CalculatePositionValue(reserveA, reserveB, totalShares uint64) (valueA, valueB uint64) {
	if totalShares == 0 {
		return 0, 0
	}
	return fixedpoint.MulDiv(p.Shares, reserveA, totalShares), fixedpoint.MulDiv(p.Shares, reserveB, totalShares)
}

// CalculatePendingFees returns the fees this position is owed but has
// not yet claimed, given the pool's current fee indices:
// ((curIdxA-lastA)*shares/BPS, (curIdxB-lastB)*shares/BPS). Deltas are
// always non-negative by I1 (fee indices are monotone), so truncation
// never needs to clamp below zero.
func (p *Position) CalculatePendingFees(curIndexA, curIndexB uint64) (pendingA, pendingB uint64) {
	deltaA := curIndexA - p.LastFeeIndexA
	deltaB := curIndexB - p.LastFeeIndexB
	return fixedpoint.MulDiv(deltaA, p.Shares, fixedpoint.BPSDenominator),
		fixedpoint.MulDiv(deltaB, p.Shares, fixedpoint.BPSDenominator)
}

// CalculateImpermanentLoss returns the magnitude (in basis points) by
// which the position's current value diverges from its tracked initial
// deposit, and whether that divergence is a loss.
//
// This is the simplified, documented (spec.md §4.3, §9 Q1) measure: it
// compares bare sums value_a+value_b against initial_a+initial_b,
// ignoring that the two tokens may have different prices. It is not the
// standard unit-normalized 2√p/(1+p)-1 impermanent-loss formula. A
// future revision may replace it; this module implements the spec as
// written rather than guessing at the "intended" formula.
func (p *Position) CalculateImpermanentLoss(valueA, valueB uint64) (magnitudeBPS uint64, isLoss bool) {
	hodl := p.InitialAmountA + p.InitialAmountB
	lp := valueA + valueB

	if hodl == 0 {
		return 0, false
	}
	if lp >= hodl {
		return fixedpoint.MulDiv(lp-hodl, fixedpoint.BPSDenominator, hodl), false
	}
	return fixedpoint.MulDiv(hodl-lp, fixedpoint.BPSDenominator, hodl), true
}
