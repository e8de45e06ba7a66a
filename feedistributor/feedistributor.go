// Package feedistributor implements spec.md §4.7: computing a
// position's claimable fees from the MasterChef-style fee indices
// maintained by cppool/sspool, claiming them into the position's
// cursor, and an auto-compound path that reinvests claimed fees as new
// liquidity.
//
// Grounded on the same index/cursor accounting position.Position
// already exposes (CalculatePendingFees); this package is the piece
// that ties a Position to the Pool it reads indices from and reinvests
// into, the way the teacher's protocols/uniswapv2 calculator composes
// with protocols/tokenpoolregistry's pool lookups — except here the
// composition is direct (pool passed in by the caller) since routing
// across pools is out of scope.
package feedistributor

import (
	"fmt"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/events"
	"github.com/defistate/amm-core/position"
)

// Pool is the subset of cppool.Pool / sspool.Pool the distributor
// needs: a stable identifier, a consistent snapshot of reserves/shares
// /fee indices, and a way to fold claimed fees back in as liquidity.
type Pool interface {
	PoolIdentifier() ammtypes.PoolID
	Snapshot() (reserveA, reserveB, totalShares, feeIndexA, feeIndexB uint64)
	AddLiquidityTolerant(a, b, toleranceBPS uint64) (uint64, error)
}

// Distributor tracks aggregate totals and composes Position/Pool
// operations for fee claims.
type Distributor struct {
	TotalClaimedA uint64
	TotalClaimedB uint64

	Sink events.Sink
}

// New constructs a Distributor with no events sink.
func New() *Distributor {
	return &Distributor{Sink: events.NopSink{}}
}

func (d *Distributor) emit(e events.Event) {
	if d.Sink != nil {
		d.Sink.Emit(e)
	}
}

// ComputeClaimable reads the pool's current fee indices and the
// position's cached cursor, returning the pending amounts plus the
// pool's current indices (so a subsequent Claim can write them back
// without re-reading the pool).
func ComputeClaimable(pool Pool, pos *position.Position) (pendingA, pendingB, idxA, idxB uint64, err error) {
	if pos.PoolID != pool.PoolIdentifier() {
		return 0, 0, 0, 0, fmt.Errorf("%w", ammerrors.ErrPoolMismatch)
	}
	_, _, _, idxA, idxB = pool.Snapshot()
	pendingA, pendingB = pos.CalculatePendingFees(idxA, idxB)
	return pendingA, pendingB, idxA, idxB, nil
}

// Claim advances the position's fee cursor to the pool's current
// indices and credits the pending amounts to claimed_fees. After
// Claim, a second consecutive ComputeClaimable against the same pool
// indices returns (0, 0).
func (d *Distributor) Claim(pool Pool, pos *position.Position) (claimedA, claimedB uint64, err error) {
	pendingA, pendingB, idxA, idxB, err := ComputeClaimable(pool, pos)
	if err != nil {
		return 0, 0, err
	}

	pos.UpdateMetadata(idxA, idxB, pendingA, pendingB)
	d.TotalClaimedA += pendingA
	d.TotalClaimedB += pendingB

	d.emit(events.FeesClaimed{
		PositionID:     pos.ID,
		PoolID:         pos.PoolID,
		AmountA:        pendingA,
		AmountB:        pendingB,
		AutoCompounded: false,
	})
	return pendingA, pendingB, nil
}

// ClaimAndCompound claims and, if both sides of the claim are
// non-zero, reinvests them as new liquidity via
// Pool.AddLiquidityTolerant, crediting the resulting shares and
// initial amounts to the position. The cursor always advances, even
// when the auto-add is skipped because one side claimed zero.
func (d *Distributor) ClaimAndCompound(pool Pool, pos *position.Position, toleranceBPS uint64) (newShares, claimedA, claimedB uint64, err error) {
	claimedA, claimedB, err = d.Claim(pool, pos)
	if err != nil {
		return 0, 0, 0, err
	}

	if claimedA == 0 || claimedB == 0 {
		return 0, claimedA, claimedB, nil
	}

	newShares, err = pool.AddLiquidityTolerant(claimedA, claimedB, toleranceBPS)
	if err != nil {
		return 0, claimedA, claimedB, err
	}

	pos.AddShares(newShares)
	pos.UpdateInitialAmounts(claimedA, claimedB)

	d.emit(events.FeesCompounded{
		PositionID: pos.ID,
		PoolID:     pos.PoolID,
		AmountA:    claimedA,
		AmountB:    claimedB,
		NewShares:  newShares,
	})
	return newShares, claimedA, claimedB, nil
}
