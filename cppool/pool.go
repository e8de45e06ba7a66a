// Package cppool implements the constant-product pool of spec.md §4.4:
// reserves, shares, fee indices and a protocol-fee bucket evolving
// under the x*y=k invariant.
//
// The quote math is the direct generalization of the teacher's
// protocols/uniswapv2/calculator/calculator.go Calculator — the same
// fee-multiplier/numerator/denominator shape, generalized from the
// fixed Uniswap V2 0.3% fee to spec.md's configurable fee_bps and from
// a stateless quote into a full pool state machine. The teacher's own
// comment that Calculator instances are "NOT safe for concurrent use by
// themselves" is honored here with an explicit per-pool sync.Mutex
// (spec.md §5: every operation on a pool is atomic with respect to any
// other operation on the same pool).
package cppool

import (
	"fmt"
	"sync"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/events"
	"github.com/defistate/amm-core/fixedpoint"
	"github.com/holiman/uint256"
)

// MaxFeeBPS is the hard ceiling on a constant-product pool's fee_bps
// (10%).
const MaxFeeBPS uint64 = 1000

// Pool is a constant-product AMM pool. All mutating methods hold the
// pool's mutex for their full duration, so no caller ever observes
// reserves updated without the corresponding fee-index update.
type Pool struct {
	mu sync.Mutex

	ID     ammtypes.PoolID
	FeeBPS uint64

	ReserveA uint64
	ReserveB uint64

	TotalShares uint64

	FeeIndexA uint64
	FeeIndexB uint64

	ProtocolFeesA uint64
	ProtocolFeesB uint64

	CumulativeVolumeA uint64
	CumulativeVolumeB uint64

	KLast *uint256.Int

	Sink events.Sink
}

// NewPool creates an empty constant-product pool. Fails if feeBPS
// exceeds MaxFeeBPS.
func NewPool(id ammtypes.PoolID, feeBPS uint64) (*Pool, error) {
	if feeBPS > MaxFeeBPS {
		return nil, fmt.Errorf("%w: %d bps exceeds max %d bps", ammerrors.ErrInvalidFee, feeBPS, MaxFeeBPS)
	}
	return &Pool{
		ID:     id,
		FeeBPS: feeBPS,
		KLast:  new(uint256.Int),
		Sink:   events.NopSink{},
	}, nil
}

func (p *Pool) emit(e events.Event) {
	if p.Sink != nil {
		p.Sink.Emit(e)
	}
}

// ProvideInitialLiquidity seeds an empty pool, minting
// isqrt(a*b)-MinimumLiquidity shares to the caller and permanently
// locking MinimumLiquidity shares (spec.md §4.4, §9).
func (p *Pool) ProvideInitialLiquidity(a, b uint64) (sharesForCaller uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TotalShares != 0 {
		return 0, fmt.Errorf("%w: pool already seeded", ammerrors.ErrInvalidRatio)
	}
	if a == 0 || b == 0 {
		return 0, ammerrors.ErrZeroLiquidity
	}

	g := fixedpoint.GeometricMean(a, b)
	if g <= fixedpoint.MinimumLiquidity {
		return 0, fmt.Errorf("%w: geometric mean %d does not exceed minimum liquidity %d", ammerrors.ErrZeroLiquidity, g, fixedpoint.MinimumLiquidity)
	}

	p.ReserveA = a
	p.ReserveB = b
	p.TotalShares = g
	p.KLast = fixedpoint.WidenMul(a, b)

	sharesForCaller = g - fixedpoint.MinimumLiquidity

	p.emit(events.LiquidityAdded{
		PoolID:       p.ID,
		AmountA:      a,
		AmountB:      b,
		SharesMinted: sharesForCaller,
		TotalShares:  p.TotalShares,
	})
	return sharesForCaller, nil
}

// AddLiquidity deposits (a,b) into a seeded pool, minting shares
// proportional to the smaller of the two deposit ratios. Fails if the
// (a,b) ratio diverges from the pool's current ratio by more than
// toleranceBPS.
func (p *Pool) AddLiquidity(a, b, toleranceBPS uint64) (sharesMinted uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TotalShares == 0 {
		return 0, ammerrors.ErrZeroLiquidity
	}
	if a == 0 || b == 0 {
		return 0, ammerrors.ErrZeroAmountIn
	}

	requiredB := fixedpoint.MulDiv(a, p.ReserveB, p.ReserveA)
	diff := fixedpoint.AbsDiff(b, requiredB)
	if requiredB > 0 && fixedpoint.MulDiv(diff, fixedpoint.BPSDenominator, requiredB) > toleranceBPS {
		return 0, fmt.Errorf("%w: deposit (%d,%d) vs required (%d,%d)", ammerrors.ErrInvalidRatio, a, b, a, requiredB)
	}

	sharesMinted = fixedpoint.Min(
		fixedpoint.MulDiv(a, p.TotalShares, p.ReserveA),
		fixedpoint.MulDiv(b, p.TotalShares, p.ReserveB),
	)
	if sharesMinted == 0 {
		return 0, ammerrors.ErrZeroShares
	}

	p.ReserveA += a
	p.ReserveB += b
	p.TotalShares += sharesMinted
	p.KLast = fixedpoint.WidenMul(p.ReserveA, p.ReserveB)

	p.emit(events.LiquidityAdded{
		PoolID:       p.ID,
		AmountA:      a,
		AmountB:      b,
		SharesMinted: sharesMinted,
		TotalShares:  p.TotalShares,
	})
	return sharesMinted, nil
}

// RemoveLiquidity burns `burn` shares, returning the proportional
// amounts of each reserve.
func (p *Pool) RemoveLiquidity(burn uint64) (amountA, amountB uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if burn == 0 {
		return 0, 0, ammerrors.ErrZeroShares
	}
	if burn > p.TotalShares {
		return 0, 0, fmt.Errorf("%w: burn %d exceeds total shares %d", ammerrors.ErrInsufficientShares, burn, p.TotalShares)
	}
	if p.ReserveA == 0 || p.ReserveB == 0 {
		return 0, 0, ammerrors.ErrInsufficientLiquidity
	}

	amountA = fixedpoint.MulDiv(burn, p.ReserveA, p.TotalShares)
	amountB = fixedpoint.MulDiv(burn, p.ReserveB, p.TotalShares)

	p.ReserveA -= amountA
	p.ReserveB -= amountB
	p.TotalShares -= burn

	if p.TotalShares == 0 {
		p.KLast = new(uint256.Int)
	} else {
		p.KLast = fixedpoint.WidenMul(p.ReserveA, p.ReserveB)
	}

	p.emit(events.LiquidityRemoved{
		PoolID:       p.ID,
		AmountA:      amountA,
		AmountB:      amountB,
		SharesBurned: burn,
		TotalShares:  p.TotalShares,
	})
	return amountA, amountB, nil
}

// GetAmountOut quotes the output and fee for a swap of amountIn, in
// the direction aToB, without mutating pool state.
func (p *Pool) GetAmountOut(amountIn uint64, aToB bool) (amountOut, fee uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote(amountIn, aToB)
}

func (p *Pool) quote(amountIn uint64, aToB bool) (amountOut, fee uint64, err error) {
	if amountIn == 0 {
		return 0, 0, ammerrors.ErrZeroAmountIn
	}

	reserveIn, reserveOut := p.ReserveA, p.ReserveB
	if !aToB {
		reserveIn, reserveOut = p.ReserveB, p.ReserveA
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, 0, ammerrors.ErrInsufficientLiquidity
	}

	fee = fixedpoint.BPSOf(amountIn, p.FeeBPS)
	amountInAfterFee := amountIn - fee

	numerator := fixedpoint.WidenMul(amountInAfterFee, reserveOut)
	amountOut = fixedpoint.DivideWidened(numerator, reserveIn+amountInAfterFee)
	return amountOut, fee, nil
}

// Swap executes a swap of amountIn in direction aToB, updating
// reserves, cumulative volume and the fee index on the input side, all
// as a single observable transition (spec.md §5). Fails with
// ErrInsufficientLiquidity if amountOut would reach or exceed the output
// reserve (I5); a zero amountOut is not rejected.
func (p *Pool) Swap(amountIn uint64, aToB bool) (amountOut uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amountOut, fee, err := p.quote(amountIn, aToB)
	if err != nil {
		return 0, err
	}

	if aToB {
		if amountOut >= p.ReserveB {
			return 0, ammerrors.ErrInsufficientLiquidity
		}
		p.ReserveA += amountIn
		p.ReserveB -= amountOut
		p.CumulativeVolumeA += amountIn
		p.accrueFee(fee, true)
	} else {
		if amountOut >= p.ReserveA {
			return 0, ammerrors.ErrInsufficientLiquidity
		}
		p.ReserveB += amountIn
		p.ReserveA -= amountOut
		p.CumulativeVolumeB += amountIn
		p.accrueFee(fee, false)
	}
	p.KLast = fixedpoint.WidenMul(p.ReserveA, p.ReserveB)

	p.emit(events.SwapExecuted{
		PoolID:    p.ID,
		AmountIn:  amountIn,
		AmountOut: amountOut,
		FeeAmount: fee,
		AToB:      aToB,
	})
	return amountOut, nil
}

// SwapWithSlippage executes Swap and additionally fails with
// ErrSlippageExceeded if the realized amountOut is below minAmountOut.
// Both the swap and the slippage check happen under the same lock, so
// a failing check leaves the pool's pre-swap state intact (no partial
// progress, spec.md §5).
func (p *Pool) SwapWithSlippage(amountIn uint64, aToB bool, minAmountOut uint64) (amountOut uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	quotedOut, fee, err := p.quote(amountIn, aToB)
	if err != nil {
		return 0, err
	}
	if quotedOut < minAmountOut {
		return 0, fmt.Errorf("%w: quoted %d below minimum %d", ammerrors.ErrSlippageExceeded, quotedOut, minAmountOut)
	}

	if aToB {
		if quotedOut >= p.ReserveB {
			return 0, ammerrors.ErrInsufficientLiquidity
		}
		p.ReserveA += amountIn
		p.ReserveB -= quotedOut
		p.CumulativeVolumeA += amountIn
		p.accrueFee(fee, true)
	} else {
		if quotedOut >= p.ReserveA {
			return 0, ammerrors.ErrInsufficientLiquidity
		}
		p.ReserveB += amountIn
		p.ReserveA -= quotedOut
		p.CumulativeVolumeB += amountIn
		p.accrueFee(fee, false)
	}
	p.KLast = fixedpoint.WidenMul(p.ReserveA, p.ReserveB)

	p.emit(events.SwapExecuted{
		PoolID:    p.ID,
		AmountIn:  amountIn,
		AmountOut: quotedOut,
		FeeAmount: fee,
		AToB:      aToB,
	})
	return quotedOut, nil
}

// accrueFee splits a swap fee between the protocol bucket and the
// per-share fee index (spec.md §4.4). feeOnA selects which side the
// fee (and therefore the index bump) applies to. Must be called with
// p.mu held.
func (p *Pool) accrueFee(fee uint64, feeOnA bool) {
	if fee == 0 {
		return
	}
	if p.TotalShares == 0 {
		// Only reachable during a transient empty pool; the fee has
		// nowhere proportional to go, so it flows entirely to the
		// protocol bucket.
		if feeOnA {
			p.ProtocolFeesA += fee
		} else {
			p.ProtocolFeesB += fee
		}
		return
	}

	proto := fixedpoint.BPSOf(fee, fixedpoint.ProtocolFeeBPS)
	lpFee := fee - proto
	indexDelta := fixedpoint.MulDiv(lpFee, fixedpoint.BPSDenominator, p.TotalShares)

	if feeOnA {
		p.ProtocolFeesA += proto
		p.FeeIndexA += indexDelta
	} else {
		p.ProtocolFeesB += proto
		p.FeeIndexB += indexDelta
	}
}

// WithdrawProtocolFees returns and zeros both protocol-fee buckets.
// Transferring the returned amounts to the configured fee recipient is
// the host's responsibility.
func (p *Pool) WithdrawProtocolFees() (amountA, amountB uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amountA, amountB = p.ProtocolFeesA, p.ProtocolFeesB
	p.ProtocolFeesA, p.ProtocolFeesB = 0, 0
	return amountA, amountB
}

// Snapshot returns a consistent, point-in-time copy of the pool's
// fields relevant to fee distribution and position valuation, taken
// under the pool's lock.
func (p *Pool) Snapshot() (reserveA, reserveB, totalShares, feeIndexA, feeIndexB uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ReserveA, p.ReserveB, p.TotalShares, p.FeeIndexA, p.FeeIndexB
}

// PoolIdentifier returns the pool's id, satisfying the feedistributor
// and router Pool interfaces.
func (p *Pool) PoolIdentifier() ammtypes.PoolID {
	return p.ID
}

// AddLiquidityTolerant adapts AddLiquidity to the shared
// feedistributor/router Pool interface, which must also accommodate
// sspool.Pool's tolerance-free AddLiquidity.
func (p *Pool) AddLiquidityTolerant(a, b, toleranceBPS uint64) (uint64, error) {
	return p.AddLiquidity(a, b, toleranceBPS)
}
