// Package sspool implements the stable-swap pool of spec.md §4.5: the
// same reserve/shares/fee-index skeleton as cppool, but quoting via a
// blend of the constant-sum and constant-product curves weighted by an
// amplification factor, rather than a pure x*y=k curve.
//
// Grounded the same way cppool is grounded — generalizing the
// teacher's protocols/uniswapv2/calculator/calculator.go
// numerator/denominator quote shape — with the constant-sum leg and
// the A/(A+1) blend added on top per spec.md §4.5, which is explicit
// that this is a simplified blend rather than Curve's Newton-solved D
// invariant (see DESIGN.md's Q3 decision).
package sspool

import (
	"fmt"
	"sync"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/events"
	"github.com/defistate/amm-core/fixedpoint"
)

// MinAmpFactor and MaxAmpFactor bound amp_factor (spec.md §4.5).
const MinAmpFactor uint64 = 1
const MaxAmpFactor uint64 = 10000

// MaxFeeBPS is the hard ceiling on a stable-swap pool's fee_bps (1%).
const MaxFeeBPS uint64 = 100

// Pool is a stable-swap AMM pool blending constant-sum and
// constant-product quoting, weighted by AmpFactor.
type Pool struct {
	mu sync.Mutex

	ID        ammtypes.PoolID
	FeeBPS    uint64
	AmpFactor uint64

	ReserveA uint64
	ReserveB uint64

	TotalShares uint64

	FeeIndexA uint64
	FeeIndexB uint64

	ProtocolFeesA uint64
	ProtocolFeesB uint64

	CumulativeVolumeA uint64
	CumulativeVolumeB uint64

	Sink events.Sink
}

// NewPool creates an empty stable-swap pool. Fails if ampFactor or
// feeBPS fall outside their documented ranges.
func NewPool(id ammtypes.PoolID, ampFactor, feeBPS uint64) (*Pool, error) {
	if ampFactor < MinAmpFactor || ampFactor > MaxAmpFactor {
		return nil, fmt.Errorf("%w: amp factor %d outside [%d,%d]", ammerrors.ErrInvalidAmp, ampFactor, MinAmpFactor, MaxAmpFactor)
	}
	if feeBPS > MaxFeeBPS {
		return nil, fmt.Errorf("%w: %d bps exceeds max %d bps", ammerrors.ErrInvalidFee, feeBPS, MaxFeeBPS)
	}
	return &Pool{
		ID:        id,
		FeeBPS:    feeBPS,
		AmpFactor: ampFactor,
		Sink:      events.NopSink{},
	}, nil
}

func (p *Pool) emit(e events.Event) {
	if p.Sink != nil {
		p.Sink.Emit(e)
	}
}

// ProvideInitialLiquidity seeds an empty pool with shares = a+b
// (spec.md §4.5 — no minimum-liquidity lock for stable-swap, since the
// sum-of-reserves share formula does not admit the same donation
// inflation attack a constant-product pool does).
func (p *Pool) ProvideInitialLiquidity(a, b uint64) (shares uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TotalShares != 0 {
		return 0, fmt.Errorf("%w: pool already seeded", ammerrors.ErrInvalidRatio)
	}
	if a == 0 || b == 0 {
		return 0, ammerrors.ErrZeroLiquidity
	}

	p.ReserveA = a
	p.ReserveB = b
	shares = a + b
	p.TotalShares = shares

	p.emit(events.LiquidityAdded{
		PoolID:       p.ID,
		AmountA:      a,
		AmountB:      b,
		SharesMinted: shares,
		TotalShares:  p.TotalShares,
	})
	return shares, nil
}

// AddLiquidity deposits (a,b), minting shares proportional to the
// deposit's share of the pool's combined reserves. Single-sided
// deposits are accepted: only one of a, b needs to be > 0.
func (p *Pool) AddLiquidity(a, b uint64) (sharesMinted uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TotalShares == 0 {
		return 0, ammerrors.ErrZeroLiquidity
	}
	if a == 0 && b == 0 {
		return 0, ammerrors.ErrZeroAmountIn
	}

	sharesMinted = fixedpoint.MulDiv(a+b, p.TotalShares, p.ReserveA+p.ReserveB)
	if sharesMinted == 0 {
		return 0, ammerrors.ErrZeroShares
	}

	p.ReserveA += a
	p.ReserveB += b
	p.TotalShares += sharesMinted

	p.emit(events.LiquidityAdded{
		PoolID:       p.ID,
		AmountA:      a,
		AmountB:      b,
		SharesMinted: sharesMinted,
		TotalShares:  p.TotalShares,
	})
	return sharesMinted, nil
}

// RemoveLiquidity burns `burn` shares pro-rata on the sum of reserves,
// identical in shape to cppool.Pool.RemoveLiquidity.
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
// direction aToB, without mutating pool state.
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

	newIn := reserveIn + amountInAfterFee
	numerator := fixedpoint.WidenMul(reserveIn, reserveOut)
	outCP := reserveOut - fixedpoint.DivideWidened(numerator, newIn)

	outCS := fixedpoint.Min(amountInAfterFee, reserveOut)

	A := p.AmpFactor
	blendedCS := fixedpoint.MulDiv(outCS, A, A+1)
	blendedCP := outCP / (A + 1)
	amountOut = blendedCS + blendedCP

	if amountOut > reserveOut {
		amountOut = reserveOut
	}
	return amountOut, fee, nil
}

// Swap executes a swap of amountIn in direction aToB, updating
// reserves, cumulative volume and the fee index on the input side
// atomically (spec.md §4.5, §5).
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
// ErrSlippageExceeded if the realized amountOut is below minAmountOut,
// leaving pool state unchanged on failure.
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

	p.emit(events.SwapExecuted{
		PoolID:    p.ID,
		AmountIn:  amountIn,
		AmountOut: quotedOut,
		FeeAmount: fee,
		AToB:      aToB,
	})
	return quotedOut, nil
}

// accrueFee is identical in shape to cppool.Pool.accrueFee: a 10%
// protocol cut, the remainder folded into the per-share fee index on
// the side the fee was taken. Must be called with p.mu held.
func (p *Pool) accrueFee(fee uint64, feeOnA bool) {
	if fee == 0 {
		return
	}
	if p.TotalShares == 0 {
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
func (p *Pool) WithdrawProtocolFees() (amountA, amountB uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	amountA, amountB = p.ProtocolFeesA, p.ProtocolFeesB
	p.ProtocolFeesA, p.ProtocolFeesB = 0, 0
	return amountA, amountB
}

// Snapshot returns a consistent, point-in-time copy of the pool's
// fields relevant to fee distribution and position valuation.
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
// feedistributor/router Pool interface; stable-swap pools have no
// ratio tolerance to enforce (single-sided deposits are always
// accepted), so toleranceBPS is ignored.
func (p *Pool) AddLiquidityTolerant(a, b, toleranceBPS uint64) (uint64, error) {
	return p.AddLiquidity(a, b)
}
