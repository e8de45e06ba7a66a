// Package fixedpoint implements the widened integer arithmetic every
// other AMM component builds on: u64×u64→u128 widened multiplication,
// u128/u64 widened division with truncation toward zero, integer square
// root via Newton's method, and basis-point helpers.
//
// Intermediates widen into *uint256.Int (ample headroom over the 128
// bits spec.md requires) following the same pooled-scratch,
// destination-passing idiom as the teacher's
// protocols/uniswapv3/calculator/sqrtpricemath package.
package fixedpoint

import (
	"sync"

	"github.com/holiman/uint256"
)

// BPSDenominator is 100% expressed in basis points.
const BPSDenominator uint64 = 10000

// MinimumLiquidity is the number of shares permanently locked at pool
// seeding, never assigned to any position (spec.md §3, §9).
const MinimumLiquidity uint64 = 1000

// ProtocolFeeBPS is the protocol's share of every swap fee, in basis
// points of the fee (10%).
const ProtocolFeeBPS uint64 = 1000

var u256Pool = sync.Pool{
	New: func() any { return new(uint256.Int) },
}

func getU256() *uint256.Int {
	v := u256Pool.Get().(*uint256.Int)
	v.Clear()
	return v
}

func putU256(v *uint256.Int) {
	u256Pool.Put(v)
}

// WidenMul computes a*b as a widened 256-bit value (no overflow is
// possible: the product of two u64 values always fits in 128 bits).
func WidenMul(a, b uint64) *uint256.Int {
	out := new(uint256.Int)
	out.Mul(uint256.NewInt(a), uint256.NewInt(b))
	return out
}

// DivideWidened narrows n/d back to a u64, truncating toward zero.
// d == 0 is a programming error (spec.md §4.1): callers must guard
// against it before calling, so this panics rather than returning an
// error.
func DivideWidened(n *uint256.Int, d uint64) uint64 {
	if d == 0 {
		panic("fixedpoint: division by zero")
	}
	q := getU256()
	defer putU256(q)
	q.Div(n, uint256.NewInt(d))
	return q.Uint64()
}

// DivideWidenedByWidened narrows n/d back to a u64, where both n and d
// are themselves widened values (e.g. two reserve products). Truncates
// toward zero; d == 0 panics.
func DivideWidenedByWidened(n, d *uint256.Int) uint64 {
	if d.IsZero() {
		panic("fixedpoint: division by zero")
	}
	q := getU256()
	defer putU256(q)
	q.Div(n, d)
	return q.Uint64()
}

// MulDiv computes (a*b)/c, widening the product to avoid u64 overflow
// and truncating the final division toward zero. c == 0 panics.
func MulDiv(a, b, c uint64) uint64 {
	prod := getU256()
	defer putU256(prod)
	prod.Mul(uint256.NewInt(a), uint256.NewInt(b))
	return DivideWidened(prod, c)
}

// MulDivWidened computes (a*b)/c without narrowing the product first,
// for callers that need the widened numerator of a larger expression
// (e.g. k_last comparisons).
func MulDivWidened(a *uint256.Int, b, c uint64) uint64 {
	prod := getU256()
	defer putU256(prod)
	prod.Mul(a, uint256.NewInt(b))
	return DivideWidened(prod, c)
}

// BPSOf computes amount*bps/BPSDenominator, truncated.
func BPSOf(amount, bps uint64) uint64 {
	return MulDiv(amount, bps, BPSDenominator)
}

// Isqrt returns the integer square root of n (truncated), computed via
// Newton's iteration exactly as spec.md §4.1 describes: starting from
// the initial estimate n, iterate y = (x + n/x) / 2 until y is no
// longer smaller than x, then return x.
func Isqrt(n *uint256.Int) uint64 {
	if n.IsZero() {
		return 0
	}

	x := new(uint256.Int).Set(n)
	y := nextEstimate(n, x)
	for y.Cmp(x) < 0 {
		x.Set(y)
		y = nextEstimate(n, x)
	}
	return x.Uint64()
}

func nextEstimate(n, x *uint256.Int) *uint256.Int {
	y := new(uint256.Int).Div(n, x)
	y.Add(y, x)
	y.Rsh(y, 1)
	return y
}

// GeometricMean returns isqrt(a*b), the share count minted on initial
// liquidity provision for a constant-product pool (spec.md §4.4).
func GeometricMean(a, b uint64) uint64 {
	return Isqrt(WidenMul(a, b))
}

// AbsDiff returns |a-b| for two u64 values.
func AbsDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Min returns the smaller of a and b.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
