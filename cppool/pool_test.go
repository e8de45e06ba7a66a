package cppool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoolID() common.Hash {
	return common.HexToHash("0x01")
}

// Scenario 1: fee_bps=30, seed (1_000_000,1_000_000), swap 100_000 a->b.
func TestScenario1SwapQuoteAndKGrowth(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	amountOut, fee, err := p.GetAmountOut(100_000, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), fee)
	assert.InDelta(t, 90_661, int(amountOut), 5)

	_, err = p.Swap(100_000, true)
	require.NoError(t, err)

	k := p.ReserveA * p.ReserveB
	assert.GreaterOrEqual(t, k, uint64(1_000_000_000_000))
}

// Scenario 2: 20 alternating swaps never decrease k.
func TestScenario2KNonDecreasingAcrossSwaps(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	initialK := p.ReserveA * p.ReserveB

	sizes := []uint64{10_000, 12_000, 14_000, 16_000, 18_000, 20_000, 22_000, 24_000, 26_000, 28_000}
	prevK := initialK
	for i := 0; i < 20; i++ {
		amt := sizes[i%len(sizes)]
		aToB := i%2 == 0
		_, err := p.Swap(amt, aToB)
		require.NoError(t, err)

		k := p.ReserveA * p.ReserveB
		assert.GreaterOrEqual(t, k, prevK)
		prevK = k
	}

	finalK := p.ReserveA * p.ReserveB
	assert.Greater(t, finalK, initialK)
}

// Scenario 3: provide_initial_liquidity(1_000_000,1_000_000) returns
// 999_000 shares to the caller and locks MinimumLiquidity.
func TestScenario3InitialLiquidityLocksMinimum(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)

	shares, err := p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(999_000), shares)
	assert.Equal(t, uint64(1_000_000), p.TotalShares)
}

// Scenario 4: add_liquidity outside tolerance fails InvalidRatio; inside
// tolerance succeeds, on a 1:2 seeded pool.
func TestScenario4AddLiquidityRatioTolerance(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(500_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.AddLiquidity(500_000, 1_100_000, 50)
	assert.Error(t, err)

	_, err = p.AddLiquidity(500_000, 1_004_000, 50)
	assert.NoError(t, err)
}

func TestNewPoolRejectsFeeAboveMax(t *testing.T) {
	_, err := NewPool(testPoolID(), MaxFeeBPS+1)
	assert.Error(t, err)
}

func TestProvideInitialLiquidityRejectsZeroAmount(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(0, 1_000_000)
	assert.Error(t, err)
}

func TestProvideInitialLiquidityRejectsSecondSeed(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	assert.Error(t, err)
}

func TestRemoveLiquidityProportional(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	a, b, err := p.RemoveLiquidity(500_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), a)
	assert.Equal(t, uint64(500_000), b)
	assert.Equal(t, uint64(500_000), p.TotalShares)
}

func TestRemoveLiquidityRejectsOverdraw(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, _, err = p.RemoveLiquidity(p.TotalShares + 1)
	assert.Error(t, err)
}

func TestSwapRejectsZeroAmountIn(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.Swap(0, true)
	assert.Error(t, err)
}

func TestSwapWithSlippageEnforcesMinOutput(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	quoted, _, err := p.GetAmountOut(100_000, true)
	require.NoError(t, err)

	_, err = p.SwapWithSlippage(100_000, true, quoted+1)
	assert.Error(t, err)

	// Pool state must be unchanged after the rejected swap.
	assert.Equal(t, uint64(1_000_000), p.ReserveA)
	assert.Equal(t, uint64(1_000_000), p.ReserveB)

	out, err := p.SwapWithSlippage(100_000, true, quoted)
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
}

func TestAccrueFeeSplitsProtocolAndLPShare(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.Swap(100_000, true)
	require.NoError(t, err)

	protoA, protoB := p.WithdrawProtocolFees()
	assert.Equal(t, uint64(30), protoA) // 10% of the 300 fee
	assert.Equal(t, uint64(0), protoB)
	assert.Greater(t, p.FeeIndexA, uint64(0))

	protoA2, protoB2 := p.WithdrawProtocolFees()
	assert.Equal(t, uint64(0), protoA2)
	assert.Equal(t, uint64(0), protoB2)
}

func TestSnapshotReflectsState(t *testing.T) {
	p, err := NewPool(testPoolID(), 30)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 2_000_000)
	require.NoError(t, err)

	ra, rb, shares, idxA, idxB := p.Snapshot()
	assert.Equal(t, uint64(1_000_000), ra)
	assert.Equal(t, uint64(2_000_000), rb)
	assert.Equal(t, p.TotalShares, shares)
	assert.Equal(t, uint64(0), idxA)
	assert.Equal(t, uint64(0), idxB)
}
