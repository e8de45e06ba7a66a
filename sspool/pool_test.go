package sspool

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoolID() common.Hash {
	return common.HexToHash("0x02")
}

func TestNewPoolRejectsAmpOutOfRange(t *testing.T) {
	_, err := NewPool(testPoolID(), 0, 4)
	assert.Error(t, err)
	_, err = NewPool(testPoolID(), MaxAmpFactor+1, 4)
	assert.Error(t, err)
}

func TestNewPoolRejectsFeeAboveMax(t *testing.T) {
	_, err := NewPool(testPoolID(), 100, MaxFeeBPS+1)
	assert.Error(t, err)
}

// Scenario 6: amp=1000, fee=4, seed (10M,10M), swap 1M a->b: output >
// 990_000, fee = 400.
func TestScenario6BlendedQuote(t *testing.T) {
	p, err := NewPool(testPoolID(), 1000, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(10_000_000, 10_000_000)
	require.NoError(t, err)

	amountOut, fee, err := p.GetAmountOut(1_000_000, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), fee)
	assert.Greater(t, amountOut, uint64(990_000))
	assert.LessOrEqual(t, amountOut, p.ReserveB)
}

func TestProvideInitialLiquiditySharesEqualSum(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)

	shares, err := p.ProvideInitialLiquidity(4_000_000, 6_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), shares)
	assert.Equal(t, uint64(10_000_000), p.TotalShares)
}

func TestAddLiquidityAcceptsSingleSidedDeposit(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	minted, err := p.AddLiquidity(500_000, 0)
	require.NoError(t, err)
	assert.Greater(t, minted, uint64(0))
	assert.Equal(t, uint64(1_500_000), p.ReserveA)
	assert.Equal(t, uint64(1_000_000), p.ReserveB)
}

func TestAddLiquidityRejectsBothZero(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.AddLiquidity(0, 0)
	assert.Error(t, err)
}

func TestRemoveLiquidityProportionalOnSum(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	a, b, err := p.RemoveLiquidity(1_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), a)
	assert.Equal(t, uint64(500_000), b)
}

func TestSwapApproachesConstantSumAsAmpGrows(t *testing.T) {
	low, err := NewPool(testPoolID(), 1, 0)
	require.NoError(t, err)
	_, err = low.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)
	lowOut, _, err := low.GetAmountOut(100_000, true)
	require.NoError(t, err)

	high, err := NewPool(testPoolID(), MaxAmpFactor, 0)
	require.NoError(t, err)
	_, err = high.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)
	highOut, _, err := high.GetAmountOut(100_000, true)
	require.NoError(t, err)

	assert.Greater(t, highOut, lowOut)
	assert.LessOrEqual(t, highOut, uint64(100_000))
}

func TestSwapWithSlippageLeavesStateUnchangedOnFailure(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	quoted, _, err := p.GetAmountOut(100_000, true)
	require.NoError(t, err)

	_, err = p.SwapWithSlippage(100_000, true, quoted+1)
	assert.Error(t, err)
	assert.Equal(t, uint64(1_000_000), p.ReserveA)

	out, err := p.SwapWithSlippage(100_000, true, quoted)
	require.NoError(t, err)
	assert.Equal(t, quoted, out)
}

func TestWithdrawProtocolFeesZerosBuckets(t *testing.T) {
	p, err := NewPool(testPoolID(), 100, 4)
	require.NoError(t, err)
	_, err = p.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	_, err = p.Swap(100_000, true)
	require.NoError(t, err)

	a, b := p.WithdrawProtocolFees()
	assert.Greater(t, a, uint64(0))
	assert.Equal(t, uint64(0), b)

	a2, b2 := p.WithdrawProtocolFees()
	assert.Equal(t, uint64(0), a2)
	assert.Equal(t, uint64(0), b2)
}
