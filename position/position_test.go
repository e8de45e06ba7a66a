package position

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoolID() common.Hash { return common.HexToHash("0x01") }
func testPosID() common.Hash  { return common.HexToHash("0xaa") }

func TestMintRejectsZeroShares(t *testing.T) {
	_, err := Mint(testPosID(), testPoolID(), 0, 0, 0, 100, 100, 1, nil)
	require.Error(t, err)
}

func TestMintSetsCursorsFromPool(t *testing.T) {
	p, err := Mint(testPosID(), testPoolID(), 1000, 42, 7, 500, 500, 1, []byte("lp1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), p.LastFeeIndexA)
	assert.Equal(t, uint64(7), p.LastFeeIndexB)

	// No fees accrued since mint => pending is zero at the same indices.
	a, b := p.CalculatePendingFees(42, 7)
	assert.Zero(t, a)
	assert.Zero(t, b)
}

func TestReduceSharesFailsWhenOverdrawn(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 100, 0, 0, 1, 1, 1, nil)
	require.Error(t, p.ReduceShares(101))
	require.NoError(t, p.ReduceShares(100))
	assert.Zero(t, p.Shares)
}

func TestBurnRequiresZeroShares(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 100, 0, 0, 1, 1, 1, nil)
	require.Error(t, Burn(p))
	require.NoError(t, p.ReduceShares(100))
	require.NoError(t, Burn(p))
}

func TestCalculatePositionValueZeroTotalShares(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 100, 0, 0, 1, 1, 1, nil)
	a, b := p.CalculatePositionValue(1000, 1000, 0)
	assert.Zero(t, a)
	assert.Zero(t, b)
}

func TestCalculatePositionValueProportional(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 250, 0, 0, 1, 1, 1, nil)
	a, b := p.CalculatePositionValue(1_000_000, 2_000_000, 1_000_000)
	assert.Equal(t, uint64(250), a)
	assert.Equal(t, uint64(500), b)
}

func TestCalculatePendingFeesProportionalToShares(t *testing.T) {
	p1, _ := Mint(testPosID(), testPoolID(), 600, 0, 0, 1, 1, 1, nil)
	p2, _ := Mint(testPosID(), testPoolID(), 400, 0, 0, 1, 1, 1, nil)

	a1, _ := p1.CalculatePendingFees(100, 0)
	a2, _ := p2.CalculatePendingFees(100, 0)

	// P7: ratio of claimable amounts equals ratio of shares (60:40),
	// truncation permitting.
	assert.InDelta(t, float64(a1)/float64(a2), 1.5, 0.05)
}

func TestCalculateImpermanentLoss(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 100, 0, 0, 1000, 1000, 1, nil)

	magnitude, isLoss := p.CalculateImpermanentLoss(1100, 1100)
	assert.False(t, isLoss)
	assert.Equal(t, uint64(1000), magnitude) // (2200-2000)*10000/2000 = 1000 bps

	magnitude, isLoss = p.CalculateImpermanentLoss(900, 900)
	assert.True(t, isLoss)
	assert.Equal(t, uint64(1000), magnitude)
}

func TestUpdateInitialAmountsAdditive(t *testing.T) {
	p, _ := Mint(testPosID(), testPoolID(), 100, 0, 0, 1000, 500, 1, nil)
	p.UpdateInitialAmounts(10, 20)
	assert.Equal(t, uint64(1010), p.InitialAmountA)
	assert.Equal(t, uint64(520), p.InitialAmountB)
}
