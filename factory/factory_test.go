package factory

import (
	"testing"

	"github.com/defistate/amm-core/events"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink is a minimal events.Sink that remembers every event it
// sees, for tests that need to assert an event actually reached a
// consumer rather than events.NopSink{}.
type recordingSink struct {
	events []events.Event
}

func (s *recordingSink) Emit(e events.Event) {
	s.events = append(s.events, e)
}

var recipient = common.HexToAddress("0x9999999999999999999999999999999999999999")

func TestCreatePoolRejectsUnlistedTier(t *testing.T) {
	f, err := New(DefaultFeeTiersBPS, recipient)
	require.NoError(t, err)

	_, err = f.CreatePool(common.HexToHash("0x01"), 77, recipient)
	assert.Error(t, err)
}

func TestCreatePoolSucceedsForAllowedTier(t *testing.T) {
	f, err := New(DefaultFeeTiersBPS, recipient)
	require.NoError(t, err)

	pool, err := f.CreatePool(common.HexToHash("0x01"), 30, recipient)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), pool.FeeBPS)
	assert.Equal(t, uint64(1), f.PoolCount())
}

func TestCreatePoolFailsWhenPaused(t *testing.T) {
	f, err := New(DefaultFeeTiersBPS, recipient)
	require.NoError(t, err)
	f.Pause()

	_, err = f.CreatePool(common.HexToHash("0x01"), 30, recipient)
	assert.Error(t, err)

	f.Unpause()
	_, err = f.CreatePool(common.HexToHash("0x01"), 30, recipient)
	assert.NoError(t, err)
}

func TestNewRejectsTierAboveMax(t *testing.T) {
	_, err := New([]uint64{5, 2000}, recipient)
	assert.Error(t, err)
}

// TestCreatePoolThreadsFactorySinkIntoPool guards against pool events
// silently reaching events.NopSink{}: a pool minted through a factory
// with a real Sink must emit its own SwapExecuted/LiquidityAdded
// events to that same Sink, not its own default.
func TestCreatePoolThreadsFactorySinkIntoPool(t *testing.T) {
	f, err := New(DefaultFeeTiersBPS, recipient)
	require.NoError(t, err)

	sink := &recordingSink{}
	f.Sink = sink

	pool, err := f.CreatePool(common.HexToHash("0x01"), 30, recipient)
	require.NoError(t, err)
	require.NotNil(t, pool.Sink)

	_, err = pool.ProvideInitialLiquidity(1_000_000, 1_000_000)
	require.NoError(t, err)

	foundLiquidityAdded := false
	for _, e := range sink.events {
		if _, ok := e.(events.LiquidityAdded); ok {
			foundLiquidityAdded = true
		}
	}
	assert.True(t, foundLiquidityAdded, "expected the pool's LiquidityAdded event to reach the factory's sink")
}

func TestSetFeeRecipient(t *testing.T) {
	f, err := New(DefaultFeeTiersBPS, recipient)
	require.NoError(t, err)

	other := common.HexToAddress("0x8888888888888888888888888888888888888888")
	f.SetFeeRecipient(other)
	assert.Equal(t, other, f.FeeRecipient())
}
