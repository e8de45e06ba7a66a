// Package events defines the domain events emitted at every successful
// state transition in cppool, sspool, registry, feedistributor and
// router (spec.md §6), and the Sink interface that broadcasts them to
// observers.
//
// This generalizes the teacher's engine.State broadcast — a single
// struct pushed down a channel to subscribers (see
// cmd/client/main.go's `case <-client.State():`) — into a typed,
// per-transition event instead of one coarse-grained state blob, since
// the core has no single "State" to diff and republish; it has many
// independent pools each emitting their own transitions.
package events

import "github.com/defistate/amm-core/ammtypes"

// Event is implemented by every concrete event struct below.
type Event interface {
	// Kind returns a stable, human-readable event name, used for
	// metrics labeling and logging.
	Kind() string
}

type PoolCreated struct {
	PoolID    ammtypes.PoolID
	FeeBPS    uint64
	PoolIndex uint64
	Creator   ammtypes.TokenID
}

func (PoolCreated) Kind() string { return "PoolCreated" }

type LiquidityAdded struct {
	PoolID       ammtypes.PoolID
	AmountA      uint64
	AmountB      uint64
	SharesMinted uint64
	TotalShares  uint64
}

func (LiquidityAdded) Kind() string { return "LiquidityAdded" }

type LiquidityRemoved struct {
	PoolID       ammtypes.PoolID
	AmountA      uint64
	AmountB      uint64
	SharesBurned uint64
	TotalShares  uint64
}

func (LiquidityRemoved) Kind() string { return "LiquidityRemoved" }

type SwapExecuted struct {
	PoolID     ammtypes.PoolID
	AmountIn   uint64
	AmountOut  uint64
	FeeAmount  uint64
	AToB       bool
}

func (SwapExecuted) Kind() string { return "SwapExecuted" }

type PositionMinted struct {
	PositionID ammtypes.PositionID
	PoolID     ammtypes.PoolID
	LPShares   uint64
	Owner      ammtypes.TokenID
}

func (PositionMinted) Kind() string { return "PositionMinted" }

type PositionBurned struct {
	PositionID   ammtypes.PositionID
	PoolID       ammtypes.PoolID
	FinalShares  uint64
}

func (PositionBurned) Kind() string { return "PositionBurned" }

type FeesClaimed struct {
	PositionID     ammtypes.PositionID
	PoolID         ammtypes.PoolID
	AmountA        uint64
	AmountB        uint64
	AutoCompounded bool
}

func (FeesClaimed) Kind() string { return "FeesClaimed" }

type FeesCompounded struct {
	PositionID ammtypes.PositionID
	PoolID     ammtypes.PoolID
	AmountA    uint64
	AmountB    uint64
	NewShares  uint64
}

func (FeesCompounded) Kind() string { return "FeesCompounded" }

type SharesUpdated struct {
	PositionID ammtypes.PositionID
	OldShares  uint64
	NewShares  uint64
}

func (SharesUpdated) Kind() string { return "SharesUpdated" }

type PoolRegistered struct {
	PoolID   ammtypes.PoolID
	TokenLo  ammtypes.TokenID
	TokenHi  ammtypes.TokenID
	FeeBPS   uint64
	Creator  ammtypes.TokenID
}

func (PoolRegistered) Kind() string { return "PoolRegistered" }

type PoolDeactivated struct {
	PoolID ammtypes.PoolID
}

func (PoolDeactivated) Kind() string { return "PoolDeactivated" }

type PoolReactivated struct {
	PoolID ammtypes.PoolID
}

func (PoolReactivated) Kind() string { return "PoolReactivated" }

// Sink receives events as they are emitted. Implementations must not
// block the emitting operation for long — ChannelBus buffers and drops
// on overflow rather than applying backpressure to pool operations,
// preserving the single-operation atomicity contract of spec.md §5.
type Sink interface {
	Emit(Event)
}

// NopSink discards every event. It is the default for components
// constructed without an explicit sink.
type NopSink struct{}

func (NopSink) Emit(Event) {}
