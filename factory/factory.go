// Package factory implements the pool factory of spec.md §4.8: a
// fee-tier allowlist dispatch, a pause flag, a pool counter and a fee
// recipient.
//
// The fee-tier allowlist is a generalization of the teacher's
// patcher.StatePatcherConfig dispatch-table pattern (validated once at
// construction, defensively copied, looked up by key at call time)
// repurposed from "op code -> patch function" to "fee tier bps ->
// constant-product pool constructor".
package factory

import (
	"fmt"
	"sync"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/cppool"
	"github.com/defistate/amm-core/events"
)

// DefaultFeeTiersBPS are the three recognized constant-product fee
// tiers (spec.md §4.8).
var DefaultFeeTiersBPS = []uint64{5, 30, 100}

// Factory mints constant-product pools at an allowlisted fee tier,
// tracking a global pool counter and pause flag.
type Factory struct {
	mu sync.Mutex

	allowedTiers map[uint64]struct{}
	poolCount    uint64
	paused       bool
	feeRecipient ammtypes.TokenID

	Sink events.Sink
}

// New builds a Factory from feeTiersBPS (a defensive copy is taken, so
// the caller's slice may be mutated freely afterward), the same
// validate-once-then-copy shape the teacher's
// NewStatePatcher(StatePatcherConfig) applies to its dispatch table.
func New(feeTiersBPS []uint64, feeRecipient ammtypes.TokenID) (*Factory, error) {
	allowed := make(map[uint64]struct{}, len(feeTiersBPS))
	for _, tier := range feeTiersBPS {
		if tier > cppool.MaxFeeBPS {
			return nil, fmt.Errorf("%w: tier %d exceeds max %d", ammerrors.ErrInvalidFeeTier, tier, cppool.MaxFeeBPS)
		}
		allowed[tier] = struct{}{}
	}
	return &Factory{
		allowedTiers: allowed,
		feeRecipient: feeRecipient,
		Sink:         events.NopSink{},
	}, nil
}

func (f *Factory) emit(e events.Event) {
	if f.Sink != nil {
		f.Sink.Emit(e)
	}
}

// CreatePool mints a new empty constant-product pool at feeBPS, which
// must be one of the factory's allowlisted tiers. Fails with Paused if
// the factory is currently paused. The new pool's Sink is set to the
// factory's own Sink, so swap/liquidity events emitted by pools minted
// through this factory reach the same observer as PoolCreated.
func (f *Factory) CreatePool(id ammtypes.PoolID, feeBPS uint64, creator ammtypes.TokenID) (*cppool.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.paused {
		return nil, ammerrors.ErrPaused
	}
	if _, ok := f.allowedTiers[feeBPS]; !ok {
		return nil, fmt.Errorf("%w: %d bps", ammerrors.ErrInvalidFeeTier, feeBPS)
	}

	pool, err := cppool.NewPool(id, feeBPS)
	if err != nil {
		return nil, err
	}
	pool.Sink = f.Sink

	f.poolCount++
	poolIndex := f.poolCount

	f.emit(events.PoolCreated{
		PoolID:    id,
		FeeBPS:    feeBPS,
		PoolIndex: poolIndex,
		Creator:   creator,
	})
	return pool, nil
}

// Pause stops further pool creation. Idempotent.
func (f *Factory) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
}

// Unpause resumes pool creation. Idempotent.
func (f *Factory) Unpause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
}

// IsPaused reports the factory's current pause state.
func (f *Factory) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

// PoolCount returns the number of pools this factory has ever created.
func (f *Factory) PoolCount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.poolCount
}

// FeeRecipient returns the address the protocol-fee withdrawal path
// pays out to.
func (f *Factory) FeeRecipient() ammtypes.TokenID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feeRecipient
}

// SetFeeRecipient updates the protocol's fee recipient address.
func (f *Factory) SetFeeRecipient(recipient ammtypes.TokenID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeRecipient = recipient
}

// IsAllowedTier reports whether feeBPS is one of the factory's
// recognized fee tiers.
func (f *Factory) IsAllowedTier(feeBPS uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.allowedTiers[feeBPS]
	return ok
}
