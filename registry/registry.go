// Package registry implements the typed pool registry of spec.md §4.6:
// a canonical-key map from (token_lo, token_hi, fee_bps) to pool id,
// plus an active/inactive flag per registered pool.
//
// Active/inactive state reuses the teacher's bit-packed []uint64
// bitset.BitSet type, extended with a Grow method (see bitset/bitset.go)
// so a registry's flag set can outgrow its initial capacity as pools
// are registered — indexed by a pool's registration slot, rather than
// the fixed-size field-presence mask the teacher used it for. Routing
// across multiple pools is an explicit spec.md Non-goal, so this
// registry intentionally stays a flat map: it never builds the
// teacher's own multi-hop pool graph.
package registry

import (
	"fmt"
	"sync"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/bitset"
	"github.com/defistate/amm-core/events"
)

// key is the canonicalized registry key: ordered token pair plus fee
// tier (spec.md §4.6 — same pair, different fee tier, is a different
// key).
type key struct {
	tokenLo ammtypes.TokenID
	tokenHi ammtypes.TokenID
	feeBPS  uint64
}

// entry is everything the registry tracks about one registered pool
// (spec.md §3/§4.6: pool_id, fee_bps, created_at, creator, is_active —
// is_active lives in the active bitset, keyed by slot, rather than
// duplicated here).
type entry struct {
	poolID    ammtypes.PoolID
	feeBPS    uint64
	createdAt uint64
	creator   ammtypes.TokenID
	slot      uint64
}

// Registry is the canonical-key pool directory. Safe for concurrent
// use.
type Registry struct {
	mu sync.Mutex

	byKey    map[key]entry
	allPools []ammtypes.PoolID

	active     bitset.BitSet
	activeCap  uint64
	activeCnt  uint64

	Sink events.Sink
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		byKey:     make(map[key]entry),
		active:    bitset.NewBitSet(64),
		activeCap: 64,
		Sink:      events.NopSink{},
	}
}

func (r *Registry) emit(e events.Event) {
	if r.Sink != nil {
		r.Sink.Emit(e)
	}
}

func makeKey(a, b ammtypes.TokenID, feeBPS uint64) key {
	lo, hi := ammtypes.CanonicalPair(a, b)
	return key{tokenLo: lo, tokenHi: hi, feeBPS: feeBPS}
}

// PoolExists reports whether a pool already exists for the
// canonicalized (a, b, feeBPS) key.
func (r *Registry) PoolExists(a, b ammtypes.TokenID, feeBPS uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[makeKey(a, b, feeBPS)]
	return ok
}

// RegisterPool registers poolID under the canonicalized (a, b, feeBPS)
// key, marking it active. now is stamped onto the entry as created_at.
// Fails with ErrPoolAlreadyExists on a duplicate key.
func (r *Registry) RegisterPool(poolID ammtypes.PoolID, a, b ammtypes.TokenID, feeBPS uint64, creator ammtypes.TokenID, now uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := makeKey(a, b, feeBPS)
	if _, exists := r.byKey[k]; exists {
		return fmt.Errorf("%w: pair %x/%x fee %d", ammerrors.ErrPoolAlreadyExists, k.tokenLo, k.tokenHi, feeBPS)
	}

	slot := uint64(len(r.allPools))
	r.growActiveIfNeeded(slot)

	r.byKey[k] = entry{poolID: poolID, feeBPS: feeBPS, createdAt: now, creator: creator, slot: slot}
	r.allPools = append(r.allPools, poolID)
	r.active.Set(slot)
	r.activeCnt++

	r.emit(events.PoolRegistered{
		PoolID:  poolID,
		TokenLo: k.tokenLo,
		TokenHi: k.tokenHi,
		FeeBPS:  feeBPS,
		Creator: creator,
	})
	return nil
}

// growActiveIfNeeded doubles the active flag set's capacity until it
// can hold slot. Must be called with r.mu held.
func (r *Registry) growActiveIfNeeded(slot uint64) {
	if slot < r.activeCap {
		return
	}
	newCap := r.activeCap
	for slot >= newCap {
		newCap *= 2
	}
	r.active = r.active.Grow(newCap)
	r.activeCap = newCap
}

// GetPool resolves the canonicalized (a, b, feeBPS) key to a pool id.
// Fails with ErrPoolNotFound if absent.
func (r *Registry) GetPool(a, b ammtypes.TokenID, feeBPS uint64) (ammtypes.PoolID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return ammtypes.PoolID{}, fmt.Errorf("%w: pair/fee %d", ammerrors.ErrPoolNotFound, feeBPS)
	}
	return e.poolID, nil
}

// TryGetPool resolves the canonicalized key, returning (false,
// zero-value) instead of failing when absent.
func (r *Registry) TryGetPool(a, b ammtypes.TokenID, feeBPS uint64) (bool, ammtypes.PoolID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return false, ammtypes.PoolID{}
	}
	return true, e.poolID
}

// DeactivatePool marks the pool for (a, b, feeBPS) inactive.
// Idempotent: deactivating an already-inactive pool is a no-op success.
func (r *Registry) DeactivatePool(a, b ammtypes.TokenID, feeBPS uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return fmt.Errorf("%w: pair/fee %d", ammerrors.ErrPoolNotFound, feeBPS)
	}
	if r.active.IsSet(e.slot) {
		r.active.Unset(e.slot)
		r.activeCnt--
		r.emit(events.PoolDeactivated{PoolID: e.poolID})
	}
	return nil
}

// ReactivatePool marks the pool for (a, b, feeBPS) active. Idempotent.
func (r *Registry) ReactivatePool(a, b ammtypes.TokenID, feeBPS uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return fmt.Errorf("%w: pair/fee %d", ammerrors.ErrPoolNotFound, feeBPS)
	}
	if !r.active.IsSet(e.slot) {
		r.active.Set(e.slot)
		r.activeCnt++
		r.emit(events.PoolReactivated{PoolID: e.poolID})
	}
	return nil
}

// IsActive reports whether the pool for (a, b, feeBPS) is currently
// active. Fails with ErrPoolNotFound if the pool was never registered.
func (r *Registry) IsActive(a, b ammtypes.TokenID, feeBPS uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return false, fmt.Errorf("%w: pair/fee %d", ammerrors.ErrPoolNotFound, feeBPS)
	}
	return r.active.IsSet(e.slot), nil
}

// PoolInfo returns the full registry entry for (a, b, feeBPS): the
// pool id, fee tier, creator, creation timestamp and current active
// flag (spec.md §3/§4.6's `(pool_id, fee_bps, created_at, creator,
// is_active)` tuple). Fails with ErrPoolNotFound if the pool was never
// registered.
func (r *Registry) PoolInfo(a, b ammtypes.TokenID, feeBPS uint64) (poolID ammtypes.PoolID, tierBPS uint64, creator ammtypes.TokenID, createdAt uint64, isActive bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[makeKey(a, b, feeBPS)]
	if !ok {
		return ammtypes.PoolID{}, 0, ammtypes.TokenID{}, 0, false, fmt.Errorf("%w: pair/fee %d", ammerrors.ErrPoolNotFound, feeBPS)
	}
	return e.poolID, e.feeBPS, e.creator, e.createdAt, r.active.IsSet(e.slot), nil
}

// TotalCount returns the number of pools ever registered.
func (r *Registry) TotalCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.allPools))
}

// ActiveCount returns the number of currently active pools.
func (r *Registry) ActiveCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCnt
}

// AllPools returns a defensive copy of every pool id ever registered,
// in registration order.
func (r *Registry) AllPools() []ammtypes.PoolID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ammtypes.PoolID, len(r.allPools))
	copy(out, r.allPools)
	return out
}
