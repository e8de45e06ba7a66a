// Package router composes C3–C8 into the user-level workflows of
// spec.md §4.9: creating a pool and seeding it in one call, adding or
// removing liquidity against a position, auto-slippage swaps, and the
// claim/compound paths.
//
// The Router struct plays the same "owns the subsystems, wires
// logging/metrics/events through them" role the teacher's
// cmd/client/main.go gives its top-level Client: a single place that
// holds the registry, factory, distributor and a log/slog.Logger.
// CreatePoolFull and SwapAutoSlippage log through that logger the way
// main.go logs state transitions from its select loop; the other
// methods report only through their return values and emitted events.
package router

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/defistate/amm-core/ammerrors"
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/config"
	"github.com/defistate/amm-core/cppool"
	"github.com/defistate/amm-core/events"
	"github.com/defistate/amm-core/factory"
	"github.com/defistate/amm-core/feedistributor"
	"github.com/defistate/amm-core/metrics"
	"github.com/defistate/amm-core/position"
	"github.com/defistate/amm-core/registry"
	"github.com/defistate/amm-core/slippage"
	"github.com/defistate/amm-core/sspool"
	"github.com/prometheus/client_golang/prometheus"
)

// EventBufferSize is the default buffer depth for a Router's
// events.ChannelBus, matching the teacher's own client.Client.State()
// channel depth in cmd/client/main.go.
const EventBufferSize = 256

// Pool is the common surface cppool.Pool and sspool.Pool both satisfy;
// the router is agnostic to which curve a given pool id was minted
// with.
type Pool interface {
	PoolIdentifier() ammtypes.PoolID
	Snapshot() (reserveA, reserveB, totalShares, feeIndexA, feeIndexB uint64)
	ProvideInitialLiquidity(a, b uint64) (uint64, error)
	AddLiquidityTolerant(a, b, toleranceBPS uint64) (uint64, error)
	RemoveLiquidity(burn uint64) (amountA, amountB uint64, err error)
	GetAmountOut(amountIn uint64, aToB bool) (amountOut, fee uint64, err error)
	SwapWithSlippage(amountIn uint64, aToB bool, minAmountOut uint64) (amountOut uint64, err error)
	WithdrawProtocolFees() (amountA, amountB uint64)
}

// Router owns the registry, factory and fee distributor, and tracks
// every pool and position it has ever created.
type Router struct {
	mu sync.Mutex

	Registry    *registry.Registry
	Factory     *factory.Factory
	Distributor *feedistributor.Distributor
	Config      *config.EngineConfig

	pools      map[ammtypes.PoolID]Pool
	positions  map[ammtypes.PositionID]*position.Position
	mintNonces map[ammtypes.PoolID]uint64

	Sink    events.Sink
	Bus     *events.ChannelBus
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// New constructs a Router around the given registry and factory. cfg
// (config.Default() when nil) is kept as Router.Config for the host; no
// router operation reads it, and slippage caps and the protocol fee
// share come from the slippage and fixedpoint constants. A nil logger defaults
// to slog.Default(), matching the teacher's own nil-logger fallback in
// cmd/client/main.go.
//
// promReg registers the carried Prometheus metrics (metrics.New); a
// nil promReg defaults to a fresh prometheus.NewRegistry() rather than
// prometheus.DefaultRegisterer, so constructing more than one Router
// in a process (or in a test binary) never collides on collector
// registration. New wires an events.MultiSink of a fresh
// events.ChannelBus plus the registered metrics.Metrics into the
// registry, factory, distributor and every pool the factory mints, so
// PoolCreated, PoolRegistered/Deactivated/Reactivated,
// FeesClaimed/Compounded and SwapExecuted/LiquidityAdded/Removed all
// reach a real observer instead of events.NopSink{}.
func New(reg *registry.Registry, f *factory.Factory, cfg *config.EngineConfig, logger *slog.Logger, promReg prometheus.Registerer) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if promReg == nil {
		promReg = prometheus.NewRegistry()
	}

	m, err := metrics.New(promReg)
	if err != nil {
		return nil, fmt.Errorf("router: registering metrics: %w", err)
	}
	bus := events.NewChannelBus(EventBufferSize)
	sink := events.MultiSink{bus, m}

	reg.Sink = sink
	f.Sink = sink
	distributor := feedistributor.New()
	distributor.Sink = sink

	return &Router{
		Registry:    reg,
		Factory:     f,
		Distributor: distributor,
		Config:      cfg,
		pools:       make(map[ammtypes.PoolID]Pool),
		positions:   make(map[ammtypes.PositionID]*position.Position),
		mintNonces:  make(map[ammtypes.PoolID]uint64),
		Sink:        sink,
		Bus:         bus,
		Metrics:     m,
		Logger:      logger,
	}, nil
}

func (r *Router) emit(e events.Event) {
	if r.Sink != nil {
		r.Sink.Emit(e)
	}
}

func (r *Router) nextPositionID(poolID ammtypes.PoolID) ammtypes.PositionID {
	nonce := r.mintNonces[poolID]
	r.mintNonces[poolID] = nonce + 1
	return ammtypes.DerivePositionID(poolID, nonce)
}

// CreatePoolFull registers, creates and seeds a new constant-product
// pool in one call, minting the seeding position directly (spec.md
// §4.9: "create_pool_full").
func (r *Router) CreatePoolFull(tokenA, tokenB ammtypes.TokenID, feeBPS, a, b uint64, creator, recipient ammtypes.TokenID, now uint64) (ammtypes.PoolID, ammtypes.PositionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lo, hi := ammtypes.CanonicalPair(tokenA, tokenB)
	if r.Registry.PoolExists(lo, hi, feeBPS) {
		return ammtypes.PoolID{}, ammtypes.PositionID{}, ammerrors.ErrPoolAlreadyExists
	}

	poolID := ammtypes.DerivePoolID(lo, hi, feeBPS)
	pool, err := r.Factory.CreatePool(poolID, feeBPS, creator)
	if err != nil {
		r.Logger.Warn("create_pool_full: factory rejected pool", "fee_bps", feeBPS, "error", err)
		return ammtypes.PoolID{}, ammtypes.PositionID{}, err
	}

	sharesForCaller, err := pool.ProvideInitialLiquidity(a, b)
	if err != nil {
		return ammtypes.PoolID{}, ammtypes.PositionID{}, err
	}

	if err := r.Registry.RegisterPool(poolID, lo, hi, feeBPS, creator, now); err != nil {
		return ammtypes.PoolID{}, ammtypes.PositionID{}, err
	}

	r.pools[poolID] = pool

	positionID := r.nextPositionID(poolID)
	_, _, _, idxA, idxB := pool.Snapshot()
	pos, err := position.Mint(positionID, poolID, sharesForCaller, idxA, idxB, a, b, now, nil)
	if err != nil {
		return ammtypes.PoolID{}, ammtypes.PositionID{}, err
	}
	r.positions[positionID] = pos

	r.emit(events.PositionMinted{PositionID: positionID, PoolID: poolID, LPShares: sharesForCaller, Owner: creator})
	r.Logger.Info("pool created", "pool_id", poolID.Hex(), "fee_bps", feeBPS, "position_id", positionID.Hex())
	return poolID, positionID, nil
}

// RegisterExistingPool wires an already-constructed stable-swap pool
// (or any other Pool implementation) into the router without going
// through the constant-product factory, for hosts that seed stable
// pools out of band. The pool must already be registered in the
// router's registry.
func (r *Router) RegisterExistingPool(pool Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[pool.PoolIdentifier()] = pool
}

func (r *Router) lookupPool(poolID ammtypes.PoolID) (Pool, error) {
	pool, ok := r.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: pool %s", ammerrors.ErrPoolNotFound, poolID.Hex())
	}
	return pool, nil
}

func (r *Router) lookupPosition(positionID ammtypes.PositionID) (*position.Position, error) {
	pos, ok := r.positions[positionID]
	if !ok {
		return nil, fmt.Errorf("%w: position %s", ammerrors.ErrPoolNotFound, positionID.Hex())
	}
	return pos, nil
}

// AddLiquidityNewPosition deposits (a,b) into an existing pool, minting
// a brand-new position for owner.
func (r *Router) AddLiquidityNewPosition(poolID ammtypes.PoolID, a, b, toleranceBPS uint64, owner ammtypes.TokenID, now uint64) (ammtypes.PositionID, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool, err := r.lookupPool(poolID)
	if err != nil {
		return ammtypes.PositionID{}, 0, err
	}

	shares, err := pool.AddLiquidityTolerant(a, b, toleranceBPS)
	if err != nil {
		return ammtypes.PositionID{}, 0, err
	}

	positionID := r.nextPositionID(poolID)
	_, _, _, idxA, idxB := pool.Snapshot()
	pos, err := position.Mint(positionID, poolID, shares, idxA, idxB, a, b, now, nil)
	if err != nil {
		return ammtypes.PositionID{}, 0, err
	}
	r.positions[positionID] = pos

	r.emit(events.PositionMinted{PositionID: positionID, PoolID: poolID, LPShares: shares, Owner: owner})
	return positionID, shares, nil
}

// AddLiquidityExistingPosition deposits (a,b) into positionID's pool,
// crediting the resulting shares and initial amounts to the existing
// position rather than minting a new one. Fails with ErrPoolMismatch
// if poolID does not match the position's bound pool.
func (r *Router) AddLiquidityExistingPosition(poolID ammtypes.PoolID, positionID ammtypes.PositionID, a, b, toleranceBPS uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return 0, err
	}
	if pos.PoolID != poolID {
		return 0, ammerrors.ErrPoolMismatch
	}

	pool, err := r.lookupPool(poolID)
	if err != nil {
		return 0, err
	}

	shares, err := pool.AddLiquidityTolerant(a, b, toleranceBPS)
	if err != nil {
		return 0, err
	}

	pos.AddShares(shares)
	pos.UpdateInitialAmounts(a, b)

	r.emit(events.SharesUpdated{PositionID: positionID, OldShares: pos.Shares - shares, NewShares: pos.Shares})
	return shares, nil
}

// RemoveLiquidityPartial burns `burn` shares from positionID against
// its bound pool, decrementing the position's share count.
func (r *Router) RemoveLiquidityPartial(positionID ammtypes.PositionID, burn uint64) (amountA, amountB uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return 0, 0, err
	}
	pool, err := r.lookupPool(pos.PoolID)
	if err != nil {
		return 0, 0, err
	}

	if err := pos.ReduceShares(burn); err != nil {
		return 0, 0, err
	}

	amountA, amountB, err = pool.RemoveLiquidity(burn)
	if err != nil {
		pos.AddShares(burn) // roll back the reservation
		return 0, 0, err
	}

	r.emit(events.SharesUpdated{PositionID: positionID, OldShares: pos.Shares + burn, NewShares: pos.Shares})
	return amountA, amountB, nil
}

// RemoveAllAndBurn withdraws all of positionID's shares and destroys
// it, failing with ErrSlippageExceeded if either returned amount falls
// below its minimum. The minimums are checked against the position's
// pro-rata value before any liquidity is removed, so a failed check
// leaves both the pool and the position unchanged.
func (r *Router) RemoveAllAndBurn(positionID ammtypes.PositionID, minAmountA, minAmountB uint64) (amountA, amountB uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return 0, 0, err
	}
	pool, err := r.lookupPool(pos.PoolID)
	if err != nil {
		return 0, 0, err
	}

	burn := pos.Shares
	reserveA, reserveB, totalShares, _, _ := pool.Snapshot()
	expectedA, expectedB := pos.CalculatePositionValue(reserveA, reserveB, totalShares)
	if err := slippage.EnforceMinOutput(expectedA, minAmountA); err != nil {
		return 0, 0, err
	}
	if err := slippage.EnforceMinOutput(expectedB, minAmountB); err != nil {
		return 0, 0, err
	}

	amountA, amountB, err = pool.RemoveLiquidity(burn)
	if err != nil {
		return 0, 0, err
	}

	if err := pos.ReduceShares(burn); err != nil {
		return 0, 0, err
	}
	if err := position.Burn(pos); err != nil {
		return 0, 0, err
	}
	delete(r.positions, positionID)

	r.emit(events.PositionBurned{PositionID: positionID, PoolID: pos.PoolID, FinalShares: 0})
	return amountA, amountB, nil
}

// SwapAutoSlippage quotes amountIn against poolID, derives a minimum
// output from slipBPS, then executes the swap with that minimum
// enforced (spec.md §4.9: "quote -> min-out -> slippage-swap").
func (r *Router) SwapAutoSlippage(poolID ammtypes.PoolID, amountIn, slipBPS uint64, aToB bool) (amountOut uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pool, err := r.lookupPool(poolID)
	if err != nil {
		return 0, err
	}

	quoted, _, err := pool.GetAmountOut(amountIn, aToB)
	if err != nil {
		return 0, err
	}

	minOut, err := slippage.CalculateMinOutput(quoted, slipBPS)
	if err != nil {
		return 0, err
	}

	amountOut, err = pool.SwapWithSlippage(amountIn, aToB, minOut)
	if err != nil {
		r.Logger.Warn("swap_auto_slippage failed", "pool_id", poolID.Hex(), "error", err)
		return 0, err
	}
	return amountOut, nil
}

// ClaimFeesForPosition claims positionID's pending fees from its bound
// pool.
func (r *Router) ClaimFeesForPosition(positionID ammtypes.PositionID) (claimedA, claimedB uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return 0, 0, err
	}
	pool, err := r.lookupPool(pos.PoolID)
	if err != nil {
		return 0, 0, err
	}
	return r.Distributor.Claim(pool, pos)
}

// ClaimAndCompound claims positionID's pending fees and, if both sides
// are non-zero, reinvests them as new liquidity.
func (r *Router) ClaimAndCompound(positionID ammtypes.PositionID, toleranceBPS uint64) (newShares, claimedA, claimedB uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return 0, 0, 0, err
	}
	pool, err := r.lookupPool(pos.PoolID)
	if err != nil {
		return 0, 0, 0, err
	}
	return r.Distributor.ClaimAndCompound(pool, pos, toleranceBPS)
}

// Position returns a copy of positionID's current state, for
// read-only inspection by a host.
func (r *Router) Position(positionID ammtypes.PositionID) (position.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos, err := r.lookupPosition(positionID)
	if err != nil {
		return position.Position{}, err
	}
	return *pos, nil
}

var _ Pool = (*cppool.Pool)(nil)
var _ Pool = (*sspool.Pool)(nil)
