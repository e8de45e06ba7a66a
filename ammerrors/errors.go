// Package ammerrors centralizes the error taxonomy shared by every
// component of the AMM core. Every pre-condition failure in fixedpoint,
// slippage, position, cppool, sspool, registry, feedistributor, factory
// and router returns one of these sentinels, wrapped with fmt.Errorf
// and %w where extra context is useful.
package ammerrors

import "errors"

var (
	// Configuration / setup
	ErrInvalidFee     = errors.New("ammcore: invalid fee")
	ErrInvalidFeeTier = errors.New("ammcore: invalid fee tier")
	ErrInvalidAmp     = errors.New("ammcore: invalid amplification factor")
	ErrPaused         = errors.New("ammcore: factory is paused")

	// Liquidity / swap preconditions
	ErrZeroLiquidity         = errors.New("ammcore: zero liquidity")
	ErrInsufficientLiquidity = errors.New("ammcore: insufficient liquidity")
	ErrInvalidRatio          = errors.New("ammcore: deposit ratio outside tolerance")
	ErrZeroAmountIn          = errors.New("ammcore: zero amount in")
	ErrZeroShares            = errors.New("ammcore: zero shares")
	ErrInsufficientShares    = errors.New("ammcore: insufficient shares")

	// Slippage / deadline
	ErrSlippageExceeded         = errors.New("ammcore: slippage exceeded")
	ErrPriceImpactTooHigh       = errors.New("ammcore: price impact too high")
	ErrDeadlineExpired          = errors.New("ammcore: deadline expired")
	ErrInvalidSlippageTolerance = errors.New("ammcore: invalid slippage tolerance")

	// Registry / positions
	ErrPoolMismatch     = errors.New("ammcore: position does not belong to pool")
	ErrPoolAlreadyExists = errors.New("ammcore: pool already exists")
	ErrPoolNotFound      = errors.New("ammcore: pool not found")

	// Fees
	ErrNoFeesToClaim = errors.New("ammcore: no fees to claim")
)
