package pool

import "errors"

// Error taxonomy shared by the pool math and the exchange entry points.
// Every failed check aborts the whole call with no state change.
var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidLiquidity = errors.New("invalid liquidity")
	ErrSlippageExceeded = errors.New("slippage exceeded")
	ErrBelowMinimum     = errors.New("liquidity minted below minimum")
	ErrUninitialized    = errors.New("pool is uninitialized")
)
