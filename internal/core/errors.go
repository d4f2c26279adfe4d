package core

import (
	"errors"

	"PoolLedger/internal/pool"
)

// The exchange surfaces the pool package's failure taxonomy unchanged and adds
// the one failure only the custody layer can detect. errors.Is works across
// both packages.
var (
	ErrInvalidAmount    = pool.ErrInvalidAmount
	ErrInvalidLiquidity = pool.ErrInvalidLiquidity
	ErrSlippageExceeded = pool.ErrSlippageExceeded
	ErrBelowMinimum     = pool.ErrBelowMinimum
	ErrUninitialized    = pool.ErrUninitialized

	// ErrInsufficientBalance rejects a call that would spend more than the
	// caller holds, settled or pending.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
