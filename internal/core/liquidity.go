package core

import (
	"fmt"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/event"
	"PoolLedger/internal/ledger"
	"PoolLedger/internal/pool"
)

// applyAddLiquidity consumes the caller's pending deposits at the pool ratio
// and mints pool shares to their settled balance. Pending amounts beyond the
// ratio stay in the ledger.
func (e *Exchange) applyAddLiquidity(c *event.AddLiquidity) (event.Result, []ledger.BalanceKey, error) {
	altID := e.registry.AltID()
	nativeIn := e.balances.Get(c.Caller, asset.Native)
	altIn := e.balances.Get(c.Caller, altID)

	next, quote, err := pool.AddLiquidity(e.pool, nativeIn, altIn, c.MinLiquidity, c.MaxAltAmount)
	if err != nil {
		return event.Result{}, nil, err
	}

	// Mint before debiting: a mint failure (LP balance overflow) must leave
	// the pending ledger untouched.
	if err := e.bank.Mint(c.Caller, e.registry.LPAssetID(), quote.LPMinted); err != nil {
		return event.Result{}, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !e.balances.Debit(c.Caller, asset.Native, quote.NativeIn) {
		panic("FATAL: native debit failed after liquidity quote")
	}
	if !e.balances.Debit(c.Caller, altID, quote.AltIn) {
		panic("FATAL: alt debit failed after liquidity quote")
	}
	e.pool = next

	touched := []ledger.BalanceKey{
		{Account: c.Caller, Asset: asset.Native},
		{Account: c.Caller, Asset: altID},
	}
	return event.Result{
		LPMinted:      quote.LPMinted,
		ReserveNative: next.ReserveNative,
		ReserveAlt:    next.ReserveAlt,
		LPSupply:      next.LPSupply,
	}, touched, nil
}

// applyRemoveLiquidity burns the caller's attached pool shares and pays out
// proportional reserve amounts to their settled balances.
func (e *Exchange) applyRemoveLiquidity(c *event.RemoveLiquidity) (event.Result, []ledger.BalanceKey, error) {
	next, quote, err := pool.RemoveLiquidity(e.pool, c.LPAmount, c.MinNativeOut, c.MinAltOut)
	if err != nil {
		return event.Result{}, nil, err
	}

	lpID := e.registry.LPAssetID()
	if e.bank.BalanceOf(c.Caller, lpID) < c.LPAmount {
		return event.Result{}, nil, fmt.Errorf("%w: holds %d pool shares, burning %d",
			ErrInsufficientBalance, e.bank.BalanceOf(c.Caller, lpID), c.LPAmount)
	}

	e.mustMove(c.Caller, e.contractAcct, lpID, c.LPAmount)
	if err := e.bank.Burn(e.contractAcct, lpID, c.LPAmount); err != nil {
		panic(fmt.Sprintf("FATAL: burn failed after custody transfer: %v", err))
	}
	e.mustMove(e.contractAcct, c.Caller, asset.Native, quote.NativeOut)
	e.mustMove(e.contractAcct, c.Caller, e.registry.AltID(), quote.AltOut)
	e.pool = next

	return event.Result{
		LPBurned:      quote.LPBurned,
		NativeOut:     quote.NativeOut,
		AltOut:        quote.AltOut,
		ReserveNative: next.ReserveNative,
		ReserveAlt:    next.ReserveAlt,
		LPSupply:      next.LPSupply,
	}, nil, nil
}
