package core

import (
	"fmt"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/event"
	"PoolLedger/internal/ledger"
	"PoolLedger/internal/pool"
)

// applySwap trades the caller's attached coins against the pool. The trade
// direction follows from which pooled asset was attached.
func (e *Exchange) applySwap(c *event.Swap) (event.Result, []ledger.BalanceKey, error) {
	dir, err := e.directionOf(c.AssetIn)
	if err != nil {
		return event.Result{}, nil, err
	}
	return e.executeSwap(c.Caller, c.AssetIn, dir, c.AmountIn, c.MinOutput, c.Curve)
}

// applySwapUsingLiquidity trades between an explicitly named pair. Both sides
// must be the pool's assets and must differ; the attached asset is the input.
func (e *Exchange) applySwapUsingLiquidity(c *event.SwapUsingLiquidity) (event.Result, []ledger.BalanceKey, error) {
	if c.AssetIn == c.AssetOut {
		return event.Result{}, nil, fmt.Errorf("%w: identical swap pair", ErrInvalidLiquidity)
	}
	if !e.isPooled(c.AssetOut) {
		return event.Result{}, nil, fmt.Errorf("%w: output asset %s is not pooled", ErrInvalidLiquidity, c.AssetOut)
	}
	dir, err := e.directionOf(c.AssetIn)
	if err != nil {
		return event.Result{}, nil, err
	}
	return e.executeSwap(c.Caller, c.AssetIn, dir, c.AmountIn, c.MinOutput, c.Curve)
}

func (e *Exchange) executeSwap(
	caller uuid.UUID, assetIn asset.ID, dir pool.Direction,
	amountIn, minOutput uint64, override *pool.CurveParams,
) (event.Result, []ledger.BalanceKey, error) {
	curve := e.curve
	if override != nil {
		curve = *override
	}

	next, amountOut, err := pool.Swap(e.pool, curve, dir, amountIn, minOutput)
	if err != nil {
		return event.Result{}, nil, err
	}

	e.ensureSettledForReplay(caller, assetIn, amountIn)
	if e.bank.BalanceOf(caller, assetIn) < amountIn {
		return event.Result{}, nil, fmt.Errorf("%w: holds %d of input asset, swapping %d",
			ErrInsufficientBalance, e.bank.BalanceOf(caller, assetIn), amountIn)
	}

	assetOut := asset.Native
	if dir == pool.NativeToAlt {
		assetOut = e.registry.AltID()
	}

	e.mustMove(caller, e.contractAcct, assetIn, amountIn)
	e.mustMove(e.contractAcct, caller, assetOut, amountOut)
	e.pool = next

	if e.metrics != nil {
		e.metrics.SwapVolume.WithLabelValues(dir.String()).Add(float64(amountIn))
	}

	return event.Result{
		AmountOut:     amountOut,
		ReserveNative: next.ReserveNative,
		ReserveAlt:    next.ReserveAlt,
		LPSupply:      next.LPSupply,
	}, nil, nil
}

// directionOf maps an input asset to a trade direction. Only the two pooled
// assets are swappable.
func (e *Exchange) directionOf(a asset.ID) (pool.Direction, error) {
	switch e.registry.Kind(a) {
	case asset.KindNative:
		return pool.NativeToAlt, nil
	case asset.KindAlt:
		return pool.AltToNative, nil
	default:
		return 0, fmt.Errorf("%w: asset %s is not pooled", ErrInvalidAmount, a)
	}
}

func (e *Exchange) isPooled(a asset.ID) bool {
	kind := e.registry.Kind(a)
	return kind == asset.KindNative || kind == asset.KindAlt
}
