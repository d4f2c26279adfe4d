// internal/event/swap.go
package event

import (
	"time"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/pool"
)

// Swap trades attached coins against the pool. The input side is inferred
// from the attached asset; Curve, when non-nil, overrides the pool-wide fee.
type Swap struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	AssetIn   asset.ID
	AmountIn  uint64
	MinOutput uint64
	Curve     *pool.CurveParams
	Timestamp time.Time
}

func (s *Swap) ID() uuid.UUID      { return s.CallID }
func (s *Swap) Op() Op             { return OpSwap }
func (s *Swap) Account() uuid.UUID { return s.Caller }
func (s *Swap) Time() time.Time    { return s.Timestamp }

// SwapUsingLiquidity trades between an explicitly named asset pair. The
// attached asset must match AssetIn and both sides must be pooled assets.
type SwapUsingLiquidity struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	AssetIn   asset.ID
	AssetOut  asset.ID
	AmountIn  uint64
	MinOutput uint64
	Curve     *pool.CurveParams
	Timestamp time.Time
}

func (s *SwapUsingLiquidity) ID() uuid.UUID      { return s.CallID }
func (s *SwapUsingLiquidity) Op() Op             { return OpSwapUsingLiquidity }
func (s *SwapUsingLiquidity) Account() uuid.UUID { return s.Caller }
func (s *SwapUsingLiquidity) Time() time.Time    { return s.Timestamp }
