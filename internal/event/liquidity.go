// internal/event/liquidity.go
package event

import (
	"time"

	"github.com/google/uuid"
)

// AddLiquidity mints pool shares against the caller's pending balances.
type AddLiquidity struct {
	CallID       uuid.UUID
	Caller       uuid.UUID
	MinLiquidity uint64
	MaxAltAmount uint64
	Timestamp    time.Time
}

func (a *AddLiquidity) ID() uuid.UUID      { return a.CallID }
func (a *AddLiquidity) Op() Op             { return OpAddLiquidity }
func (a *AddLiquidity) Account() uuid.UUID { return a.Caller }
func (a *AddLiquidity) Time() time.Time    { return a.Timestamp }

// RemoveLiquidity burns attached pool shares for proportional reserves.
type RemoveLiquidity struct {
	CallID       uuid.UUID
	Caller       uuid.UUID
	LPAmount     uint64
	MinNativeOut uint64
	MinAltOut    uint64
	Timestamp    time.Time
}

func (r *RemoveLiquidity) ID() uuid.UUID      { return r.CallID }
func (r *RemoveLiquidity) Op() Op             { return OpRemoveLiquidity }
func (r *RemoveLiquidity) Account() uuid.UUID { return r.Caller }
func (r *RemoveLiquidity) Time() time.Time    { return r.Timestamp }
