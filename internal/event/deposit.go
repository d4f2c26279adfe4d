// internal/event/deposit.go
package event

import (
	"time"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
)

// Deposit parks attached coins in the caller's pending balance.
type Deposit struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	Asset     asset.ID
	Amount    uint64
	Timestamp time.Time
}

func (d *Deposit) ID() uuid.UUID      { return d.CallID }
func (d *Deposit) Op() Op             { return OpDeposit }
func (d *Deposit) Account() uuid.UUID { return d.Caller }
func (d *Deposit) Time() time.Time    { return d.Timestamp }

// Withdraw returns pending coins to the caller's settled balance.
type Withdraw struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	Asset     asset.ID
	Amount    uint64
	Timestamp time.Time
}

func (w *Withdraw) ID() uuid.UUID      { return w.CallID }
func (w *Withdraw) Op() Op             { return OpWithdraw }
func (w *Withdraw) Account() uuid.UUID { return w.Caller }
func (w *Withdraw) Time() time.Time    { return w.Timestamp }
