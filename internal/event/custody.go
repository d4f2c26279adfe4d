// internal/event/custody.go
package event

import (
	"time"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
)

// MintCoins creates new pool-share coins in the contract's own custody.
// It does not grow the pool's accounted LP supply.
type MintCoins struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	Amount    uint64
	Timestamp time.Time
}

func (m *MintCoins) ID() uuid.UUID      { return m.CallID }
func (m *MintCoins) Op() Op             { return OpMintCoins }
func (m *MintCoins) Account() uuid.UUID { return m.Caller }
func (m *MintCoins) Time() time.Time    { return m.Timestamp }

// TransferCoinsToOutput pays coins out of contract custody to an account.
type TransferCoinsToOutput struct {
	CallID    uuid.UUID
	Caller    uuid.UUID
	To        uuid.UUID
	Asset     asset.ID
	Amount    uint64
	Timestamp time.Time
}

func (t *TransferCoinsToOutput) ID() uuid.UUID      { return t.CallID }
func (t *TransferCoinsToOutput) Op() Op             { return OpTransferCoinsToOutput }
func (t *TransferCoinsToOutput) Account() uuid.UUID { return t.Caller }
func (t *TransferCoinsToOutput) Time() time.Time    { return t.Timestamp }
