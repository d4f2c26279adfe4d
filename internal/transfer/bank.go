// Package transfer holds the coin custody layer: settled asset balances per
// account, moved between accounts or minted/burned by the exchange core. It is
// distinct from the pending-balance ledger, which only tracks amounts a caller
// has parked inside the contract.
package transfer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
)

// ErrInsufficientFunds is returned when a move or burn exceeds the source
// account's settled balance.
var ErrInsufficientFunds = errors.New("transfer: insufficient funds")

// Transfer records one settled coin movement.
type Transfer struct {
	From   uuid.UUID `json:"from"`
	To     uuid.UUID `json:"to"`
	Asset  asset.ID  `json:"asset"`
	Amount uint64    `json:"amount"`
}

// Bank is the custody surface the exchange core drives. Implementations must
// be safe for concurrent use; the core serializes its own calls but queries
// read balances from other goroutines.
type Bank interface {
	// BalanceOf returns the settled balance of account in the given asset.
	BalanceOf(account uuid.UUID, a asset.ID) uint64
	// Move debits from and credits to atomically. Fails with
	// ErrInsufficientFunds without changing either balance.
	Move(from, to uuid.UUID, a asset.ID, amount uint64) error
	// Mint creates amount new units of the asset in the account.
	Mint(to uuid.UUID, a asset.ID, amount uint64) error
	// Burn destroys amount units held by the account.
	Burn(from uuid.UUID, a asset.ID, amount uint64) error
}

type bankKey struct {
	Account uuid.UUID
	Asset   asset.ID
}

// MemoryBank is the in-process Bank. All settled balances live in one map so
// snapshot and restore stay trivial.
type MemoryBank struct {
	mu       sync.RWMutex
	balances map[bankKey]uint64
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[bankKey]uint64)}
}

func (b *MemoryBank) BalanceOf(account uuid.UUID, a asset.ID) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[bankKey{Account: account, Asset: a}]
}

func (b *MemoryBank) Move(from, to uuid.UUID, a asset.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := bankKey{Account: from, Asset: a}
	have := b.balances[fromKey]
	if have < amount {
		return fmt.Errorf("%w: account %s has %d, moving %d", ErrInsufficientFunds, from, have, amount)
	}

	toKey := bankKey{Account: to, Asset: a}
	if b.balances[toKey] > ^uint64(0)-amount {
		return fmt.Errorf("transfer: credit overflows account %s", to)
	}

	if have == amount {
		delete(b.balances, fromKey)
	} else {
		b.balances[fromKey] = have - amount
	}
	b.balances[toKey] += amount
	return nil
}

func (b *MemoryBank) Mint(to uuid.UUID, a asset.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bankKey{Account: to, Asset: a}
	if b.balances[key] > ^uint64(0)-amount {
		return fmt.Errorf("transfer: mint overflows account %s", to)
	}
	b.balances[key] += amount
	return nil
}

func (b *MemoryBank) Burn(from uuid.UUID, a asset.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bankKey{Account: from, Asset: a}
	have := b.balances[key]
	if have < amount {
		return fmt.Errorf("%w: account %s has %d, burning %d", ErrInsufficientFunds, from, have, amount)
	}
	if have == amount {
		delete(b.balances, key)
	} else {
		b.balances[key] = have - amount
	}
	return nil
}

// Snapshot returns a copy of every settled balance, keyed for persistence.
func (b *MemoryBank) Snapshot() map[bankKey]uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[bankKey]uint64, len(b.balances))
	for k, v := range b.balances {
		out[k] = v
	}
	return out
}

// Entries returns the settled balances as a flat slice for serialization.
func (b *MemoryBank) Entries() []BalanceEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]BalanceEntry, 0, len(b.balances))
	for k, v := range b.balances {
		out = append(out, BalanceEntry{Account: k.Account, Asset: k.Asset, Amount: v})
	}
	return out
}

// BalanceEntry is one settled balance row in a snapshot.
type BalanceEntry struct {
	Account uuid.UUID `json:"account"`
	Asset   asset.ID  `json:"asset"`
	Amount  uint64    `json:"amount"`
}

// Restore overwrites the bank's state from snapshot entries. Used only during
// recovery before the exchange starts serving.
func (b *MemoryBank) Restore(entries []BalanceEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances = make(map[bankKey]uint64, len(entries))
	for _, e := range entries {
		if e.Amount == 0 {
			continue
		}
		b.balances[bankKey{Account: e.Account, Asset: e.Asset}] = e.Amount
	}
}
