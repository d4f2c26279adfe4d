package ledger

import (
	"math"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
)

// BalanceKey identifies one pending-balance entry.
type BalanceKey struct {
	Account uuid.UUID
	Asset   asset.ID
}

// PendingBalances tracks per-account amounts held inside the contract but not
// yet committed to the pool. Entries are created lazily on first credit and
// deleted when they reach zero.
type PendingBalances struct {
	balances map[BalanceKey]uint64
}

func NewPendingBalances() *PendingBalances {
	return &PendingBalances{
		balances: make(map[BalanceKey]uint64),
	}
}

// Get returns the pending balance for (account, asset); zero if absent.
func (pb *PendingBalances) Get(account uuid.UUID, a asset.ID) uint64 {
	return pb.balances[BalanceKey{Account: account, Asset: a}]
}

// CanCredit reports whether crediting amount would stay within uint64 range.
func (pb *PendingBalances) CanCredit(account uuid.UUID, a asset.ID, amount uint64) bool {
	cur := pb.balances[BalanceKey{Account: account, Asset: a}]
	return amount <= math.MaxUint64-cur
}

// Credit adds amount to (account, asset). The caller must have checked
// CanCredit; overflow here means a broken call-validation path.
func (pb *PendingBalances) Credit(account uuid.UUID, a asset.ID, amount uint64) {
	key := BalanceKey{Account: account, Asset: a}
	cur := pb.balances[key]
	if amount > math.MaxUint64-cur {
		panic("ledger: pending balance overflow")
	}
	pb.balances[key] = cur + amount
}

// Debit removes amount from (account, asset). Returns false, untouched, if the
// entry holds less than amount.
func (pb *PendingBalances) Debit(account uuid.UUID, a asset.ID, amount uint64) bool {
	key := BalanceKey{Account: account, Asset: a}
	cur := pb.balances[key]
	if cur < amount {
		return false
	}
	if cur == amount {
		delete(pb.balances, key)
	} else {
		pb.balances[key] = cur - amount
	}
	return true
}

// TotalPending sums all pending entries for one asset.
func (pb *PendingBalances) TotalPending(a asset.ID) uint64 {
	var total uint64
	for key, bal := range pb.balances {
		if key.Asset == a {
			total += bal
		}
	}
	return total
}

// Len returns the number of live entries.
func (pb *PendingBalances) Len() int {
	return len(pb.balances)
}

// Snapshot returns a copy of all entries (for state hashing and persistence).
func (pb *PendingBalances) Snapshot() map[BalanceKey]uint64 {
	snapshot := make(map[BalanceKey]uint64, len(pb.balances))
	for k, v := range pb.balances {
		snapshot[k] = v
	}
	return snapshot
}

// SetBalance overwrites one entry; used only by snapshot restore.
func (pb *PendingBalances) SetBalance(key BalanceKey, amount uint64) {
	if amount == 0 {
		delete(pb.balances, key)
		return
	}
	pb.balances[key] = amount
}
