package ledger_test

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/ledger"
)

var altAsset = func() asset.ID {
	var id asset.ID
	id[0] = 2
	return id
}()

func TestPendingBalances_InitialZero(t *testing.T) {
	pb := ledger.NewPendingBalances()
	if got := pb.Get(uuid.New(), asset.Native); got != 0 {
		t.Errorf("initial balance should be 0, got %d", got)
	}
}

func TestPendingBalances_CreditDebit(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()

	pb.Credit(account, asset.Native, 50)
	if got := pb.Get(account, asset.Native); got != 50 {
		t.Fatalf("after credit: got %d, want 50", got)
	}

	if !pb.Debit(account, asset.Native, 30) {
		t.Fatal("debit 30 of 50 should succeed")
	}
	if got := pb.Get(account, asset.Native); got != 20 {
		t.Errorf("after debit: got %d, want 20", got)
	}
}

func TestPendingBalances_DebitInsufficient(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()

	pb.Credit(account, asset.Native, 10)
	if pb.Debit(account, asset.Native, 11) {
		t.Error("debit beyond balance should fail")
	}
	if got := pb.Get(account, asset.Native); got != 10 {
		t.Errorf("failed debit must not change balance: got %d", got)
	}
}

func TestPendingBalances_FullDebitRemovesEntry(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()

	pb.Credit(account, asset.Native, 10)
	if !pb.Debit(account, asset.Native, 10) {
		t.Fatal("full debit should succeed")
	}
	if pb.Len() != 0 {
		t.Errorf("fully withdrawn entry should be removed, %d entries remain", pb.Len())
	}
}

func TestPendingBalances_CanCredit(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()

	pb.Credit(account, asset.Native, math.MaxUint64-1)
	if !pb.CanCredit(account, asset.Native, 1) {
		t.Error("credit up to MaxUint64 should be allowed")
	}
	if pb.CanCredit(account, asset.Native, 2) {
		t.Error("credit past MaxUint64 should be rejected")
	}
}

func TestPendingBalances_TotalPending(t *testing.T) {
	pb := ledger.NewPendingBalances()
	a := uuid.New()
	b := uuid.New()

	pb.Credit(a, asset.Native, 30)
	pb.Credit(b, asset.Native, 12)
	pb.Credit(a, altAsset, 99)

	if got := pb.TotalPending(asset.Native); got != 42 {
		t.Errorf("native total: got %d, want 42", got)
	}
	if got := pb.TotalPending(altAsset); got != 99 {
		t.Errorf("alt total: got %d, want 99", got)
	}
}

func TestPendingBalances_SnapshotIsolation(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()
	pb.Credit(account, asset.Native, 7)

	snap := pb.Snapshot()
	for k := range snap {
		snap[k] = 0
	}

	if got := pb.Get(account, asset.Native); got != 7 {
		t.Error("snapshot mutation must not affect the tracker")
	}
}

func TestPendingBalances_SetBalanceZeroDeletes(t *testing.T) {
	pb := ledger.NewPendingBalances()
	account := uuid.New()
	key := ledger.BalanceKey{Account: account, Asset: asset.Native}

	pb.SetBalance(key, 5)
	pb.SetBalance(key, 0)
	if pb.Len() != 0 {
		t.Error("SetBalance(0) should delete the entry")
	}
}
