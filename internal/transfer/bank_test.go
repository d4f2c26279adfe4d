package transfer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"PoolLedger/internal/asset"
	"PoolLedger/internal/transfer"
)

var (
	alice = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	bob   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	coin  = asset.ID{0xaa}
)

func TestMemoryBank_MintAndBalance(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, 500); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if got := b.BalanceOf(alice, coin); got != 500 {
		t.Errorf("balance: got %d, want 500", got)
	}
	if got := b.BalanceOf(bob, coin); got != 0 {
		t.Errorf("untouched account: got %d, want 0", got)
	}
}

func TestMemoryBank_Move(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, 100); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := b.Move(alice, bob, coin, 60); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if got := b.BalanceOf(alice, coin); got != 40 {
		t.Errorf("source: got %d, want 40", got)
	}
	if got := b.BalanceOf(bob, coin); got != 60 {
		t.Errorf("destination: got %d, want 60", got)
	}
}

func TestMemoryBank_MoveInsufficientLeavesBothUntouched(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, 10); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	err := b.Move(alice, bob, coin, 11)
	if !errors.Is(err, transfer.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	if b.BalanceOf(alice, coin) != 10 || b.BalanceOf(bob, coin) != 0 {
		t.Error("failed move must not change balances")
	}
}

func TestMemoryBank_BurnExact(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, 30); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := b.Burn(alice, coin, 30); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	if got := b.BalanceOf(alice, coin); got != 0 {
		t.Errorf("balance after full burn: got %d, want 0", got)
	}
	if err := b.Burn(alice, coin, 1); !errors.Is(err, transfer.ErrInsufficientFunds) {
		t.Errorf("burn from empty: got %v, want ErrInsufficientFunds", err)
	}
}

func TestMemoryBank_MintOverflowRejected(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, math.MaxUint64); err != nil {
		t.Fatalf("first mint failed: %v", err)
	}
	if err := b.Mint(alice, coin, 1); err == nil {
		t.Error("overflowing mint should fail")
	}
	if got := b.BalanceOf(alice, coin); got != math.MaxUint64 {
		t.Errorf("balance changed on failed mint: %d", got)
	}
}

func TestMemoryBank_ZeroAmountIsNoop(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Move(alice, bob, coin, 0); err != nil {
		t.Errorf("zero move: %v", err)
	}
	if err := b.Mint(alice, coin, 0); err != nil {
		t.Errorf("zero mint: %v", err)
	}
	if err := b.Burn(alice, coin, 0); err != nil {
		t.Errorf("zero burn: %v", err)
	}
	if len(b.Entries()) != 0 {
		t.Error("noop calls must not create entries")
	}
}

func TestMemoryBank_RestoreRoundTrip(t *testing.T) {
	b := transfer.NewMemoryBank()
	if err := b.Mint(alice, coin, 7); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := b.Mint(bob, asset.ID{0xbb}, 9); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	entries := b.Entries()
	restored := transfer.NewMemoryBank()
	restored.Restore(entries)

	if got := restored.BalanceOf(alice, coin); got != 7 {
		t.Errorf("restored alice: got %d, want 7", got)
	}
	if got := restored.BalanceOf(bob, asset.ID{0xbb}); got != 9 {
		t.Errorf("restored bob: got %d, want 9", got)
	}
}
