package pool

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// AddLiquidity
// ---------------------------------------------------------------------------

func TestAddLiquidity_SeedsEmptyPool(t *testing.T) {
	next, quote, err := AddLiquidity(State{}, 50, 50, 0, 50)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if next.ReserveNative != 50 || next.ReserveAlt != 50 || next.LPSupply != 50 {
		t.Errorf("seeded state: %+v", next)
	}
	if quote.LPMinted != 50 {
		t.Errorf("initial mint: got %d, want 50 (1:1 with native)", quote.LPMinted)
	}
	if quote.NativeIn != 50 || quote.AltIn != 50 {
		t.Errorf("consumed: %+v", quote)
	}
}

func TestAddLiquidity_SeedSetsArbitraryRatio(t *testing.T) {
	next, quote, err := AddLiquidity(State{}, 100, 400, 0, 400)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if next.ReserveNative != 100 || next.ReserveAlt != 400 {
		t.Errorf("seeded reserves: %+v", next)
	}
	if quote.LPMinted != 100 {
		t.Errorf("initial mint tracks native, got %d", quote.LPMinted)
	}
}

func TestAddLiquidity_SeedRequiresBothAssets(t *testing.T) {
	for _, tc := range []struct{ native, alt uint64 }{{0, 100}, {100, 0}, {0, 0}} {
		_, _, err := AddLiquidity(State{}, tc.native, tc.alt, 0, tc.alt)
		if !errors.Is(err, ErrInvalidLiquidity) {
			t.Errorf("seed %d/%d: got %v, want ErrInvalidLiquidity", tc.native, tc.alt, err)
		}
	}
}

func TestAddLiquidity_ProportionalMint(t *testing.T) {
	s := seeded(50, 50, 50)
	next, quote, err := AddLiquidity(s, 100, 100, 0, 100)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if quote.LPMinted != 100 {
		t.Errorf("mint: got %d, want 100", quote.LPMinted)
	}
	if quote.AltIn != 100 {
		t.Errorf("alt consumed: got %d, want 100", quote.AltIn)
	}
	if next.ReserveNative != 150 || next.ReserveAlt != 150 || next.LPSupply != 150 {
		t.Errorf("state after add: %+v", next)
	}
}

func TestAddLiquidity_ConsumesOnlyRatioAlt(t *testing.T) {
	// Pool at 2 alt per native. Deposit 10 native with 50 alt available;
	// only 20 alt should be taken.
	s := seeded(100, 200, 100)
	next, quote, err := AddLiquidity(s, 10, 50, 0, 50)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if quote.AltIn != 20 {
		t.Errorf("alt consumed: got %d, want 20", quote.AltIn)
	}
	if quote.LPMinted != 10 {
		t.Errorf("mint: got %d, want 10", quote.LPMinted)
	}
	if next.ReserveAlt != 220 {
		t.Errorf("alt reserve: got %d, want 220", next.ReserveAlt)
	}
}

func TestAddLiquidity_AltRequirementRoundsUp(t *testing.T) {
	// ratio 3 alt per native; 1 native requires ceil(1*10/3) = 4 alt.
	s := seeded(3, 10, 3)
	_, quote, err := AddLiquidity(s, 1, 4, 0, 4)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if quote.AltIn != 4 {
		t.Errorf("alt consumed: got %d, want 4 (rounded up)", quote.AltIn)
	}
}

func TestAddLiquidity_MaxAltCapEnforced(t *testing.T) {
	s := seeded(100, 200, 100)
	_, _, err := AddLiquidity(s, 10, 50, 0, 19)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("got %v, want ErrSlippageExceeded", err)
	}
}

func TestAddLiquidity_InsufficientAltDeposited(t *testing.T) {
	s := seeded(100, 200, 100)
	_, _, err := AddLiquidity(s, 10, 19, 0, 50)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("got %v, want ErrSlippageExceeded", err)
	}
}

func TestAddLiquidity_MinLiquidityFloor(t *testing.T) {
	s := seeded(50, 50, 50)
	_, _, err := AddLiquidity(s, 10, 10, 11, 10)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Errorf("got %v, want ErrBelowMinimum", err)
	}
}

func TestAddLiquidity_SeededRejectsZeroNative(t *testing.T) {
	s := seeded(50, 50, 50)
	_, _, err := AddLiquidity(s, 0, 100, 0, 100)
	if !errors.Is(err, ErrInvalidLiquidity) {
		t.Errorf("got %v, want ErrInvalidLiquidity", err)
	}
}

func TestAddLiquidity_FailureLeavesStateUntouched(t *testing.T) {
	s := seeded(100, 200, 100)
	next, _, err := AddLiquidity(s, 10, 5, 0, 50)
	if err == nil {
		t.Fatal("expected failure")
	}
	if next != s {
		t.Error("failed add must not change state")
	}
}

// ---------------------------------------------------------------------------
// RemoveLiquidity
// ---------------------------------------------------------------------------

func TestRemoveLiquidity_FullBurnDrainsExactly(t *testing.T) {
	s := seeded(150, 150, 150)
	next, quote, err := RemoveLiquidity(s, 150, 0, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if quote.NativeOut != 150 || quote.AltOut != 150 {
		t.Errorf("payout: %+v, want 150/150", quote)
	}
	if !next.Empty() || next.ReserveNative != 0 || next.ReserveAlt != 0 {
		t.Errorf("pool must return to empty, got %+v", next)
	}
}

func TestRemoveLiquidity_PartialBurnProportional(t *testing.T) {
	s := seeded(50, 50, 50)
	next, quote, err := RemoveLiquidity(s, 30, 0, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if quote.NativeOut != 30 || quote.AltOut != 30 {
		t.Errorf("payout: %+v, want 30/30", quote)
	}
	if next.LPSupply != 20 || next.ReserveNative != 20 || next.ReserveAlt != 20 {
		t.Errorf("state after partial remove: %+v", next)
	}
}

func TestRemoveLiquidity_SharesRoundDown(t *testing.T) {
	s := seeded(10, 7, 10)
	_, quote, err := RemoveLiquidity(s, 3, 0, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	// floor(3*7/10) = 2
	if quote.AltOut != 2 {
		t.Errorf("alt share: got %d, want 2 (floored)", quote.AltOut)
	}
	if quote.NativeOut != 3 {
		t.Errorf("native share: got %d, want 3", quote.NativeOut)
	}
}

func TestRemoveLiquidity_EmptyPool(t *testing.T) {
	_, _, err := RemoveLiquidity(State{}, 10, 0, 0)
	if !errors.Is(err, ErrUninitialized) {
		t.Errorf("got %v, want ErrUninitialized", err)
	}
}

func TestRemoveLiquidity_ZeroBurn(t *testing.T) {
	_, _, err := RemoveLiquidity(seeded(50, 50, 50), 0, 0, 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestRemoveLiquidity_BurnBeyondSupply(t *testing.T) {
	_, _, err := RemoveLiquidity(seeded(50, 50, 50), 51, 0, 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestRemoveLiquidity_SlippageGuards(t *testing.T) {
	s := seeded(50, 50, 50)
	if _, _, err := RemoveLiquidity(s, 30, 31, 0); !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("native floor: got %v, want ErrSlippageExceeded", err)
	}
	if _, _, err := RemoveLiquidity(s, 30, 0, 31); !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("alt floor: got %v, want ErrSlippageExceeded", err)
	}
}

func TestAddThenRemove_RoundTrip(t *testing.T) {
	next, quote, err := AddLiquidity(State{}, 1_000, 4_000, 0, 4_000)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	next, rq, err := RemoveLiquidity(next, quote.LPMinted, 0, 0)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if rq.NativeOut != 1_000 || rq.AltOut != 4_000 {
		t.Errorf("round trip payout: %+v", rq)
	}
	if err := next.CheckConsistent(); err != nil {
		t.Errorf("final state inconsistent: %v", err)
	}
}
