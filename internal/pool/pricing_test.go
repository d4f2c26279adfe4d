package pool

import (
	"errors"
	"math/big"
	"testing"
)

func seeded(rn, ra, lp uint64) State {
	return State{ReserveNative: rn, ReserveAlt: ra, LPSupply: lp}
}

func TestCurveParams_Validate(t *testing.T) {
	if err := DefaultCurve.Validate(); err != nil {
		t.Errorf("default curve should validate: %v", err)
	}
	if err := (CurveParams{FeeNum: 1, FeeDen: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero denominator: got %v", err)
	}
	if err := (CurveParams{FeeNum: 5, FeeDen: 5}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("fee == 1: got %v", err)
	}
	if err := (CurveParams{FeeNum: 50, FeeDen: 5}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("fee > 1: got %v", err)
	}
}

func TestAmountOut_MatchesFormula(t *testing.T) {
	params := CurveParams{FeeNum: 3, FeeDen: 1000}
	amountIn, reserveIn, reserveOut := uint64(1_000), uint64(1_000_000), uint64(1_000_000)

	got := params.AmountOut(amountIn, reserveIn, reserveOut)

	inAfterFee := new(big.Int).Mul(big.NewInt(int64(amountIn)), big.NewInt(997))
	num := new(big.Int).Mul(inAfterFee, big.NewInt(int64(reserveOut)))
	den := new(big.Int).Mul(big.NewInt(int64(reserveIn)), big.NewInt(1000))
	den.Add(den, inAfterFee)
	want := new(big.Int).Div(num, den).Uint64()

	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestAmountOut_MonotoneInInput(t *testing.T) {
	prev := uint64(0)
	for _, in := range []uint64{1, 10, 100, 1_000, 10_000, 100_000} {
		out := DefaultCurve.AmountOut(in, 50_000, 50_000)
		if out < prev {
			t.Fatalf("output decreased: in=%d out=%d prev=%d", in, out, prev)
		}
		prev = out
	}
}

func TestAmountOut_NeverReachesReserve(t *testing.T) {
	// Even an enormous input cannot drain the opposite reserve.
	out := DefaultCurve.AmountOut(1<<62, 100, 100)
	if out >= 100 {
		t.Errorf("output %d must stay below reserve 100", out)
	}
}

func TestSwap_ProductNonDecreasing(t *testing.T) {
	s := seeded(50_000, 80_000, 50_000)
	before := new(big.Int).Mul(
		new(big.Int).SetUint64(s.ReserveNative),
		new(big.Int).SetUint64(s.ReserveAlt),
	)

	next, out, err := Swap(s, DefaultCurve, NativeToAlt, 12_345, 1)
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if out == 0 {
		t.Fatal("output must be positive")
	}

	after := new(big.Int).Mul(
		new(big.Int).SetUint64(next.ReserveNative),
		new(big.Int).SetUint64(next.ReserveAlt),
	)
	if after.Cmp(before) < 0 {
		t.Errorf("reserve product decreased: before=%s after=%s", before, after)
	}
}

func TestSwap_BothDirections(t *testing.T) {
	s := seeded(10_000, 10_000, 10_000)

	next, out, err := Swap(s, DefaultCurve, AltToNative, 500, 1)
	if err != nil {
		t.Fatalf("alt->native swap failed: %v", err)
	}
	if next.ReserveAlt != 10_500 {
		t.Errorf("input reserve: got %d, want 10500", next.ReserveAlt)
	}
	if next.ReserveNative != 10_000-out {
		t.Errorf("output reserve: got %d, want %d", next.ReserveNative, 10_000-out)
	}
}

func TestSwap_EmptyPool(t *testing.T) {
	_, _, err := Swap(State{}, DefaultCurve, NativeToAlt, 100, 0)
	if !errors.Is(err, ErrUninitialized) {
		t.Errorf("got %v, want ErrUninitialized", err)
	}
}

func TestSwap_ZeroInput(t *testing.T) {
	_, _, err := Swap(seeded(100, 100, 100), DefaultCurve, NativeToAlt, 0, 0)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("got %v, want ErrInvalidAmount", err)
	}
}

func TestSwap_SlippageGuard(t *testing.T) {
	s := seeded(10_000, 10_000, 10_000)
	_, out, err := Swap(s, DefaultCurve, NativeToAlt, 100, 1)
	if err != nil {
		t.Fatalf("probe swap failed: %v", err)
	}

	_, _, err = Swap(s, DefaultCurve, NativeToAlt, 100, out+1)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("got %v, want ErrSlippageExceeded", err)
	}
}

func TestSwap_DustInputRejectedNotZeroPaid(t *testing.T) {
	// 1 unit against deep reserves floors to zero output; the call must fail
	// rather than consume the input for nothing.
	s := seeded(1 << 40, 100, 1<<40)
	_, _, err := Swap(s, DefaultCurve, NativeToAlt, 1, 0)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Errorf("got %v, want ErrSlippageExceeded", err)
	}
}

func TestSwap_FailureLeavesStateUntouched(t *testing.T) {
	s := seeded(10_000, 10_000, 10_000)
	next, _, err := Swap(s, DefaultCurve, NativeToAlt, 100, 1<<60)
	if err == nil {
		t.Fatal("expected slippage failure")
	}
	if next != s {
		t.Error("failed swap must not change state")
	}
}
