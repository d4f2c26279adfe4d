package pool

import (
	"fmt"
	"math/big"
)

// CurveParams is the fee fraction of the pricing curve: FeeNum/FeeDen of the
// input amount is retained by the pool. Callers may pass their own pair per
// swap; DefaultCurve keeps a 0.1% fee.
type CurveParams struct {
	FeeNum uint64 `json:"fee_num"`
	FeeDen uint64 `json:"fee_den"`
}

// DefaultCurve is the pool-wide fee used when a call passes no explicit pair.
var DefaultCurve = CurveParams{FeeNum: 1, FeeDen: 1000}

// Validate rejects degenerate fee fractions. The fee must leave a positive
// share of the input (FeeNum < FeeDen) or the curve pays out nothing.
func (p CurveParams) Validate() error {
	if p.FeeDen == 0 {
		return fmt.Errorf("%w: fee denominator is zero", ErrInvalidAmount)
	}
	if p.FeeNum >= p.FeeDen {
		return fmt.Errorf("%w: fee %d/%d consumes the whole input", ErrInvalidAmount, p.FeeNum, p.FeeDen)
	}
	return nil
}

// AmountOut prices amountIn against the two reserves under the constant
// product discipline with the fee taken on input:
//
//	inAfterFee = amountIn * (FeeDen - FeeNum)
//	out        = floor(inAfterFee * reserveOut / (reserveIn*FeeDen + inAfterFee))
//
// Floor division plus a positive fee keeps the post-trade reserve product at
// or above the pre-trade product, and the result is always strictly below
// reserveOut. Both reserves must be non-zero.
func (p CurveParams) AmountOut(amountIn, reserveIn, reserveOut uint64) uint64 {
	if reserveIn == 0 || reserveOut == 0 {
		return 0
	}

	inAfterFee := getBig()
	den := getBig()
	tmp := getBig()

	inAfterFee.Mul(inAfterFee.SetUint64(amountIn), tmp.SetUint64(p.FeeDen-p.FeeNum))
	den.Mul(den.SetUint64(reserveIn), tmp.SetUint64(p.FeeDen))
	den.Add(den, inAfterFee)

	out := new(big.Int).Mul(inAfterFee, tmp.SetUint64(reserveOut))
	out.Div(out, den)

	putBig(inAfterFee)
	putBig(den)
	putBig(tmp)

	// out < reserveOut holds because den > inAfterFee, so the uint64
	// conversion cannot truncate.
	return out.Uint64()
}

// Swap applies a priced trade to the state. It fails Uninitialized on an empty
// pool, InvalidAmount on a zero input or reserve overflow, and
// SlippageExceeded when the output lands below minOutput (a zero output always
// does).
func Swap(s State, params CurveParams, dir Direction, amountIn, minOutput uint64) (State, uint64, error) {
	if err := params.Validate(); err != nil {
		return s, 0, err
	}
	if amountIn == 0 {
		return s, 0, fmt.Errorf("%w: swap input is zero", ErrInvalidAmount)
	}
	if s.ReserveNative == 0 || s.ReserveAlt == 0 {
		return s, 0, ErrUninitialized
	}

	reserveIn, reserveOut := s.ReserveOf(dir)

	newReserveIn, ok := addU64(reserveIn, amountIn)
	if !ok {
		return s, 0, fmt.Errorf("%w: input overflows reserve", ErrInvalidAmount)
	}

	amountOut := params.AmountOut(amountIn, reserveIn, reserveOut)
	if amountOut == 0 || amountOut < minOutput {
		return s, 0, fmt.Errorf("%w: output %d below minimum %d", ErrSlippageExceeded, amountOut, minOutput)
	}

	next := s
	if dir == NativeToAlt {
		next.ReserveNative = newReserveIn
		next.ReserveAlt = reserveOut - amountOut
	} else {
		next.ReserveAlt = newReserveIn
		next.ReserveNative = reserveOut - amountOut
	}

	return next, amountOut, nil
}
