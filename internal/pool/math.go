package pool

import (
	"math"
	"math/big"
	"sync"
)

// Intermediate products of two uint64 values need 128 bits; big.Int values are
// pooled to keep the hot swap/liquidity path allocation-light.
var bigIntPool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getBig() *big.Int {
	return bigIntPool.Get().(*big.Int)
}

func putBig(v *big.Int) {
	v.SetUint64(0)
	bigIntPool.Put(v)
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

// MulDivFloor computes floor(a*b/den) without intermediate overflow.
// Returns false if den is zero or the result exceeds uint64 range.
func MulDivFloor(a, b, den uint64) (uint64, bool) {
	if den == 0 {
		return 0, false
	}

	num := getBig()
	d := getBig()
	num.Mul(num.SetUint64(a), d.SetUint64(b))
	num.Div(num, d.SetUint64(den))

	ok := num.Cmp(maxUint64) <= 0
	result := num.Uint64()

	putBig(num)
	putBig(d)

	if !ok {
		return 0, false
	}
	return result, true
}

// MulDivCeil computes ceil(a*b/den) without intermediate overflow.
// Returns false if den is zero or the result exceeds uint64 range.
func MulDivCeil(a, b, den uint64) (uint64, bool) {
	if den == 0 {
		return 0, false
	}

	num := getBig()
	d := getBig()
	rem := getBig()
	num.Mul(num.SetUint64(a), d.SetUint64(b))
	num.DivMod(num, d.SetUint64(den), rem)
	if rem.Sign() > 0 {
		num.Add(num, big.NewInt(1))
	}

	ok := num.Cmp(maxUint64) <= 0
	result := num.Uint64()

	putBig(num)
	putBig(d)
	putBig(rem)

	if !ok {
		return 0, false
	}
	return result, true
}

// addU64 returns a+b and false on wraparound.
func addU64(a, b uint64) (uint64, bool) {
	if b > math.MaxUint64-a {
		return 0, false
	}
	return a + b, true
}
