package pool

import "fmt"

// AddQuote is the computed effect of an add-liquidity call: the exact amounts
// consumed from the caller's pending balances and the LP amount minted.
type AddQuote struct {
	NativeIn uint64
	AltIn    uint64
	LPMinted uint64
}

// RemoveQuote is the computed effect of a remove-liquidity call.
type RemoveQuote struct {
	LPBurned  uint64
	NativeOut uint64
	AltOut    uint64
}

// AddLiquidity seeds or grows the pool from the caller's deposited amounts.
//
// On an Empty pool the deposit itself sets the price: both reserves take the
// full deposited amounts and the LP supply starts 1:1 with the native amount.
// On a Seeded pool only the alt amount needed to preserve the reserve ratio is
// consumed (rounded up, so the pool never loses on rounding) and LP is minted
// pro rata (rounded down, same reason).
func AddLiquidity(s State, nativeIn, altIn, minLiquidity, maxAltAmount uint64) (State, AddQuote, error) {
	if s.Empty() {
		if nativeIn == 0 || altIn == 0 {
			return s, AddQuote{}, fmt.Errorf("%w: seeding requires both assets, have %d native / %d alt",
				ErrInvalidLiquidity, nativeIn, altIn)
		}
		next := State{
			ReserveNative: nativeIn,
			ReserveAlt:    altIn,
			LPSupply:      nativeIn,
		}
		return next, AddQuote{NativeIn: nativeIn, AltIn: altIn, LPMinted: nativeIn}, nil
	}

	if nativeIn == 0 {
		return s, AddQuote{}, fmt.Errorf("%w: no native deposit to add", ErrInvalidLiquidity)
	}

	altRequired, ok := MulDivCeil(nativeIn, s.ReserveAlt, s.ReserveNative)
	if !ok {
		return s, AddQuote{}, fmt.Errorf("%w: alt requirement overflows", ErrInvalidAmount)
	}
	if altRequired > maxAltAmount {
		return s, AddQuote{}, fmt.Errorf("%w: ratio requires %d alt, cap is %d",
			ErrSlippageExceeded, altRequired, maxAltAmount)
	}
	if altRequired > altIn {
		return s, AddQuote{}, fmt.Errorf("%w: ratio requires %d alt, deposited %d",
			ErrSlippageExceeded, altRequired, altIn)
	}

	lpMinted, ok := MulDivFloor(nativeIn, s.LPSupply, s.ReserveNative)
	if !ok {
		return s, AddQuote{}, fmt.Errorf("%w: minted liquidity overflows", ErrInvalidAmount)
	}
	if lpMinted < minLiquidity {
		return s, AddQuote{}, fmt.Errorf("%w: would mint %d, floor is %d",
			ErrBelowMinimum, lpMinted, minLiquidity)
	}

	next := s
	if next.ReserveNative, ok = addU64(s.ReserveNative, nativeIn); !ok {
		return s, AddQuote{}, fmt.Errorf("%w: native reserve overflows", ErrInvalidAmount)
	}
	if next.ReserveAlt, ok = addU64(s.ReserveAlt, altRequired); !ok {
		return s, AddQuote{}, fmt.Errorf("%w: alt reserve overflows", ErrInvalidAmount)
	}
	if next.LPSupply, ok = addU64(s.LPSupply, lpMinted); !ok {
		return s, AddQuote{}, fmt.Errorf("%w: lp supply overflows", ErrInvalidAmount)
	}

	return next, AddQuote{NativeIn: nativeIn, AltIn: altRequired, LPMinted: lpMinted}, nil
}

// RemoveLiquidity burns lpAmount and pays out proportional reserve shares,
// rounded down. Burning the entire supply returns the reserves exactly and
// drives the pool back to Empty with no residue.
func RemoveLiquidity(s State, lpAmount, minNativeOut, minAltOut uint64) (State, RemoveQuote, error) {
	if s.Empty() {
		return s, RemoveQuote{}, ErrUninitialized
	}
	if lpAmount == 0 {
		return s, RemoveQuote{}, fmt.Errorf("%w: lp amount is zero", ErrInvalidAmount)
	}
	if lpAmount > s.LPSupply {
		return s, RemoveQuote{}, fmt.Errorf("%w: burning %d exceeds supply %d",
			ErrInvalidAmount, lpAmount, s.LPSupply)
	}

	nativeOut, ok := MulDivFloor(lpAmount, s.ReserveNative, s.LPSupply)
	if !ok {
		return s, RemoveQuote{}, fmt.Errorf("%w: native share overflows", ErrInvalidAmount)
	}
	altOut, ok := MulDivFloor(lpAmount, s.ReserveAlt, s.LPSupply)
	if !ok {
		return s, RemoveQuote{}, fmt.Errorf("%w: alt share overflows", ErrInvalidAmount)
	}

	if nativeOut < minNativeOut {
		return s, RemoveQuote{}, fmt.Errorf("%w: native out %d below minimum %d",
			ErrSlippageExceeded, nativeOut, minNativeOut)
	}
	if altOut < minAltOut {
		return s, RemoveQuote{}, fmt.Errorf("%w: alt out %d below minimum %d",
			ErrSlippageExceeded, altOut, minAltOut)
	}

	next := State{
		ReserveNative: s.ReserveNative - nativeOut,
		ReserveAlt:    s.ReserveAlt - altOut,
		LPSupply:      s.LPSupply - lpAmount,
	}

	return next, RemoveQuote{LPBurned: lpAmount, NativeOut: nativeOut, AltOut: altOut}, nil
}
