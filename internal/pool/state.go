package pool

import "fmt"

// State is the contract-wide pool record. The zero value is the Empty pool.
type State struct {
	ReserveNative uint64 `json:"reserve_native"`
	ReserveAlt    uint64 `json:"reserve_alt"`
	LPSupply      uint64 `json:"lp_supply"`
}

// Empty reports whether the pool is in the unseeded state.
func (s State) Empty() bool {
	return s.LPSupply == 0
}

// CheckConsistent verifies the reserves-zero-iff-supply-zero invariant.
func (s State) CheckConsistent() error {
	reservesZero := s.ReserveNative == 0 && s.ReserveAlt == 0
	if reservesZero != (s.LPSupply == 0) {
		return fmt.Errorf("pool state inconsistent: reserves %d/%d, lp supply %d",
			s.ReserveNative, s.ReserveAlt, s.LPSupply)
	}
	if !reservesZero && (s.ReserveNative == 0 || s.ReserveAlt == 0) {
		return fmt.Errorf("pool state inconsistent: one-sided reserves %d/%d",
			s.ReserveNative, s.ReserveAlt)
	}
	return nil
}

// ReserveOf returns the reserve on the given side.
func (s State) ReserveOf(dir Direction) (reserveIn, reserveOut uint64) {
	if dir == NativeToAlt {
		return s.ReserveNative, s.ReserveAlt
	}
	return s.ReserveAlt, s.ReserveNative
}

// Direction names the input side of a swap.
type Direction uint8

const (
	NativeToAlt Direction = iota
	AltToNative
)

func (d Direction) String() string {
	if d == NativeToAlt {
		return "native_to_alt"
	}
	return "alt_to_native"
}
