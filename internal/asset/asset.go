package asset

import (
	"encoding/hex"
	"fmt"
)

// ID is the 32-byte asset identifier used by the execution environment.
// The native asset is the all-zero ID; the pool's LP token shares the
// contract's own identity.
type ID [32]byte

// Native is the base asset of the execution environment.
var Native = ID{}

// Kind classifies an asset ID relative to a pool.
type Kind uint8

const (
	KindNative Kind = iota
	KindAlt
	KindLP
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindAlt:
		return "alt"
	case KindLP:
		return "lp"
	default:
		return "other"
	}
}

// String returns the hex form of the ID.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether the ID is the native (all-zero) asset.
func (id ID) IsZero() bool {
	return id == Native
}

// MarshalText renders the ID as hex so it serializes as a JSON string.
func (id ID) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(id)))
	hex.Encode(out, id[:])
	return out, nil
}

// UnmarshalText parses the hex form produced by MarshalText.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse decodes a 64-character hex string into an ID.
func Parse(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("decode asset id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("asset id must be %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// Registry classifies asset IDs against a pool's contract identity.
// The contract ID doubles as the LP token asset ID.
type Registry struct {
	contractID ID
	altID      ID
}

// NewRegistry builds a registry for a pool holding the native asset and altID,
// issuing LP tokens under contractID.
func NewRegistry(contractID, altID ID) (*Registry, error) {
	if contractID.IsZero() {
		return nil, fmt.Errorf("contract id must not be the native asset id")
	}
	if altID.IsZero() {
		return nil, fmt.Errorf("alt asset id must not be the native asset id")
	}
	if altID == contractID {
		return nil, fmt.Errorf("alt asset id must not equal the contract id")
	}
	return &Registry{contractID: contractID, altID: altID}, nil
}

// ContractID returns the pool's own identity.
func (r *Registry) ContractID() ID {
	return r.contractID
}

// LPAssetID returns the asset ID of the pool-share token.
func (r *Registry) LPAssetID() ID {
	return r.contractID
}

// AltID returns the pooled alt asset's ID.
func (r *Registry) AltID() ID {
	return r.altID
}

// Kind classifies id against this pool.
func (r *Registry) Kind(id ID) Kind {
	switch id {
	case Native:
		return KindNative
	case r.altID:
		return KindAlt
	case r.contractID:
		return KindLP
	default:
		return KindOther
	}
}
