package asset_test

import (
	"strings"
	"testing"

	"PoolLedger/internal/asset"
)

func testID(b byte) asset.ID {
	var id asset.ID
	id[0] = b
	return id
}

func TestParse_RoundTrip(t *testing.T) {
	id := testID(0xab)
	parsed, err := asset.Parse(id.String())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: got %s, want %s", parsed, id)
	}
}

func TestParse_BadLength(t *testing.T) {
	_, err := asset.Parse("abcd")
	if err == nil {
		t.Error("short hex should fail")
	}
}

func TestParse_BadHex(t *testing.T) {
	_, err := asset.Parse(strings.Repeat("zz", 32))
	if err == nil {
		t.Error("non-hex input should fail")
	}
}

func TestNewRegistry_RejectsNativeContract(t *testing.T) {
	if _, err := asset.NewRegistry(asset.Native, testID(2)); err == nil {
		t.Error("zero contract id should be rejected")
	}
}

func TestNewRegistry_RejectsNativeAlt(t *testing.T) {
	if _, err := asset.NewRegistry(testID(1), asset.Native); err == nil {
		t.Error("zero alt id should be rejected")
	}
}

func TestNewRegistry_RejectsAltEqualContract(t *testing.T) {
	if _, err := asset.NewRegistry(testID(1), testID(1)); err == nil {
		t.Error("alt == contract should be rejected")
	}
}

func TestRegistry_Kind(t *testing.T) {
	contract := testID(1)
	alt := testID(2)
	r, err := asset.NewRegistry(contract, alt)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if got := r.Kind(asset.Native); got != asset.KindNative {
		t.Errorf("native: got %s", got)
	}
	if got := r.Kind(alt); got != asset.KindAlt {
		t.Errorf("alt: got %s", got)
	}
	if got := r.Kind(contract); got != asset.KindLP {
		t.Errorf("lp: got %s", got)
	}
	if got := r.Kind(testID(9)); got != asset.KindOther {
		t.Errorf("other: got %s", got)
	}
}

func TestRegistry_LPAssetIsContractID(t *testing.T) {
	contract := testID(1)
	r, err := asset.NewRegistry(contract, testID(2))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if r.LPAssetID() != contract {
		t.Error("LP asset id should equal contract id")
	}
}
