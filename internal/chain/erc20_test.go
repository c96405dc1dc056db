package chain

import (
	"math/big"
	"testing"
)

func TestAsUint8(t *testing.T) {
	if got, ok := asUint8(uint8(18)); !ok || got != 18 {
		t.Fatalf("uint8 input: got %d, %v", got, ok)
	}
	if got, ok := asUint8(big.NewInt(6)); !ok || got != 6 {
		t.Fatalf("big.Int input: got %d, %v", got, ok)
	}
	if _, ok := asUint8(big.NewInt(256)); ok {
		t.Fatalf("out-of-range big.Int must not convert")
	}
	if _, ok := asUint8("18"); ok {
		t.Fatalf("string input must not convert")
	}
}

func TestBytes32ToString(t *testing.T) {
	var mkr [32]byte
	copy(mkr[:], "MKR")
	if got, ok := bytes32ToString(mkr); !ok || got != "MKR" {
		t.Fatalf("got %q, %v", got, ok)
	}

	var empty [32]byte
	if _, ok := bytes32ToString(empty); ok {
		t.Fatalf("all-zero value must not convert")
	}

	if _, ok := bytes32ToString("MKR"); ok {
		t.Fatalf("non-array input must not convert")
	}
}
