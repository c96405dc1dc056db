package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// CanonicalAddress normalizes a hex account address to its EIP-55
// checksummed form. Case variants of the same address always map to the
// same canonical string, and the function is idempotent.
func CanonicalAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw).Hex(), nil
}

// IsValidAddress reports whether raw parses as a hex account address.
func IsValidAddress(raw string) bool {
	return common.IsHexAddress(strings.TrimSpace(raw))
}
