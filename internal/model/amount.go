package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// WeiToEther converts a wei amount to ether as a float64.
func WeiToEther(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetUint64(params.Ether),
	).Float64()
	return f
}

// FormatEther renders a wei amount as a fixed six-decimal ether string.
func FormatEther(wei *big.Int) string {
	return fmt.Sprintf("%.6f", WeiToEther(wei))
}
