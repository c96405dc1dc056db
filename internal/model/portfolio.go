package model

import (
	"math/big"
	"sort"
)

// TokenHolding is one nonzero token balance with its resolved
// ether-equivalent value. Immutable once constructed.
type TokenHolding struct {
	Contract string   `json:"contract"` // canonical form
	Symbol   string   `json:"symbol"`
	Raw      *big.Int `json:"raw"`
	Decimals uint8    `json:"decimals"`
	Balance  float64  `json:"balance"` // Raw scaled by Decimals
	EthValue float64  `json:"eth_value"`
}

// PortfolioSnapshot is the result of one balance query. Not persisted.
type PortfolioSnapshot struct {
	Address       string         `json:"address"`
	EthBalance    float64        `json:"eth_balance"`
	Holdings      []TokenHolding `json:"holdings"`
	TokenEthValue float64        `json:"token_eth_value"`
	TotalEth      float64        `json:"total_eth"`
}

// Finalize computes the snapshot totals and orders holdings by descending
// ether value, ties keeping their discovery order. The total is accumulated
// over a contract-sorted copy so it does not depend on discovery order.
func (s *PortfolioSnapshot) Finalize() {
	canonical := make([]TokenHolding, len(s.Holdings))
	copy(canonical, s.Holdings)
	sort.Slice(canonical, func(i, j int) bool {
		return canonical[i].Contract < canonical[j].Contract
	})

	var tokenTotal float64
	for _, h := range canonical {
		tokenTotal += h.EthValue
	}
	s.TokenEthValue = tokenTotal
	s.TotalEth = s.EthBalance + tokenTotal

	sort.SliceStable(s.Holdings, func(i, j int) bool {
		return s.Holdings[i].EthValue > s.Holdings[j].EthValue
	})
}
