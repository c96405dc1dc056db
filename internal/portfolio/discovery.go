package portfolio

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"walletScope/internal/chain"
	"walletScope/internal/model"
	"walletScope/internal/tokenlist"
)

// Ledger is the chain surface balance aggregation needs.
type Ledger interface {
	NativeBalance(ctx context.Context, address common.Address) (*big.Int, error)
	TokenBalanceOf(ctx context.Context, owner, token common.Address) (chain.TokenBalance, error)
	TokenMetadata(ctx context.Context, token common.Address) (string, uint8)
	RawCall(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// Discoverer finds the nonzero token holdings of an address. Holdings are
// returned unvalued; the aggregator prices them afterwards.
type Discoverer interface {
	Discover(ctx context.Context, owner common.Address) ([]model.TokenHolding, error)
}

// ProviderDiscovery asks the RPC provider for all nonzero token balances
// in one call (alchemy_getTokenBalances). Providers without the method
// return an error, which selects the curated fallback.
type ProviderDiscovery struct {
	ledger Ledger
	logger *zap.Logger
}

func NewProviderDiscovery(ledger Ledger, logger *zap.Logger) *ProviderDiscovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderDiscovery{ledger: ledger, logger: logger}
}

type providerTokenBalance struct {
	ContractAddress string `json:"contractAddress"`
	TokenBalance    string `json:"tokenBalance"`
}

type providerBalancesResult struct {
	Address       string                 `json:"address"`
	TokenBalances []providerTokenBalance `json:"tokenBalances"`
}

func (d *ProviderDiscovery) Discover(ctx context.Context, owner common.Address) ([]model.TokenHolding, error) {
	var result providerBalancesResult
	if err := d.ledger.RawCall(ctx, &result, "alchemy_getTokenBalances", owner, "erc20"); err != nil {
		return nil, fmt.Errorf("provider token discovery: %w", err)
	}

	holdings := make([]model.TokenHolding, 0, len(result.TokenBalances))
	for _, tb := range result.TokenBalances {
		if !common.IsHexAddress(tb.ContractAddress) {
			continue
		}
		raw, ok := parseHexAmount(tb.TokenBalance)
		if !ok || raw.Sign() == 0 {
			continue
		}

		contract := common.HexToAddress(tb.ContractAddress)
		symbol, decimals := d.ledger.TokenMetadata(ctx, contract)
		holdings = append(holdings, model.TokenHolding{
			Contract: contract.Hex(),
			Symbol:   symbol,
			Raw:      raw,
			Decimals: decimals,
			Balance:  scaleRaw(raw, decimals),
		})
	}

	return holdings, nil
}

func parseHexAmount(value string) (*big.Int, bool) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return nil, false
	}
	raw, ok := new(big.Int).SetString(trimmed, 16)
	if !ok {
		return nil, false
	}
	return raw, true
}

// CuratedDiscovery probes the curated token table contract by contract.
// Probes run in parallel per contract; per-contract failures are isolated
// and the surviving results keep table order.
type CuratedDiscovery struct {
	ledger      Ledger
	list        *tokenlist.List
	concurrency int
	logger      *zap.Logger
}

func NewCuratedDiscovery(ledger Ledger, list *tokenlist.List, concurrency int, logger *zap.Logger) *CuratedDiscovery {
	if concurrency <= 0 {
		concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CuratedDiscovery{ledger: ledger, list: list, concurrency: concurrency, logger: logger}
}

func (d *CuratedDiscovery) Discover(ctx context.Context, owner common.Address) ([]model.TokenHolding, error) {
	entries := d.list.Entries()

	type indexed struct {
		pos     int
		holding model.TokenHolding
	}

	var (
		mu      sync.Mutex
		found   []indexed
		wg      sync.WaitGroup
		permits = make(chan struct{}, d.concurrency)
	)

	for pos, entry := range entries {
		wg.Add(1)
		go func(pos int, entry tokenlist.Entry) {
			defer wg.Done()
			permits <- struct{}{}
			defer func() { <-permits }()

			contract := common.HexToAddress(entry.Contract)
			balance, err := d.ledger.TokenBalanceOf(ctx, owner, contract)
			if err != nil {
				d.logger.Debug("token probe failed",
					zap.String("symbol", entry.Symbol),
					zap.String("contract", entry.Contract),
					zap.Error(err),
				)
				return
			}
			if balance.Raw == nil || balance.Raw.Sign() == 0 {
				return
			}

			symbol := balance.Symbol
			if symbol == "" || symbol == "UNKNOWN" {
				symbol = entry.Symbol
			}

			mu.Lock()
			found = append(found, indexed{pos: pos, holding: model.TokenHolding{
				Contract: contract.Hex(),
				Symbol:   symbol,
				Raw:      balance.Raw,
				Decimals: balance.Decimals,
				Balance:  scaleRaw(balance.Raw, balance.Decimals),
			}})
			mu.Unlock()
		}(pos, entry)
	}
	wg.Wait()

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	holdings := make([]model.TokenHolding, 0, len(found))
	for _, f := range found {
		holdings = append(holdings, f.holding)
	}
	return holdings, nil
}

func scaleRaw(raw *big.Int, decimals uint8) float64 {
	if raw == nil {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(raw), scale).Float64()
	return value
}
