// Package portfolio composes native and token balances into ranked
// portfolio snapshots.
package portfolio

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"walletScope/internal/model"
)

// Mode selects which balances a snapshot includes.
type Mode int

const (
	ModeNativeOnly Mode = iota
	ModeSingleToken
	ModeFullScan
)

// Query describes one snapshot request.
type Query struct {
	Mode     Mode
	Contract string // required for ModeSingleToken
}

// Valuer resolves a holding's ether-equivalent value.
type Valuer interface {
	ValueInNative(ctx context.Context, holding model.TokenHolding) float64
}

// Aggregator builds portfolio snapshots. Full scans try the provider
// discovery first and fall back to curated probing when it fails.
type Aggregator struct {
	ledger   Ledger
	valuer   Valuer
	primary  Discoverer
	fallback Discoverer
	logger   *zap.Logger
}

func NewAggregator(ledger Ledger, valuer Valuer, primary, fallback Discoverer, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		ledger:   ledger,
		valuer:   valuer,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Snapshot returns a fresh portfolio snapshot for the address. The native
// balance is mandatory; token discovery and valuation failures degrade to
// fewer or unvalued holdings instead of failing the query.
func (a *Aggregator) Snapshot(ctx context.Context, address string, q Query) (*model.PortfolioSnapshot, error) {
	canonical, err := model.CanonicalAddress(address)
	if err != nil {
		return nil, err
	}
	owner := common.HexToAddress(canonical)

	wei, err := a.ledger.NativeBalance(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("native balance %s: %w", canonical, err)
	}

	snapshot := &model.PortfolioSnapshot{
		Address:    canonical,
		EthBalance: model.WeiToEther(wei),
	}

	var holdings []model.TokenHolding
	switch q.Mode {
	case ModeNativeOnly:
	case ModeSingleToken:
		holdings = a.singleToken(ctx, owner, q.Contract)
	case ModeFullScan:
		holdings = a.fullScan(ctx, owner)
	default:
		return nil, fmt.Errorf("unknown snapshot mode %d", q.Mode)
	}

	snapshot.Holdings = dedupeByContract(holdings)
	for i := range snapshot.Holdings {
		snapshot.Holdings[i].EthValue = a.valuer.ValueInNative(ctx, snapshot.Holdings[i])
	}

	snapshot.Finalize()
	return snapshot, nil
}

func (a *Aggregator) singleToken(ctx context.Context, owner common.Address, contract string) []model.TokenHolding {
	canonical, err := model.CanonicalAddress(contract)
	if err != nil {
		a.logger.Warn("invalid token contract", zap.String("contract", contract), zap.Error(err))
		return nil
	}
	token := common.HexToAddress(canonical)

	balance, err := a.ledger.TokenBalanceOf(ctx, owner, token)
	if err != nil {
		a.logger.Warn("token balance lookup failed",
			zap.String("owner", owner.Hex()),
			zap.String("contract", canonical),
			zap.Error(err),
		)
		return nil
	}
	if balance.Raw == nil || balance.Raw.Sign() == 0 {
		return nil
	}

	return []model.TokenHolding{{
		Contract: canonical,
		Symbol:   balance.Symbol,
		Raw:      balance.Raw,
		Decimals: balance.Decimals,
		Balance:  scaleRaw(balance.Raw, balance.Decimals),
	}}
}

func (a *Aggregator) fullScan(ctx context.Context, owner common.Address) []model.TokenHolding {
	holdings, err := a.primary.Discover(ctx, owner)
	if err == nil {
		return holdings
	}
	a.logger.Warn("provider discovery failed, probing curated list",
		zap.String("owner", owner.Hex()),
		zap.Error(err),
	)

	holdings, err = a.fallback.Discover(ctx, owner)
	if err != nil {
		a.logger.Warn("curated probing failed", zap.String("owner", owner.Hex()), zap.Error(err))
		return nil
	}
	return holdings
}

// dedupeByContract keeps the first holding per contract address. Distinct
// contracts sharing a symbol stay distinct.
func dedupeByContract(holdings []model.TokenHolding) []model.TokenHolding {
	if len(holdings) == 0 {
		return nil
	}
	seen := make(map[common.Address]struct{}, len(holdings))
	out := make([]model.TokenHolding, 0, len(holdings))
	for _, h := range holdings {
		addr := common.HexToAddress(h.Contract)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, h)
	}
	return out
}
