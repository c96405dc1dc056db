// Package pricing converts token holdings into their native-unit value
// via an external price service. A valuation miss never propagates: every
// failure path resolves to zero so balance and transfer reporting keep
// working without prices.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"walletScope/internal/model"
	"walletScope/internal/tokenlist"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// Config holds resolver settings.
type Config struct {
	BaseURL string        // price service base URL, defaults to CoinGecko
	Timeout time.Duration // per-call bound, defaults to 10s and never exceeds it
}

// Resolver values token holdings in ether. Safe for concurrent use.
type Resolver struct {
	list    *tokenlist.List
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	baseURL string
	logger  *zap.Logger
}

// NewResolver builds a Resolver over the curated token list.
func NewResolver(cfg Config, list *tokenlist.List, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price-service",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("price breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Resolver{
		list:    list,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		baseURL: baseURL,
		logger:  logger,
	}
}

// ValueInNative returns the ether-equivalent value of a holding.
// Wrapped-native tokens convert 1:1 without a network call. Contracts
// absent from the curated table return zero without a network call.
// Any lookup failure also returns zero.
func (r *Resolver) ValueInNative(ctx context.Context, holding model.TokenHolding) float64 {
	if !common.IsHexAddress(holding.Contract) {
		return 0
	}
	contract := common.HexToAddress(holding.Contract)

	if r.list.IsWrappedNative(contract) {
		return holding.Balance
	}

	id, ok := r.list.PriceID(contract)
	if !ok {
		r.logger.Debug("no price identifier for contract", zap.String("contract", holding.Contract))
		return 0
	}

	rate, err := r.rateInNative(ctx, id)
	if err != nil {
		r.logger.Warn("price lookup failed",
			zap.String("symbol", holding.Symbol),
			zap.String("price_id", id),
			zap.Error(err),
		)
		return 0
	}

	return holding.Balance * rate
}

func (r *Resolver) rateInNative(ctx context.Context, id string) (float64, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetchRate(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}

func (r *Resolver) fetchRate(ctx context.Context, id string) (float64, error) {
	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=eth", r.baseURL, url.QueryEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price service status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("parse price payload: %w", err)
	}

	rate, ok := payload[id]["eth"]
	if !ok {
		return 0, fmt.Errorf("%w: no eth rate for %s", model.ErrNotFound, id)
	}
	return rate, nil
}
