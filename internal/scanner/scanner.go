// Package scanner advances a block watermark and extracts transfer events
// touching watched addresses.
package scanner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"walletScope/internal/model"
)

// Ledger is the chain surface the scanner needs.
type Ledger interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
}

// WatchlistSource supplies the live watched-address set, read through to
// the store on every tick.
type WatchlistSource interface {
	AllWatchedAddresses(ctx context.Context) ([]string, error)
}

// Sink receives each tick's event batch.
type Sink interface {
	Dispatch(ctx context.Context, events []model.TransferEvent)
}

// Journal optionally records each emitted batch.
type Journal interface {
	Append(events []model.TransferEvent) error
}

// Config holds scanner settings.
type Config struct {
	Interval    time.Duration // tick interval, default 10s
	Lookback    uint64        // blocks behind head to start from, default 100
	CallTimeout time.Duration // bound on each ledger call, default 10s
}

// Scanner is the monitoring core. The watermark is the highest height
// already fully processed; it is written only by the scan loop and only
// after a tick's whole range has been handled.
type Scanner struct {
	cfg        Config
	ledger     Ledger
	watchlist  WatchlistSource
	sink       Sink
	journal    Journal
	extractors []Extractor
	logger     *zap.Logger

	watermark atomic.Uint64
	kick      chan struct{}
}

// NewScanner builds a Scanner with native-transfer extraction registered.
// journal may be nil.
func NewScanner(cfg Config, ledger Ledger, watchlist WatchlistSource, sink Sink, journal Journal, logger *zap.Logger) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Lookback == 0 {
		cfg.Lookback = 100
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		cfg:        cfg,
		ledger:     ledger,
		watchlist:  watchlist,
		sink:       sink,
		journal:    journal,
		extractors: []Extractor{NativeExtractor{}},
		logger:     logger,
		kick:       make(chan struct{}, 1),
	}
}

// Init sets the watermark to head minus the lookback window. Must be
// called once before Run; restarting from a fresh lookback window is the
// accepted source of gaps or duplicates across restarts.
func (s *Scanner) Init(ctx context.Context) error {
	head, err := s.latestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get chain head: %w", err)
	}
	start := uint64(0)
	if head > s.cfg.Lookback {
		start = head - s.cfg.Lookback
	}
	s.watermark.Store(start)
	s.logger.Info("scanner initialized", zap.Uint64("head", head), zap.Uint64("watermark", start))
	return nil
}

// Watermark returns the highest fully processed height.
func (s *Scanner) Watermark() uint64 {
	return s.watermark.Load()
}

// Kick requests an immediate tick from the running loop. Non-blocking;
// a pending kick coalesces with the next one.
func (s *Scanner) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run executes the scan loop until the context is cancelled. Cancellation
// is observed at tick boundaries only, so the watermark is never left
// half-advanced. Tick errors are logged and the loop keeps going.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-s.kick:
		}

		if err := s.Tick(ctx); err != nil {
			s.logger.Warn("scan tick failed", zap.Error(err))
		}
	}
}

// Tick scans (watermark, head] once. Blocks are fetched sequentially in
// increasing height order; a block that fails to fetch is logged and
// skipped, and the watermark still advances to head at the end of the
// batch. Transactions in skipped blocks are permanently missed. Every
// ledger call is bounded by CallTimeout; a stuck endpoint degrades the
// tick instead of stalling the loop.
func (s *Scanner) Tick(ctx context.Context) error {
	head, err := s.latestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("get chain head: %w", err)
	}

	from := s.watermark.Load()
	if head <= from {
		return nil
	}

	watched, err := s.loadWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}
	if len(watched) == 0 {
		s.watermark.Store(head)
		return nil
	}

	s.logger.Debug("scanning blocks", zap.Uint64("from", from+1), zap.Uint64("to", head))

	var events []model.TransferEvent
	for height := from + 1; height <= head; height++ {
		block, err := s.blockByNumber(ctx, height)
		if err != nil {
			s.logger.Warn("block fetch failed, skipping height",
				zap.Uint64("height", height),
				zap.Error(err),
			)
			continue
		}
		for _, extractor := range s.extractors {
			events = append(events, extractor.Extract(block, watched)...)
		}
	}

	s.watermark.Store(head)

	if len(events) == 0 {
		return nil
	}

	s.logger.Info("transfer events found",
		zap.Int("events", len(events)),
		zap.Uint64("from", from+1),
		zap.Uint64("to", head),
	)

	if s.journal != nil {
		if err := s.journal.Append(events); err != nil {
			s.logger.Warn("event journal write failed", zap.Error(err))
		}
	}

	s.sink.Dispatch(ctx, events)
	return nil
}

func (s *Scanner) latestBlockNumber(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.ledger.LatestBlockNumber(callCtx)
}

func (s *Scanner) blockByNumber(ctx context.Context, height uint64) (*types.Block, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.ledger.BlockByNumber(callCtx, height)
}

// loadWatchlist maps lowercased address to canonical form for matching.
func (s *Scanner) loadWatchlist(ctx context.Context) (WatchSet, error) {
	addresses, err := s.watchlist.AllWatchedAddresses(ctx)
	if err != nil {
		return nil, err
	}
	return NewWatchSet(addresses), nil
}
