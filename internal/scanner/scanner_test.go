package scanner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"walletScope/internal/model"
)

type fakeLedger struct {
	head    uint64
	blocks  map[uint64]*types.Block
	fail    map[uint64]bool
	fetched []uint64
}

func (f *fakeLedger) LatestBlockNumber(_ context.Context) (uint64, error) {
	return f.head, nil
}

func (f *fakeLedger) BlockByNumber(_ context.Context, number uint64) (*types.Block, error) {
	f.fetched = append(f.fetched, number)
	if f.fail[number] {
		return nil, fmt.Errorf("block %d unavailable", number)
	}
	block, ok := f.blocks[number]
	if !ok {
		return nil, model.ErrNotFound
	}
	return block, nil
}

// stuckLedger never answers; it returns only when the call context is
// cancelled, like an RPC endpoint that accepted the connection and hung.
type stuckLedger struct{}

func (stuckLedger) LatestBlockNumber(ctx context.Context) (uint64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (stuckLedger) BlockByNumber(ctx context.Context, _ uint64) (*types.Block, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// stuckBlockLedger answers head queries but hangs on every block fetch.
type stuckBlockLedger struct {
	head uint64
}

func (l *stuckBlockLedger) LatestBlockNumber(_ context.Context) (uint64, error) {
	return l.head, nil
}

func (l *stuckBlockLedger) BlockByNumber(ctx context.Context, _ uint64) (*types.Block, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeWatchlist struct {
	addresses []string
	err       error
}

func (f *fakeWatchlist) AllWatchedAddresses(_ context.Context) ([]string, error) {
	return f.addresses, f.err
}

type fakeSink struct {
	batches [][]model.TransferEvent
}

func (f *fakeSink) Dispatch(_ context.Context, events []model.TransferEvent) {
	f.batches = append(f.batches, events)
}

type failingJournal struct{ appends int }

func (j *failingJournal) Append(_ []model.TransferEvent) error {
	j.appends++
	return fmt.Errorf("disk full")
}

func signedTransfer(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, to common.Address, value int64) *types.Transaction {
	t.Helper()
	signer := types.LatestSignerForChainID(big.NewInt(1))
	return types.MustSignNewTx(key, signer, &types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(value),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func makeBlock(height uint64, ts uint64, txs ...*types.Transaction) *types.Block {
	header := &types.Header{Number: new(big.Int).SetUint64(height), Time: ts}
	return types.NewBlockWithHeader(header).WithBody(txs, nil)
}

func TestInitLookback(t *testing.T) {
	ledger := &fakeLedger{head: 500}
	s := NewScanner(Config{Lookback: 100}, ledger, &fakeWatchlist{}, &fakeSink{}, nil, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Watermark(); got != 400 {
		t.Fatalf("watermark: got %d, want 400", got)
	}
}

func TestInitNearGenesis(t *testing.T) {
	ledger := &fakeLedger{head: 50}
	s := NewScanner(Config{Lookback: 100}, ledger, &fakeWatchlist{}, &fakeSink{}, nil, nil)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Watermark(); got != 0 {
		t.Fatalf("watermark: got %d, want 0", got)
	}
}

func TestTickNoNewBlocks(t *testing.T) {
	ledger := &fakeLedger{head: 100}
	sink := &fakeSink{}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{addresses: []string{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"}}, sink, nil, nil)
	s.watermark.Store(100)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.fetched) != 0 {
		t.Fatalf("expected no block fetches, got %v", ledger.fetched)
	}
	if got := s.Watermark(); got != 100 {
		t.Fatalf("watermark moved: %d", got)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("unexpected dispatch: %+v", sink.batches)
	}
}

func TestTickEmptyWatchlistAdvances(t *testing.T) {
	ledger := &fakeLedger{head: 110}
	sink := &fakeSink{}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{}, sink, nil, nil)
	s.watermark.Store(100)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.fetched) != 0 {
		t.Fatalf("expected no block fetches, got %v", ledger.fetched)
	}
	if got := s.Watermark(); got != 110 {
		t.Fatalf("watermark: got %d, want 110", got)
	}
}

func TestTickWatchlistErrorHoldsWatermark(t *testing.T) {
	ledger := &fakeLedger{head: 110}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{err: fmt.Errorf("store down")}, &fakeSink{}, nil, nil)
	s.watermark.Store(100)

	if err := s.Tick(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if got := s.Watermark(); got != 100 {
		t.Fatalf("watermark moved on failed tick: %d", got)
	}
}

// A block that fails to fetch is skipped, the remaining blocks are still
// scanned, and the watermark lands on head so the height is never retried.
func TestTickSkipsFailedBlock(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	watchedKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	watched := crypto.PubkeyToAddress(watchedKey.PublicKey)

	ledger := &fakeLedger{
		head: 103,
		blocks: map[uint64]*types.Block{
			101: makeBlock(101, 1700000000, signedTransfer(t, key, 0, watched, 1000)),
			103: makeBlock(103, 1700000024, signedTransfer(t, key, 1, watched, 2000)),
		},
		fail: map[uint64]bool{102: true},
	}
	sink := &fakeSink{}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{addresses: []string{watched.Hex()}}, sink, nil, nil)
	s.watermark.Store(100)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Watermark(); got != 103 {
		t.Fatalf("watermark: got %d, want 103", got)
	}
	if len(sink.batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(sink.batches))
	}

	events := sink.batches[0]
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Block != 101 || events[1].Block != 103 {
		t.Fatalf("event heights: %d, %d", events[0].Block, events[1].Block)
	}
	for _, ev := range events {
		if ev.Direction != model.DirectionIncoming {
			t.Fatalf("expected incoming event, got %s", ev.Direction)
		}
		if ev.Address != watched.Hex() {
			t.Fatalf("watched party: got %s, want %s", ev.Address, watched.Hex())
		}
	}
}

func TestTickJournalFailureStillDispatches(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	watchedKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	watched := crypto.PubkeyToAddress(watchedKey.PublicKey)

	ledger := &fakeLedger{
		head: 101,
		blocks: map[uint64]*types.Block{
			101: makeBlock(101, 1700000000, signedTransfer(t, key, 0, watched, 1)),
		},
	}
	sink := &fakeSink{}
	journal := &failingJournal{}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{addresses: []string{watched.Hex()}}, sink, journal, nil)
	s.watermark.Store(100)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if journal.appends != 1 {
		t.Fatalf("journal appends: %d", journal.appends)
	}
	if len(sink.batches) != 1 {
		t.Fatalf("expected dispatch despite journal failure, got %d batches", len(sink.batches))
	}
}

func TestNativeExtractorBothSidesWatched(t *testing.T) {
	senderKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sender := crypto.PubkeyToAddress(senderKey.PublicKey)

	// Self-transfer of a watched address yields one outgoing and one
	// incoming event for the same transaction.
	block := makeBlock(200, 1700000000, signedTransfer(t, senderKey, 0, sender, 5000))
	watched := NewWatchSet([]string{sender.Hex()})

	events := NativeExtractor{}.Extract(block, watched)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	if events[0].Direction != model.DirectionOutgoing || events[1].Direction != model.DirectionIncoming {
		t.Fatalf("directions: %s, %s", events[0].Direction, events[1].Direction)
	}
	if events[0].TxHash != events[1].TxHash {
		t.Fatalf("hash mismatch across sides")
	}
}

func TestNativeExtractorCaseInsensitiveMatch(t *testing.T) {
	senderKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	recipientKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	recipient := crypto.PubkeyToAddress(recipientKey.PublicKey)

	block := makeBlock(200, 1700000000, signedTransfer(t, senderKey, 0, recipient, 5000))

	// Watchlist entries are canonical, transactions carry whatever the
	// chain returns; matching ignores case but events carry canonical form.
	watched := NewWatchSet([]string{recipient.Hex()})
	events := NativeExtractor{}.Extract(block, watched)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Address != recipient.Hex() {
		t.Fatalf("address: got %s, want %s", events[0].Address, recipient.Hex())
	}
	if events[0].Amount.Int64() != 5000 {
		t.Fatalf("amount: got %s", events[0].Amount)
	}
}

func TestNativeExtractorUnwatched(t *testing.T) {
	senderKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	otherKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	other := crypto.PubkeyToAddress(otherKey.PublicKey)

	block := makeBlock(200, 1700000000, signedTransfer(t, senderKey, 0, other, 1))
	watched := NewWatchSet([]string{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"})

	if events := (NativeExtractor{}).Extract(block, watched); len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

// Random head movements, including stalls and apparent rewinds, with every
// block fetch failing: the watermark must never decrease.
func TestWatermarkMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ledger := &fakeLedger{fail: map[uint64]bool{}}
	s := NewScanner(Config{}, ledger, &fakeWatchlist{addresses: []string{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"}}, &fakeSink{}, nil, nil)

	head := uint64(1000)
	s.watermark.Store(head)

	for i := 0; i < 200; i++ {
		head = uint64(990 + rng.Intn(40))
		ledger.head = head
		for h := uint64(990); h <= 1030; h++ {
			ledger.fail[h] = rng.Intn(2) == 0
		}

		before := s.Watermark()
		if err := s.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		after := s.Watermark()
		if after < before {
			t.Fatalf("watermark decreased: %d -> %d (head %d)", before, after, head)
		}
	}
}

// A head query against a hung endpoint must fail within the call bound
// even when the loop context itself carries no deadline.
func TestTickBoundsHeadQuery(t *testing.T) {
	s := NewScanner(Config{CallTimeout: 50 * time.Millisecond}, stuckLedger{},
		&fakeWatchlist{addresses: []string{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"}}, &fakeSink{}, nil, nil)

	start := time.Now()
	err := s.Tick(context.Background())
	if err == nil {
		t.Fatalf("expected error from hung endpoint")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("tick blocked for %v, call bound not applied", elapsed)
	}
}

// Hung block fetches time out per call, count as skipped heights, and the
// watermark still advances.
func TestTickBoundsBlockFetches(t *testing.T) {
	ledger := &stuckBlockLedger{head: 102}
	sink := &fakeSink{}
	s := NewScanner(Config{CallTimeout: 50 * time.Millisecond}, ledger,
		&fakeWatchlist{addresses: []string{"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"}}, sink, nil, nil)
	s.watermark.Store(100)

	start := time.Now()
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("tick blocked for %v, call bound not applied", elapsed)
	}
	if got := s.Watermark(); got != 102 {
		t.Fatalf("watermark: got %d, want 102", got)
	}
	if len(sink.batches) != 0 {
		t.Fatalf("unexpected dispatch: %+v", sink.batches)
	}
}

func TestInitBoundsHeadQuery(t *testing.T) {
	s := NewScanner(Config{CallTimeout: 50 * time.Millisecond}, stuckLedger{}, &fakeWatchlist{}, &fakeSink{}, nil, nil)

	start := time.Now()
	if err := s.Init(context.Background()); err == nil {
		t.Fatalf("expected error from hung endpoint")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("init blocked for %v, call bound not applied", elapsed)
	}
}

func TestKickNonBlocking(t *testing.T) {
	s := NewScanner(Config{}, &fakeLedger{}, &fakeWatchlist{}, &fakeSink{}, nil, nil)
	s.Kick()
	s.Kick() // second kick coalesces instead of blocking
}
