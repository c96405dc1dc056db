package scanner

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"walletScope/internal/model"
)

// ERC20TransferTopic is the topic0 of Transfer(address,address,uint256).
// A log-based Extractor for token transfers filters on it; adding one
// does not change the watermark or batching contract.
var ERC20TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// WatchSet maps lowercased addresses to their canonical form for
// case-insensitive matching.
type WatchSet map[string]string

// NewWatchSet builds a WatchSet from canonical addresses.
func NewWatchSet(addresses []string) WatchSet {
	set := make(WatchSet, len(addresses))
	for _, address := range addresses {
		set[strings.ToLower(address)] = address
	}
	return set
}

// Match returns the canonical form of address if it is watched.
func (w WatchSet) Match(address string) (string, bool) {
	canonical, ok := w[strings.ToLower(address)]
	return canonical, ok
}

// Extractor turns one block into transfer events for watched addresses.
type Extractor interface {
	Extract(block *types.Block, watched WatchSet) []model.TransferEvent
}

// NativeExtractor reads native-coin transfers straight from transaction
// value fields. Each watched side of a transaction yields one event, so a
// self-transfer of a watched address yields two.
type NativeExtractor struct{}

func (NativeExtractor) Extract(block *types.Block, watched WatchSet) []model.TransferEvent {
	blockTime := time.Unix(int64(block.Time()), 0).UTC()

	var events []model.TransferEvent
	for _, tx := range block.Transactions() {
		sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
		if err != nil {
			continue
		}

		from := sender.Hex()
		to := ""
		if tx.To() != nil {
			to = tx.To().Hex()
		}

		base := model.TransferEvent{
			Kind:      model.AssetNative,
			From:      from,
			To:        to,
			Amount:    tx.Value(),
			Symbol:    "ETH",
			Block:     block.NumberU64(),
			BlockTime: blockTime,
			TxHash:    tx.Hash().Hex(),
			GasLimit:  tx.Gas(),
			GasPrice:  tx.GasPrice(),
		}

		if canonical, ok := watched.Match(from); ok {
			ev := base
			ev.Address = canonical
			ev.Direction = model.DirectionOutgoing
			events = append(events, ev)
		}
		if to != "" {
			if canonical, ok := watched.Match(to); ok {
				ev := base
				ev.Address = canonical
				ev.Direction = model.DirectionIncoming
				events = append(events, ev)
			}
		}
	}
	return events
}
