package model

import (
	"math/big"
	"time"
)

// AssetKind distinguishes native-coin transfers from token transfers.
type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

// Direction is the side of a transfer relative to the watched address.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// TransferEvent is one observed transfer touching a watched address.
// Produced by the scanner, immutable afterwards. A self-transfer of a
// watched address yields two events, one per direction.
type TransferEvent struct {
	Kind      AssetKind `json:"kind"`
	Address   string    `json:"address"` // watched party, canonical form
	Direction Direction `json:"direction"`
	From      string    `json:"from"`
	To        string    `json:"to,omitempty"` // empty for contract creation
	Amount    *big.Int  `json:"amount"`
	Symbol    string    `json:"symbol"`
	Contract  string    `json:"contract,omitempty"` // empty for native
	Block     uint64    `json:"block"`
	BlockTime time.Time `json:"block_time"`
	TxHash    string    `json:"tx_hash"`
	GasLimit  uint64    `json:"gas_limit"`
	GasPrice  *big.Int  `json:"gas_price"`
}
