// Package tokenlist holds the curated token table: contract address,
// display symbol, and the price-provider identifier used for valuation.
// The table is configuration data loaded once at startup; the built-in
// defaults can be replaced by a JSON file. The same symbol may appear
// under different contract addresses (historical redeployments) and both
// entries are kept as distinct tokens.
package tokenlist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
)

// WrappedNativeSymbol marks tokens that resolve 1:1 to the native unit.
const WrappedNativeSymbol = "WETH"

// Entry is one curated token.
type Entry struct {
	Contract string `json:"contract"`
	Symbol   string `json:"symbol"`
	PriceID  string `json:"price_id,omitempty"` // provider identifier, empty = not priceable
}

// List is an ordered curated token table with address lookup.
type List struct {
	entries []Entry
	byAddr  map[common.Address]Entry
}

// New builds a List from entries, normalizing contract addresses to their
// checksummed form. Later entries for the same contract address replace
// earlier ones; distinct addresses always stay distinct.
func New(entries []Entry) (*List, error) {
	l := &List{byAddr: make(map[common.Address]Entry, len(entries))}
	for _, e := range entries {
		if !common.IsHexAddress(e.Contract) {
			return nil, fmt.Errorf("token list: invalid contract %q", e.Contract)
		}
		addr := common.HexToAddress(e.Contract)
		e.Contract = addr.Hex()
		if _, seen := l.byAddr[addr]; !seen {
			l.entries = append(l.entries, e)
		}
		l.byAddr[addr] = e
	}
	return l, nil
}

// LoadFile reads a JSON array of entries from path.
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}
	return New(entries)
}

// Entries returns the curated entries in declaration order.
func (l *List) Entries() []Entry {
	return l.entries
}

// Lookup returns the entry for a contract address.
func (l *List) Lookup(contract common.Address) (Entry, bool) {
	e, ok := l.byAddr[contract]
	return e, ok
}

// PriceID returns the price-provider identifier for a contract address.
func (l *List) PriceID(contract common.Address) (string, bool) {
	e, ok := l.byAddr[contract]
	if !ok || e.PriceID == "" {
		return "", false
	}
	return e.PriceID, true
}

// IsWrappedNative reports whether the contract is a wrapped-native token.
func (l *List) IsWrappedNative(contract common.Address) bool {
	e, ok := l.byAddr[contract]
	return ok && e.Symbol == WrappedNativeSymbol
}

// Default returns the built-in curated table.
func Default() *List {
	l, err := New(defaultEntries)
	if err != nil {
		// defaultEntries is static data; a bad entry is a programming error.
		panic(err)
	}
	return l
}

var defaultEntries = []Entry{
	// Stablecoins
	{Contract: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Symbol: "USDT", PriceID: "tether"},
	{Contract: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", PriceID: "usd-coin"},
	{Contract: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", PriceID: "dai"},
	{Contract: "0x4Fabb145d64652a948d72533023f6E7A623C7C53", Symbol: "BUSD", PriceID: "binance-usd"},
	{Contract: "0x853d955aCEf822Db058eb8505911ED77F175b99e", Symbol: "FRAX", PriceID: "frax"},
	{Contract: "0x8E870D67F660D95d5be530380D0eC0bd388289E1", Symbol: "USDP", PriceID: "paxos-standard"},
	// TrueUSD migrated contracts, both tracked on purpose.
	{Contract: "0x0000000000085d4780B73119b644AE5ecd22b376", Symbol: "TUSD", PriceID: "true-usd"},
	{Contract: "0x8dd5fbCe2F6a956C3022bA3663759011Dd51e73E", Symbol: "TUSD", PriceID: "true-usd"},

	// Wrapped majors
	{Contract: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH"},
	{Contract: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Symbol: "WBTC", PriceID: "wrapped-bitcoin"},

	// DeFi blue chips
	{Contract: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Symbol: "LINK", PriceID: "chainlink"},
	{Contract: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Symbol: "UNI", PriceID: "uniswap"},
	{Contract: "0x7D1AfA7B718fb893dB30A3aBc0Cfc608AaCfeBB0", Symbol: "MATIC", PriceID: "matic-network"},
	{Contract: "0x7Fc66500c84A76Ad7e9c93437bFc5Ac33E2DDaE9", Symbol: "AAVE", PriceID: "aave"},
	{Contract: "0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2", Symbol: "MKR", PriceID: "maker"},
	{Contract: "0xC011a73ee8576Fb46F5E1c5751cA3B9Fe0af2a6F", Symbol: "SNX", PriceID: "havven"},
	{Contract: "0x0bc529c00C6401aEF6D220BE8C6Ea1667F6Ad93e", Symbol: "YFI", PriceID: "yearn-finance"},
	{Contract: "0x6B3595068778DD592e39A122f4f5a5cF09C90fE2", Symbol: "SUSHI", PriceID: "sushi"},
	{Contract: "0xD533a949740bb3306d119CC777fa900bA034cd52", Symbol: "CRV", PriceID: "curve-dao-token"},
	{Contract: "0xc00e94Cb662C3520282E6f5717214004A7f26888", Symbol: "COMP", PriceID: "compound-governance-token"},
	{Contract: "0xc944E90C64B2c07662A292be6244BDf05Cda44a7", Symbol: "GRT", PriceID: "the-graph"},
	{Contract: "0x111111111117dC0aa78b770fA6A738034120C302", Symbol: "1INCH", PriceID: "1inch"},

	// Community / misc
	{Contract: "0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE", Symbol: "SHIB", PriceID: "shiba-inu"},
	{Contract: "0x4d224452801ACEd8B2F0aebE155379bb5D594381", Symbol: "APE", PriceID: "apecoin"},
	{Contract: "0xB8c77482e45F1F44dE1745F52C74426C631bDD52", Symbol: "BNB", PriceID: "binancecoin"},
	{Contract: "0x0D8775F648430679A709E98d2b0Cb6250d2887EF", Symbol: "BAT", PriceID: "basic-attention-token"},
	{Contract: "0x0F5D2fB29fb7d3CFeE444a200298f468908cC942", Symbol: "MANA", PriceID: "decentraland"},
	{Contract: "0x3845badAde8e6dFF049820680d1F14bD3903a5d0", Symbol: "SAND", PriceID: "the-sandbox"},
	{Contract: "0xf629cBd94d3791C9250152BD8dfBDF380E2a3B9c", Symbol: "ENJ", PriceID: "enjincoin"},
}
