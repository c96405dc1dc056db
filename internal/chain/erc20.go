package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"walletScope/internal/model"
)

const erc20ABIStringJSON = `[
  {"inputs": [{"type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
)

func erc20ABIStringInstance() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// TokenBalance is one token balance with the contract metadata needed to
// scale and display it.
type TokenBalance struct {
	Raw      *big.Int
	Symbol   string
	Decimals uint8
}

// TokenBalanceOf returns the token balance of owner at the given contract,
// together with symbol and decimals. A contract that returns no data for
// balanceOf is reported as model.ErrNotFound.
func (c *Client) TokenBalanceOf(ctx context.Context, owner, token common.Address) (TokenBalance, error) {
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return TokenBalance{}, fmt.Errorf("parse erc20 abi: %w", err)
	}

	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("pack balanceOf: %w", err)
	}
	resp, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("call balanceOf: %w", err)
	}
	if len(resp) == 0 {
		return TokenBalance{}, fmt.Errorf("%w: no code at %s", model.ErrNotFound, token.Hex())
	}
	values, err := parsed.Unpack("balanceOf", resp)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("unpack balanceOf: %w", err)
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return TokenBalance{}, fmt.Errorf("balanceOf: unexpected type %T", values[0])
	}

	symbol, decimals := c.tokenMetadata(ctx, token)
	return TokenBalance{Raw: raw, Symbol: symbol, Decimals: decimals}, nil
}

// TokenMetadata returns the symbol and decimals of a token contract, with
// best-effort fallbacks: "UNKNOWN" and 18 when the calls fail.
func (c *Client) TokenMetadata(ctx context.Context, token common.Address) (string, uint8) {
	return c.tokenMetadata(ctx, token)
}

func (c *Client) tokenMetadata(ctx context.Context, token common.Address) (string, uint8) {
	symbol := "UNKNOWN"
	var decimals uint8 = 18

	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return symbol, decimals
	}

	if values, err := c.callTokenMethod(ctx, token, parsed, "decimals"); err == nil {
		if d, ok := asUint8(values[0]); ok {
			decimals = d
		}
	}

	if values, err := c.callTokenMethod(ctx, token, parsed, "symbol"); err == nil {
		if s, ok := values[0].(string); ok && s != "" {
			return s, decimals
		}
	}

	// Some older contracts declare symbol as bytes32.
	if b32ABI, err := erc20ABIBytes32Instance(); err == nil {
		if values, err := c.callTokenMethod(ctx, token, b32ABI, "symbol"); err == nil {
			if s, ok := bytes32ToString(values[0]); ok {
				return s, decimals
			}
		}
	}

	return symbol, decimals
}

func (c *Client) callTokenMethod(ctx context.Context, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return values, nil
}

func asUint8(v interface{}) (uint8, bool) {
	switch typed := v.(type) {
	case uint8:
		return typed, true
	case *big.Int:
		if typed.IsUint64() && typed.Uint64() <= 255 {
			return uint8(typed.Uint64()), true
		}
	}
	return 0, false
}

func bytes32ToString(v interface{}) (string, bool) {
	b, ok := v.([32]byte)
	if !ok {
		return "", false
	}
	trimmed := bytes.TrimRight(b[:], "\x00")
	if len(trimmed) == 0 {
		return "", false
	}
	return string(trimmed), true
}
