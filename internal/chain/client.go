package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"walletScope/internal/model"
)

// Client wraps go-ethereum RPC and provides the ledger surface the
// monitor needs. Safe for concurrent use by the scan loop and ad-hoc
// balance queries.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// IsReachable reports whether the endpoint answers a chain-id probe.
// Health reporting only.
func (c *Client) IsReachable(ctx context.Context) bool {
	_, err := c.ethClient.ChainID(ctx)
	return err == nil
}

// LatestBlockNumber returns the current chain height.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// NativeBalance returns the current native-unit balance of an address.
func (c *Client) NativeBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	return c.ethClient.BalanceAt(ctx, address, nil)
}

// BlockByNumber returns the full block, transactions included.
func (c *Client) BlockByNumber(ctx context.Context, number uint64) (*types.Block, error) {
	block, err := c.ethClient.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return block, nil
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// RawCall issues a provider-specific RPC method. Used by the enhanced
// token-discovery path.
func (c *Client) RawCall(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return c.rpcClient.CallContext(ctx, result, method, args...)
}
