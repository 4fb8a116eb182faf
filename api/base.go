package api

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is an RPC session with one endpoint
type Client struct {
	eth    *ethclient.Client
	rpcURL string
}

// ConnectionInfo is what the liveness check learned about the endpoint
type ConnectionInfo struct {
	ChainID     *big.Int
	BlockNumber uint64
}

// Dial opens a session. For HTTP endpoints no request is made yet, so an
// unreachable node only shows up in CheckConnection or later calls.
func Dial(ctx context.Context, rpcURL string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	return &Client{
		eth:    eth,
		rpcURL: rpcURL,
	}, nil
}

// Backend exposes the session to the contract binding
func (c *Client) Backend() Backend {
	return c.eth
}

// URL returns the endpoint this client talks to
func (c *Client) URL() string {
	return c.rpcURL
}

// CheckConnection verifies that the endpoint answers
func (c *Client) CheckConnection(ctx context.Context) (*ConnectionInfo, error) {
	return CheckConnection(ctx, c.eth)
}

// Close releases the underlying connection
func (c *Client) Close() {
	c.eth.Close()
}

// CheckConnection asks the backend for its chain id and head block
func CheckConnection(ctx context.Context, b Backend) (*ConnectionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, ConnectionCheckTimeout)
	defer cancel()

	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	block, err := b.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block number: %w", err)
	}

	return &ConnectionInfo{
		ChainID:     chainID,
		BlockNumber: block,
	}, nil
}
