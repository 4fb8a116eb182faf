package api

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
)

// ErrMethodMissing is returned when the ABI lacks a method the claim flow needs
var ErrMethodMissing = errors.New("method missing from contract abi")

// TxOpts are the fixed fee parameters of a withdrawal transaction
type TxOpts struct {
	GasLimit uint64
	GasPrice *big.Int
}

// Contract is a read-only handle on the claim contract
type Contract struct {
	address common.Address
	abi     abi.ABI
	backend Backend
	log     log.Logger

	mu      sync.Mutex
	chainID *big.Int
}

// LoadABI parses a contract ABI file and checks it has the claim methods
func LoadABI(path string) (abi.ABI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read abi file: %w", err)
	}
	return ParseABI(data)
}

// ParseABI parses ABI JSON and checks it has the claim methods
func ParseABI(data []byte) (abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse abi: %w", err)
	}

	withdrawTime, ok := parsed.Methods[MethodWithdrawTime]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %s", ErrMethodMissing, MethodWithdrawTime)
	}
	if len(withdrawTime.Inputs) != 1 || withdrawTime.Inputs[0].Type.T != abi.AddressTy {
		return abi.ABI{}, fmt.Errorf("%s must take a single address argument", MethodWithdrawTime)
	}
	if len(withdrawTime.Outputs) != 1 || withdrawTime.Outputs[0].Type.T != abi.UintTy {
		return abi.ABI{}, fmt.Errorf("%s must return a single unsigned integer", MethodWithdrawTime)
	}

	requestTokens, ok := parsed.Methods[MethodRequestTokens]
	if !ok {
		return abi.ABI{}, fmt.Errorf("%w: %s", ErrMethodMissing, MethodRequestTokens)
	}
	if len(requestTokens.Inputs) != 0 {
		return abi.ABI{}, fmt.Errorf("%s must take no arguments", MethodRequestTokens)
	}

	return parsed, nil
}

// NewContract binds an already parsed ABI
func NewContract(address common.Address, parsed abi.ABI, backend Backend, logger log.Logger) *Contract {
	if logger == nil {
		logger = log.Root()
	}
	return &Contract{
		address: address,
		abi:     parsed,
		backend: backend,
		log:     logger.With("contract", address),
	}
}

// LoadContract reads the ABI file and binds the contract
func LoadContract(address common.Address, abiPath string, backend Backend, logger log.Logger) (*Contract, error) {
	parsed, err := LoadABI(abiPath)
	if err != nil {
		return nil, err
	}
	return NewContract(address, parsed, backend, logger), nil
}

// Address returns the contract address
func (c *Contract) Address() common.Address {
	return c.address
}

// WithdrawTime returns the unix time from which account may claim; zero means now.
// The call is executed with account as sender.
func (c *Contract) WithdrawTime(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := c.abi.Pack(MethodWithdrawTime, account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", MethodWithdrawTime, err)
	}

	to := c.address
	output, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: account,
		To:   &to,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", MethodWithdrawTime, err)
	}

	values, err := c.abi.Unpack(MethodWithdrawTime, output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", MethodWithdrawTime, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s result: %d values", MethodWithdrawTime, len(values))
	}

	var unlock *big.Int
	switch v := values[0].(type) {
	case *big.Int:
		unlock = v
	case uint64:
		unlock = new(big.Int).SetUint64(v)
	case uint32:
		unlock = new(big.Int).SetUint64(uint64(v))
	case uint16:
		unlock = new(big.Int).SetUint64(uint64(v))
	case uint8:
		unlock = new(big.Int).SetUint64(uint64(v))
	default:
		return nil, fmt.Errorf("unexpected %s result type %T", MethodWithdrawTime, v)
	}

	c.log.Debug("Checked withdraw time", "account", account, "unlock", unlock)
	return unlock, nil
}

// RequestTokens builds, signs and submits a requestTokens transaction from the
// account controlled by key. The nonce is the account's confirmed transaction count.
func (c *Contract) RequestTokens(ctx context.Context, key *ecdsa.PrivateKey, opts TxOpts) (*types.Transaction, error) {
	if opts.GasPrice == nil {
		return nil, fmt.Errorf("gas price is not set")
	}

	data, err := c.abi.Pack(MethodRequestTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", MethodRequestTokens, err)
	}

	from := ethcrypto.PubkeyToAddress(key.PublicKey)
	nonce, err := c.backend.NonceAt(ctx, from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	to := c.address
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(opts.GasPrice),
		Gas:      opts.GasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	c.log.Debug("Submitted withdrawal", "from", from, "nonce", nonce, "hash", signedTx.Hash())
	return signedTx, nil
}

// ChainID returns the chain id, fetched once per contract handle
func (c *Contract) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}

	chainID, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	c.chainID = chainID
	return chainID, nil
}
