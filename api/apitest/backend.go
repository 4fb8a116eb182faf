// Package apitest provides an in-memory claim contract backend for tests.
package apitest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ClaimABI describes the two methods the claim flow uses
const ClaimABI = `[
  {"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"withdrawTime","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"requestTokens","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

// ContractAddress is where the fake claim contract lives
var ContractAddress = common.HexToAddress("0x3a1F862D8323138F14494f9Fb50c537906b12B81")

// MustParseABI parses ClaimABI
func MustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ClaimABI))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Call records one eth_call
type Call struct {
	From    common.Address
	Account common.Address
}

// Backend is a fake chain hosting a single claim contract
type Backend struct {
	mu sync.Mutex

	abi     abi.ABI
	chainID *big.Int
	block   uint64

	withdrawTimes map[common.Address]*big.Int
	callErrors    map[common.Address]error
	nonces        map[common.Address]uint64

	// PendingPolls is how many receipt lookups report "not found" before a
	// transaction is considered mined.
	PendingPolls  int
	ReceiptStatus uint64
	SendErr       error
	ChainErr      error

	calls    []Call
	sent     []*types.Transaction
	polls    map[common.Hash]int
	receipts map[common.Hash]*types.Receipt
}

// NewBackend returns a healthy chain where every account may claim immediately
func NewBackend(chainID int64) *Backend {
	return &Backend{
		abi:           MustParseABI(),
		chainID:       big.NewInt(chainID),
		block:         1,
		withdrawTimes: make(map[common.Address]*big.Int),
		callErrors:    make(map[common.Address]error),
		nonces:        make(map[common.Address]uint64),
		ReceiptStatus: types.ReceiptStatusSuccessful,
		polls:         make(map[common.Hash]int),
		receipts:      make(map[common.Hash]*types.Receipt),
	}
}

// SetWithdrawTime sets what withdrawTime(account) returns
func (b *Backend) SetWithdrawTime(account common.Address, unix int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.withdrawTimes[account] = big.NewInt(unix)
}

// FailCall makes withdrawTime(account) revert with err
func (b *Backend) FailCall(account common.Address, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callErrors[account] = err
}

// SetNonce sets the confirmed transaction count of account
func (b *Backend) SetNonce(account common.Address, nonce uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonces[account] = nonce
}

// Calls returns every withdrawTime call seen so far
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Sent returns every submitted transaction
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Senders recovers the signer of every submitted transaction
func (b *Backend) Senders() ([]common.Address, error) {
	signer := types.LatestSignerForChainID(b.chainID)
	var senders []common.Address
	for _, tx := range b.Sent() {
		from, err := types.Sender(signer, tx)
		if err != nil {
			return nil, err
		}
		senders = append(senders, from)
	}
	return senders, nil
}

func (b *Backend) ChainID(ctx context.Context) (*big.Int, error) {
	if b.ChainErr != nil {
		return nil, b.ChainErr
	}
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(ctx context.Context) (uint64, error) {
	if b.ChainErr != nil {
		return 0, b.ChainErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block, nil
}

func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || *msg.To != ContractAddress {
		return nil, nil
	}
	if len(msg.Data) < 4 {
		return nil, errors.New("execution reverted")
	}

	method, err := b.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "withdrawTime" {
		return nil, fmt.Errorf("execution reverted: %s is not a view", method.Name)
	}

	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	account := args[0].(common.Address)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{From: msg.From, Account: account})
	if err := b.callErrors[account]; err != nil {
		return nil, err
	}

	unlock := b.withdrawTimes[account]
	if unlock == nil {
		unlock = new(big.Int)
	}
	return method.Outputs.Pack(unlock)
}

func (b *Backend) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if b.SendErr != nil {
		return b.SendErr
	}

	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++
	b.block++

	b.sent = append(b.sent, tx)
	b.receipts[tx.Hash()] = &types.Receipt{
		Type:        tx.Type(),
		Status:      b.ReceiptStatus,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas() / 2,
		BlockNumber: new(big.Int).SetUint64(b.block),
	}
	return nil
}

func (b *Backend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if b.polls[txHash] < b.PendingPolls {
		b.polls[txHash]++
		return nil, ethereum.NotFound
	}
	return receipt, nil
}
