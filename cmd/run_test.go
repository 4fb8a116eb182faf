package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/chinmay1088/claimer/api/apitest"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// chainService serves the eth_ namespace from an in-memory backend
type chainService struct {
	backend  *apitest.Backend
	requests atomic.Int64
	ethCalls atomic.Int64
}

type callArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
}

func (s *chainService) ChainId(ctx context.Context) (*hexutil.Big, error) {
	s.requests.Add(1)
	id, err := s.backend.ChainID(ctx)
	return (*hexutil.Big)(id), err
}

func (s *chainService) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	s.requests.Add(1)
	n, err := s.backend.BlockNumber(ctx)
	return hexutil.Uint64(n), err
}

func (s *chainService) Call(ctx context.Context, args callArgs, block string) (hexutil.Bytes, error) {
	s.requests.Add(1)
	s.ethCalls.Add(1)
	return s.backend.CallContract(ctx, ethereum.CallMsg{From: args.From, To: args.To, Data: args.Input}, nil)
}

func (s *chainService) GetTransactionCount(ctx context.Context, account common.Address, block string) (hexutil.Uint64, error) {
	s.requests.Add(1)
	n, err := s.backend.NonceAt(ctx, account, nil)
	return hexutil.Uint64(n), err
}

func (s *chainService) SendRawTransaction(ctx context.Context, raw hexutil.Bytes) (common.Hash, error) {
	s.requests.Add(1)
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), s.backend.SendTransaction(ctx, tx)
}

func (s *chainService) GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	s.requests.Add(1)
	receipt, err := s.backend.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := *receipt
	out.Logs = []*types.Log{}
	return &out, nil
}

func newChain(t *testing.T) (*chainService, string) {
	t.Helper()
	service := &chainService{backend: apitest.NewBackend(137)}

	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", service))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return service, httpServer.URL
}

type runFiles struct {
	abi, addresses, accounts string
}

func writeRunFiles(t *testing.T, abiBody string, addresses []string, keys map[string]string) runFiles {
	t.Helper()
	dir := t.TempDir()
	files := runFiles{
		abi:       filepath.Join(dir, "ABI.json"),
		addresses: filepath.Join(dir, "addresses.txt"),
		accounts:  filepath.Join(dir, "accounts.json"),
	}

	accounts, err := json.Marshal(keys)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(files.abi, []byte(abiBody), 0600))
	require.NoError(t, os.WriteFile(files.addresses, []byte(strings.Join(addresses, "\n")+"\n"), 0600))
	require.NoError(t, os.WriteFile(files.accounts, accounts, 0600))
	return files
}

func executeRun(t *testing.T, url string, files runFiles) error {
	t.Helper()
	rootCmd.SetArgs([]string{"run", "--quiet",
		"--rpc", url,
		"--contract", apitest.ContractAddress.Hex(),
		"--abi", files.abi,
		"--addresses", files.addresses,
		"--accounts", files.accounts,
		"--gas-limit", "200000",
		"--gas-price", "210gwei",
		"--receipt-timeout", "5s",
		"--workers", "1",
	})
	return rootCmd.ExecuteContext(context.Background())
}

func TestRunCommandFatalErrors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := wallet.AddressOf(key).Hex()
	keys := map[string]string{address: wallet.KeyHex(key)}

	t.Run("malformed abi", func(t *testing.T) {
		chain, url := newChain(t)
		files := writeRunFiles(t, `[{"name":"withdrawTime",`, []string{address}, keys)

		err := executeRun(t, url, files)
		require.ErrorContains(t, err, "failed to parse abi")
		require.Zero(t, chain.ethCalls.Load())
		require.Zero(t, chain.requests.Load())
		require.Empty(t, chain.backend.Sent())
	})

	t.Run("missing addresses file", func(t *testing.T) {
		chain, url := newChain(t)
		files := writeRunFiles(t, apitest.ClaimABI, []string{address}, keys)
		files.addresses = filepath.Join(t.TempDir(), "missing.txt")

		err := executeRun(t, url, files)
		require.ErrorContains(t, err, "failed to open addresses file")
		require.Zero(t, chain.ethCalls.Load())
		require.Zero(t, chain.requests.Load())
	})

	t.Run("malformed accounts file", func(t *testing.T) {
		chain, url := newChain(t)
		files := writeRunFiles(t, apitest.ClaimABI, []string{address}, keys)
		require.NoError(t, os.WriteFile(files.accounts, []byte(`{"0xaa":`), 0600))

		err := executeRun(t, url, files)
		require.ErrorContains(t, err, "failed to parse accounts file")
		require.Zero(t, chain.requests.Load())
	})
}

func TestRunCommandRoundTrip(t *testing.T) {
	chain, url := newChain(t)

	readyKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	ready := wallet.AddressOf(readyKey)
	later := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	chain.backend.SetWithdrawTime(later, 1999999999)

	files := writeRunFiles(t, apitest.ClaimABI,
		[]string{ready.Hex(), later.Hex()},
		map[string]string{ready.Hex(): wallet.KeyHex(readyKey)})

	require.NoError(t, executeRun(t, url, files))

	require.Equal(t, int64(2), chain.ethCalls.Load())
	sent := chain.backend.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, apitest.ContractAddress, *sent[0].To())
	require.Equal(t, int64(210_000_000_000), sent[0].GasPrice().Int64())
	require.Equal(t, uint64(200000), sent[0].Gas())

	senders, err := chain.backend.Senders()
	require.NoError(t, err)
	require.Equal(t, []common.Address{ready}, senders)
}
