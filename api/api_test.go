package api_test

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chinmay1088/claimer/api"
	"github.com/chinmay1088/claimer/api/apitest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

// ethService answers the handful of eth_ methods the connector uses
type ethService struct {
	unlock *big.Int
}

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Input hexutil.Bytes   `json:"input"`
	Data  hexutil.Bytes   `json:"data"`
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(137))
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	return 4242
}

func (s *ethService) Call(args callArgs, block string) (hexutil.Bytes, error) {
	parsed := apitest.MustParseABI()
	return parsed.Methods[api.MethodWithdrawTime].Outputs.Pack(s.unlock)
}

func newRPCServer(t *testing.T, unlock int64) string {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &ethService{unlock: big.NewInt(unlock)}))
	httpServer := httptest.NewServer(server)
	t.Cleanup(func() {
		httpServer.Close()
		server.Stop()
	})
	return httpServer.URL
}

func writeABI(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ABI.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestClientOverRPC(t *testing.T) {
	ctx := context.Background()
	url := newRPCServer(t, 1999999999)

	client, err := api.Dial(ctx, url)
	require.NoError(t, err)
	defer client.Close()
	require.Equal(t, url, client.URL())

	info, err := client.CheckConnection(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(137), info.ChainID.Int64())
	require.Equal(t, uint64(4242), info.BlockNumber)

	contract, err := api.LoadContract(apitest.ContractAddress, writeABI(t, apitest.ClaimABI), client.Backend(), log.Root())
	require.NoError(t, err)

	unlock, err := contract.WithdrawTime(ctx, common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	require.NoError(t, err)
	require.Equal(t, int64(1999999999), unlock.Int64())
}

func TestCheckConnectionFailure(t *testing.T) {
	ctx := context.Background()

	client, err := api.Dial(ctx, "http://127.0.0.1:1")
	require.NoError(t, err)
	defer client.Close()

	_, err = client.CheckConnection(ctx)
	require.Error(t, err)

	backend := apitest.NewBackend(137)
	backend.ChainErr = errors.New("connection refused")
	_, err = api.CheckConnection(ctx, backend)
	require.ErrorContains(t, err, "connection refused")
}

func TestDialRejectsBadURL(t *testing.T) {
	_, err := api.Dial(context.Background(), "ftp://example.org")
	require.Error(t, err)
}

func TestParseABI(t *testing.T) {
	t.Run("claim abi", func(t *testing.T) {
		_, err := api.ParseABI([]byte(apitest.ClaimABI))
		require.NoError(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := api.ParseABI([]byte(`[{"name":"withdrawTime",`))
		require.Error(t, err)
	})

	t.Run("missing request tokens", func(t *testing.T) {
		_, err := api.ParseABI([]byte(`[{"inputs":[{"name":"a","type":"address"}],"name":"withdrawTime","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`))
		require.ErrorIs(t, err, api.ErrMethodMissing)
	})

	t.Run("missing withdraw time", func(t *testing.T) {
		_, err := api.ParseABI([]byte(`[{"inputs":[],"name":"requestTokens","outputs":[],"stateMutability":"nonpayable","type":"function"}]`))
		require.ErrorIs(t, err, api.ErrMethodMissing)
	})

	t.Run("wrong withdraw time argument", func(t *testing.T) {
		_, err := api.ParseABI([]byte(`[
			{"inputs":[{"name":"a","type":"uint256"}],"name":"withdrawTime","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
			{"inputs":[],"name":"requestTokens","outputs":[],"stateMutability":"nonpayable","type":"function"}]`))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := api.LoadABI(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestWithdrawTime(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(137)
	contract := api.NewContract(apitest.ContractAddress, apitest.MustParseABI(), backend, nil)

	ready := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	later := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	broken := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	backend.SetWithdrawTime(later, 1999999999)
	backend.FailCall(broken, errors.New("execution reverted"))

	unlock, err := contract.WithdrawTime(ctx, ready)
	require.NoError(t, err)
	require.Zero(t, unlock.Sign())

	unlock, err = contract.WithdrawTime(ctx, later)
	require.NoError(t, err)
	require.Equal(t, int64(1999999999), unlock.Int64())

	_, err = contract.WithdrawTime(ctx, broken)
	require.ErrorContains(t, err, "execution reverted")

	// the account is both argument and sender
	calls := backend.Calls()
	require.Len(t, calls, 3)
	for _, call := range calls {
		require.Equal(t, call.Account, call.From)
	}
}

func TestWithdrawTimeNoContract(t *testing.T) {
	backend := apitest.NewBackend(137)
	contract := api.NewContract(common.HexToAddress("0x01"), apitest.MustParseABI(), backend, nil)

	_, err := contract.WithdrawTime(context.Background(), common.HexToAddress("0x02"))
	require.Error(t, err)
}

func TestRequestTokens(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(137)
	contract := api.NewContract(apitest.ContractAddress, apitest.MustParseABI(), backend, nil)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	backend.SetNonce(from, 7)

	opts := api.TxOpts{GasLimit: 200000, GasPrice: big.NewInt(210_000_000_000)}
	tx, err := contract.RequestTokens(ctx, key, opts)
	require.NoError(t, err)

	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, uint64(200000), tx.Gas())
	require.Equal(t, int64(210_000_000_000), tx.GasPrice().Int64())
	require.Equal(t, apitest.ContractAddress, *tx.To())
	require.Zero(t, tx.Value().Sign())
	require.Equal(t, uint8(types.LegacyTxType), tx.Type())

	parsed := apitest.MustParseABI()
	require.Equal(t, parsed.Methods[api.MethodRequestTokens].ID, tx.Data())

	senders, err := backend.Senders()
	require.NoError(t, err)
	require.Equal(t, []common.Address{from}, senders)

	chainID, err := contract.ChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(137), chainID.Int64())

	t.Run("send failure", func(t *testing.T) {
		backend.SendErr = errors.New("insufficient funds for gas * price + value")
		defer func() { backend.SendErr = nil }()
		_, err := contract.RequestTokens(ctx, key, opts)
		require.ErrorContains(t, err, "insufficient funds")
	})

	t.Run("gas price required", func(t *testing.T) {
		_, err := contract.RequestTokens(ctx, key, api.TxOpts{GasLimit: 1})
		require.Error(t, err)
	})
}

func TestWaitReceipt(t *testing.T) {
	ctx := context.Background()
	backend := apitest.NewBackend(137)
	backend.PendingPolls = 2
	contract := api.NewContract(apitest.ContractAddress, apitest.MustParseABI(), backend, nil)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx, err := contract.RequestTokens(ctx, key, api.TxOpts{GasLimit: 100000, GasPrice: big.NewInt(1)})
	require.NoError(t, err)

	receipt, err := api.WaitReceipt(ctx, backend, tx.Hash(), time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, tx.Hash(), receipt.TxHash)

	t.Run("times out when never mined", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := api.WaitReceipt(ctx, backend, common.HexToHash("0x01"), time.Millisecond)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
