// Package claim walks an address list through the withdrawal contract: check
// eligibility, and for eligible addresses sign and submit requestTokens.
//
// Every address yields exactly one Outcome. A failure for one address never
// stops the batch.
package claim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/chinmay1088/claimer/api"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrMissingCredential = errors.New("address not found in accounts file")
	ErrKeyMismatch       = errors.New("private key does not belong to address")
	ErrInvalidAddress    = errors.New("invalid address")
)

// Observer is told about progress as it happens. Calls are serialised.
type Observer interface {
	// Submitted is called after a transaction is sent and before its receipt
	// is awaited.
	Submitted(outcome Outcome)
	// Done is called once per address with its final outcome.
	Done(outcome Outcome)
}

// Options are the fixed parameters of a run
type Options struct {
	GasLimit       uint64
	GasPrice       *big.Int
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
	Workers        int

	// TxURL links a transaction hash to an explorer; may be nil
	TxURL func(hash string) string
}

// Driver processes address lists against one contract
type Driver struct {
	contract *api.Contract
	backend  api.Backend
	creds    *wallet.Credentials
	opts     Options
	log      log.Logger

	observerMu sync.Mutex
	observer   Observer
}

// NewDriver wires a driver. backend is used to wait for receipts and is
// normally the one the contract was bound to.
func NewDriver(contract *api.Contract, backend api.Backend, creds *wallet.Credentials, opts Options, observer Observer, logger log.Logger) *Driver {
	if opts.PollInterval <= 0 {
		opts.PollInterval = api.ReceiptPollInterval
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = log.Root()
	}

	return &Driver{
		contract: contract,
		backend:  backend,
		creds:    creds,
		opts:     opts,
		log:      logger,
		observer: observer,
	}
}

// Run checks every address and claims for the eligible ones
func (d *Driver) Run(ctx context.Context, addresses []string) *Report {
	return d.run(ctx, addresses, true)
}

// Check only reports eligibility; nothing is signed or sent
func (d *Driver) Check(ctx context.Context, addresses []string) *Report {
	return d.run(ctx, addresses, false)
}

func (d *Driver) run(ctx context.Context, addresses []string, submit bool) *Report {
	outcomes := make([]Outcome, len(addresses))

	if d.opts.Workers == 1 {
		for i, address := range addresses {
			outcomes[i] = d.process(ctx, i+1, address, submit)
			d.notifyDone(outcomes[i])
		}
		return &Report{Outcomes: outcomes}
	}

	// the same address listed twice must not race on its nonce
	locks := newAccountLocks()

	var g errgroup.Group
	g.SetLimit(d.opts.Workers)
	for i, address := range addresses {
		i, address := i, address
		g.Go(func() error {
			unlock := locks.lock(address)
			defer unlock()

			outcomes[i] = d.process(ctx, i+1, address, submit)
			d.notifyDone(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	return &Report{Outcomes: outcomes}
}

func (d *Driver) process(ctx context.Context, index int, address string, submit bool) Outcome {
	outcome := Outcome{Index: index, Address: address}
	logger := d.log.With("index", index, "address", address)

	if err := ctx.Err(); err != nil {
		return d.fail(logger, outcome, err)
	}

	if !common.IsHexAddress(address) {
		return d.fail(logger, outcome, fmt.Errorf("%w: %q", ErrInvalidAddress, address))
	}
	account := common.HexToAddress(address)

	unlock, err := d.contract.WithdrawTime(ctx, account)
	if err != nil {
		return d.fail(logger, outcome, err)
	}

	if unlock.Sign() != 0 {
		if !unlock.IsInt64() {
			return d.fail(logger, outcome, fmt.Errorf("withdraw time out of range: %s", unlock))
		}
		outcome.Status = StatusNotYetEligible
		outcome.UnlockTime = time.Unix(unlock.Int64(), 0)
		logger.Debug("Not yet eligible", "unlock", outcome.UnlockTime)
		return outcome
	}

	keyHex, ok := d.creds.Lookup(account)
	if !ok {
		outcome.Status = StatusMissingCredential
		outcome.Err = ErrMissingCredential
		logger.Warn("Eligible address has no private key")
		return outcome
	}

	if !submit {
		outcome.Status = StatusEligible
		return outcome
	}

	key, err := wallet.ParsePrivateKey(keyHex)
	if err != nil {
		return d.fail(logger, outcome, err)
	}
	if signer := wallet.AddressOf(key); signer != account {
		return d.fail(logger, outcome, fmt.Errorf("%w: key controls %s", ErrKeyMismatch, signer.Hex()))
	}

	tx, err := d.contract.RequestTokens(ctx, key, api.TxOpts{
		GasLimit: d.opts.GasLimit,
		GasPrice: d.opts.GasPrice,
	})
	if err != nil {
		return d.fail(logger, outcome, err)
	}

	outcome.TxHash = tx.Hash()
	if d.opts.TxURL != nil {
		outcome.ExplorerURL = d.opts.TxURL(tx.Hash().Hex())
	}
	logger.Info("Withdrawal submitted", "hash", tx.Hash(), "nonce", tx.Nonce())
	d.notifySubmitted(outcome)

	waitCtx := ctx
	if d.opts.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, d.opts.ReceiptTimeout)
		defer cancel()
	}

	receipt, err := api.WaitReceipt(waitCtx, d.backend, tx.Hash(), d.opts.PollInterval)
	if err != nil {
		return d.fail(logger, outcome, fmt.Errorf("transaction %s not confirmed: %w", tx.Hash().Hex(), err))
	}

	outcome.Status = StatusSubmitted
	outcome.ReceiptStatus = receipt.Status
	outcome.BlockNumber = receipt.BlockNumber
	logger.Info("Withdrawal confirmed", "hash", tx.Hash(), "status", receipt.Status, "block", receipt.BlockNumber)
	return outcome
}

func (d *Driver) fail(logger log.Logger, outcome Outcome, err error) Outcome {
	outcome.Status = StatusFailed
	outcome.Err = err
	logger.Debug("Address failed", "err", err)
	return outcome
}

func (d *Driver) notifySubmitted(outcome Outcome) {
	if d.observer == nil {
		return
	}
	d.observerMu.Lock()
	defer d.observerMu.Unlock()
	d.observer.Submitted(outcome)
}

func (d *Driver) notifyDone(outcome Outcome) {
	if d.observer == nil {
		return
	}
	d.observerMu.Lock()
	defer d.observerMu.Unlock()
	d.observer.Done(outcome)
}

// accountLocks serialises work on the same listed address
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *accountLocks) lock(address string) func() {
	key := strings.ToLower(strings.TrimSpace(address))

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = new(sync.Mutex)
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
