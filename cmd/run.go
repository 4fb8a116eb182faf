package cmd

import (
	"fmt"
	"os"

	"github.com/chinmay1088/claimer/api"
	"github.com/chinmay1088/claimer/claim"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Claim withdrawals for every eligible address",
	Long: `Check every listed address against the withdrawal contract and submit a
requestTokens transaction for each one that can claim now.

Addresses are processed in file order. An address whose key is missing, whose
tokens are still locked or whose claim fails is reported and skipped; the rest
of the list is still processed.

Examples:
  claimer run
  claimer run --network amoy --contract 0x...
  claimer run --gas-price 250gwei --receipt-timeout 10m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return claimBatch(cmd, true)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show which addresses can claim, without sending anything",
	Long: `Query withdrawTime for every listed address and report whether it can claim
now, when it unlocks, and whether its key is in the accounts file. Nothing is
signed or sent.

Example:
  claimer check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return claimBatch(cmd, false)
	},
}

func init() {
	addRunFlags(runCmd)
	addRunFlags(checkCmd)
}

func claimBatch(cmd *cobra.Command, submit bool) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gasPrice, err := cfg.GasPriceWei()
	if err != nil {
		return err
	}

	addresses, err := wallet.LoadAddresses(cfg.AddressesPath)
	if err != nil {
		return err
	}
	creds, err := wallet.LoadCredentials(cfg.AccountsPath, vaultPassword())
	if err != nil {
		return err
	}
	parsedABI, err := api.LoadABI(cfg.ABIPath)
	if err != nil {
		return err
	}

	client, err := api.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return err
	}
	defer client.Close()

	if info, err := client.CheckConnection(ctx); err != nil {
		fmt.Printf("❌ Could not connect to RPC node %s: %v\n", cfg.RPCURL, err)
	} else if !quiet {
		fmt.Printf("✅ Connected to RPC node (chain %s, block %d)\n", info.ChainID, info.BlockNumber)
	}

	contract := api.NewContract(cfg.Contract(), parsedABI, client.Backend(), log.Root())

	// the spinner would garble concurrent output
	spinner := cfg.Workers == 1 && term.IsTerminal(int(os.Stdout.Fd()))
	out := newReporter(os.Stdout, quiet, spinner)
	out.Header(cfg, len(addresses), submit)

	driver := claim.NewDriver(contract, client.Backend(), creds, claim.Options{
		GasLimit:       cfg.GasLimit,
		GasPrice:       gasPrice,
		ReceiptTimeout: cfg.ReceiptTimeout,
		Workers:        cfg.Workers,
		TxURL:          cfg.TxURL,
	}, out, log.Root())

	var report *claim.Report
	if submit {
		report = driver.Run(ctx, addresses)
	} else {
		report = driver.Check(ctx, addresses)
	}
	out.Summary(report, submit)

	if err := ctx.Err(); err != nil {
		fmt.Println(color.YellowString("⚠️  Interrupted, remaining addresses were not processed"))
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}
