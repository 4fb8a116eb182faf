package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "1.0.0"

	configPath  string
	networkName string
	verbose     bool
	quiet       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "claimer",
	Short: "Batch withdrawal claims for a list of EVM addresses",
	Long: `Claimer walks a list of addresses through a withdrawal contract. For every
address it asks the contract when tokens unlock and, once they have, signs and
submits a requestTokens transaction with that address's own key.

Inputs:
  • addresses.txt   one address per line
  • accounts.json   address -> private key (plain JSON or a sealed vault)
  • ABI.json        contract ABI with withdrawTime and requestTokens

Settings come from the network preset, then --config, then CLAIMER_*
environment variables (a .env file in the working directory is loaded), then
flags.

Examples:
  claimer check                       # Show which addresses can claim
  claimer run                         # Claim for every eligible address
  claimer run --gas-price 250gwei     # Override the gas price
  claimer seal                        # Encrypt accounts.json
  claimer derive --count 20           # Derive accounts from a mnemonic
  claimer network                     # List network presets`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command; SIGINT and SIGTERM cancel the run context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&networkName, "network", "", "network preset (polygon, amoy)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(sealCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, logLevel(), term.IsTerminal(int(os.Stderr.Fd())))))
	return nil
}

func logLevel() slog.Level {
	switch {
	case verbose:
		return log.LevelDebug
	case quiet:
		return log.LevelError
	default:
		return log.LevelWarn
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Claimer v%s\n", version)
	},
}
