package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/chinmay1088/claimer/config"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// addRunFlags registers the per-run overrides shared by run and check
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("rpc", "", "JSON-RPC endpoint")
	f.String("explorer", "", "block explorer base URL")
	f.String("contract", "", "withdrawal contract address")
	f.String("abi", "", "contract ABI file")
	f.String("addresses", "", "address list file")
	f.String("accounts", "", "accounts file (JSON or sealed vault)")
	f.Uint64("gas-limit", 0, "gas limit per transaction")
	f.String("gas-price", "", "gas price with unit, e.g. 210gwei")
	f.Duration("receipt-timeout", 0, "how long to wait for a receipt")
	f.Int("workers", 0, "addresses processed in parallel")
}

// loadConfig is layerConfig followed by validation
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := layerConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// layerConfig applies the flags the command defines on top of the config
// file and environment
func layerConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath, networkName)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	strFlags := map[string]*string{
		"rpc":       &cfg.RPCURL,
		"explorer":  &cfg.ExplorerURL,
		"contract":  &cfg.ContractAddress,
		"abi":       &cfg.ABIPath,
		"addresses": &cfg.AddressesPath,
		"accounts":  &cfg.AccountsPath,
		"gas-price": &cfg.GasPrice,
	}
	for name, dst := range strFlags {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	if f.Changed("gas-limit") {
		cfg.GasLimit, _ = f.GetUint64("gas-limit")
	}
	if f.Changed("receipt-timeout") {
		cfg.ReceiptTimeout, _ = f.GetDuration("receipt-timeout")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	return cfg, nil
}

// vaultPassword reads the vault password from CLAIMER_VAULT_PASSWORD or
// prompts for it
func vaultPassword() wallet.PasswordFunc {
	return func() (string, error) {
		if password, ok := os.LookupEnv(config.EnvVaultPassword); ok {
			return password, nil
		}
		return readPassword("Enter accounts vault password: ")
	}
}

// newPassword asks for a password twice
func newPassword() (string, error) {
	if password, ok := os.LookupEnv(config.EnvVaultPassword); ok {
		if len(password) < 8 {
			return "", fmt.Errorf("%s must be at least 8 characters long", config.EnvVaultPassword)
		}
		return password, nil
	}

	password, err := readPassword("Enter a password for the vault: ")
	if err != nil {
		return "", err
	}
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters long")
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal, set %s", config.EnvVaultPassword)
	}

	fmt.Print(prompt)
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}

// refuseOverwrite fails when path exists and force is not set
func refuseOverwrite(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	return nil
}
