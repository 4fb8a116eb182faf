package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chinmay1088/claimer/crypto"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// EnvMnemonic supplies the recovery phrase to derive without prompting
const EnvMnemonic = "CLAIMER_MNEMONIC"

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive claim accounts from a recovery phrase",
	Long: `Derive Ethereum accounts m/44'/60'/0'/0/i from a BIP-39 recovery phrase and
write them as an address list and an accounts file.

The phrase is read from CLAIMER_MNEMONIC or asked for without echo.

Examples:
  claimer derive --count 20
  claimer derive --start 100 --count 10 --seal`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().Int("start", 0, "first account index")
	deriveCmd.Flags().Int("count", 10, "number of accounts")
	deriveCmd.Flags().String("addresses-out", "addresses.txt", "address list to write")
	deriveCmd.Flags().String("accounts-out", "accounts.json", "accounts file to write")
	deriveCmd.Flags().Bool("seal", false, "write the accounts file as a vault")
	deriveCmd.Flags().Bool("force", false, "overwrite existing files")
}

func runDerive(cmd *cobra.Command, args []string) error {
	start, _ := cmd.Flags().GetInt("start")
	count, _ := cmd.Flags().GetInt("count")
	addressesOut, _ := cmd.Flags().GetString("addresses-out")
	accountsOut, _ := cmd.Flags().GetString("accounts-out")
	seal, _ := cmd.Flags().GetBool("seal")
	force, _ := cmd.Flags().GetBool("force")

	if err := refuseOverwrite(addressesOut, force); err != nil {
		return err
	}
	if err := refuseOverwrite(accountsOut, force); err != nil {
		return err
	}

	mnemonic, err := readMnemonic()
	if err != nil {
		return err
	}

	derived, err := wallet.DeriveAccounts(mnemonic, start, count)
	if err != nil {
		return err
	}

	addresses := make([]string, 0, len(derived))
	keys := make(map[string]string, len(derived))
	for _, account := range derived {
		addresses = append(addresses, account.Address.Hex())
		keys[account.Address.Hex()] = wallet.KeyHex(account.Key)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	defer crypto.ClearBytes(data)

	if seal {
		password, err := newPassword()
		if err != nil {
			return err
		}
		vault, err := crypto.Seal(data, password)
		if err != nil {
			return err
		}
		if data, err = vault.Marshal(); err != nil {
			return err
		}
	}

	if err := wallet.WriteAddresses(addressesOut, addresses); err != nil {
		return err
	}
	if err := os.WriteFile(accountsOut, data, 0600); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}

	fmt.Printf("✅ Derived %d accounts (%s .. %s)\n", len(derived), derived[0].Path, derived[len(derived)-1].Path)
	fmt.Println()
	for _, account := range derived {
		fmt.Printf("   %-20s %s\n", account.Path, account.Address.Hex())
	}
	fmt.Println()
	fmt.Printf("📋 Addresses: %s\n", addressesOut)
	fmt.Printf("🔑 Accounts:  %s\n", accountsOut)
	if !seal {
		fmt.Println()
		fmt.Println("⚠️  The accounts file holds private keys in plain text. Run 'claimer seal' to encrypt it")
	}

	return nil
}

func readMnemonic() (string, error) {
	if mnemonic, ok := os.LookupEnv(EnvMnemonic); ok {
		return normalizeMnemonic(mnemonic), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read recovery phrase: %w", err)
		}
		return normalizeMnemonic(line), nil
	}

	fmt.Print("Enter recovery phrase: ")
	phrase, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read recovery phrase: %w", err)
	}
	return normalizeMnemonic(string(phrase)), nil
}

func normalizeMnemonic(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
