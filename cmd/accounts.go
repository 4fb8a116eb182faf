package cmd

import (
	"fmt"

	"github.com/chinmay1088/claimer/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show which listed addresses have a key",
	Long: `Load the address list and the accounts file (unsealing it if needed) and
show, for every listed address, whether a private key is available for it.

Examples:
  claimer accounts
  claimer accounts --accounts accounts.vault`,
	Args: cobra.NoArgs,
	RunE: runAccounts,
}

func init() {
	accountsCmd.Flags().String("addresses", "", "address list file")
	accountsCmd.Flags().String("accounts", "", "accounts file (JSON or sealed vault)")
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := layerConfig(cmd)
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

	fmt.Printf("🔑 %d keys in %s, %d addresses in %s\n", creds.Len(), cfg.AccountsPath, len(addresses), cfg.AddressesPath)
	fmt.Println()

	listed := make(map[common.Address]bool, len(addresses))
	missing := 0
	for i, address := range addresses {
		if !common.IsHexAddress(address) {
			fmt.Printf("%d - %s %s\n", i+1, address, color.RedString("invalid address"))
			missing++
			continue
		}
		account := common.HexToAddress(address)
		listed[account] = true

		if _, ok := creds.Lookup(account); ok {
			fmt.Printf("%d - %s %s\n", i+1, account.Hex(), color.GreenString("key found"))
		} else {
			fmt.Printf("%d - %s %s\n", i+1, account.Hex(), color.YellowString("no key"))
			missing++
		}
	}

	var unused []common.Address
	for _, account := range creds.Addresses() {
		if !listed[account] {
			unused = append(unused, account)
		}
	}
	if len(unused) > 0 {
		fmt.Println()
		fmt.Println("💡 Keys not in the address list:")
		for _, account := range unused {
			fmt.Printf("   %s\n", account.Hex())
		}
	}

	if missing > 0 {
		fmt.Println()
		fmt.Printf("⚠️  %d listed addresses cannot be claimed\n", missing)
	}
	return nil
}
