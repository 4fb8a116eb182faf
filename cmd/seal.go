package cmd

import (
	"fmt"
	"os"

	"github.com/chinmay1088/claimer/crypto"
	"github.com/chinmay1088/claimer/wallet"
	"github.com/spf13/cobra"
)

var sealCmd = &cobra.Command{
	Use:   "seal",
	Short: "Encrypt an accounts file",
	Long: `Encrypt a plain accounts JSON file into a password-protected vault.

The vault can be used anywhere an accounts file is expected. The password is
asked for when the file is loaded, or read from CLAIMER_VAULT_PASSWORD.

This command will:
  - Check that the accounts file parses
  - Ask for a password twice
  - Write the vault (scrypt + AES-256-GCM)

Examples:
  claimer seal
  claimer seal --in keys.json --out keys.vault`,
	Args: cobra.NoArgs,
	RunE: runSeal,
}

func init() {
	sealCmd.Flags().String("in", "accounts.json", "plain accounts file")
	sealCmd.Flags().String("out", "accounts.vault", "vault to write")
	sealCmd.Flags().Bool("force", false, "overwrite the vault if it exists")
	sealCmd.Flags().Bool("remove-plain", false, "delete the plain accounts file afterwards")
}

func runSeal(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	force, _ := cmd.Flags().GetBool("force")
	removePlain, _ := cmd.Flags().GetBool("remove-plain")

	plaintext, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read accounts file: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	if crypto.IsVault(plaintext) {
		return fmt.Errorf("%s is already sealed", in)
	}
	creds, err := wallet.ParseCredentials(plaintext)
	if err != nil {
		return err
	}
	if err := refuseOverwrite(out, force); err != nil {
		return err
	}

	fmt.Printf("🔐 Sealing %d accounts from %s\n", creds.Len(), in)
	fmt.Println()

	password, err := newPassword()
	if err != nil {
		return err
	}

	vault, err := crypto.Seal(plaintext, password)
	if err != nil {
		return err
	}
	data, err := vault.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault: %w", err)
	}

	fmt.Printf("✅ Vault written to %s\n", out)

	if removePlain {
		if err := os.Remove(in); err != nil {
			return fmt.Errorf("failed to remove %s: %w", in, err)
		}
		fmt.Printf("🗑  Removed %s\n", in)
	} else {
		fmt.Println()
		fmt.Println("⚠️  IMPORTANT:")
		fmt.Printf("   - %s still holds the keys in plain text\n", in)
		fmt.Println("   - Delete it once you have checked the vault opens")
	}
	fmt.Println()
	fmt.Printf("💡 Run 'claimer check --accounts %s' to use the vault\n", out)

	return nil
}
