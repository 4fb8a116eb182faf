package cmd

import (
	"fmt"

	"github.com/chinmay1088/claimer/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the active network and the available presets",
	Long: `Show the network a run would use and list the built-in presets.

The active network is taken from --network, then CLAIMER_NETWORK, then the
config file, and defaults to polygon.

Examples:
  claimer network
  claimer network --network amoy`,
	Args: cobra.NoArgs,
	RunE: runNetwork,
}

func runNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, networkName)
	if err != nil {
		return err
	}

	fmt.Printf("🌐 Current network: %s\n", color.GreenString(cfg.Network))
	fmt.Println()
	fmt.Println("Network details:")
	fmt.Printf("   - RPC:      %s\n", cfg.RPCURL)
	fmt.Printf("   - Explorer: %s\n", valueOr(cfg.ExplorerURL))
	fmt.Printf("   - Contract: %s\n", valueOr(cfg.ContractAddress))
	fmt.Println()

	fmt.Println("Presets:")
	for _, network := range config.Networks() {
		marker := " "
		if network.Name == cfg.Network {
			marker = "*"
		}
		fmt.Printf(" %s %-8s %s\n", marker, network.Name, network.RPCURL)
	}

	if cfg.ContractAddress == "" {
		fmt.Println()
		fmt.Printf("⚠️  No contract is deployed on %s, set %s or --contract\n", cfg.Network, config.EnvContract)
	}

	return nil
}

func valueOr(s string) string {
	if s == "" {
		return color.RedString("not set")
	}
	return s
}
