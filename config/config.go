// Package config holds the settings of a claim run.
//
// Values are layered: network preset, then the YAML file, then CLAIMER_*
// environment variables (a .env file is loaded by the command layer), and
// finally command-line flags.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// defaults shared by every network
const (
	DefaultABIPath        = "ABI.json"
	DefaultAddressesPath  = "addresses.txt"
	DefaultAccountsPath   = "accounts.json"
	DefaultGasLimit       = 200000
	DefaultGasPrice       = "210gwei"
	DefaultReceiptTimeout = 300 * time.Second
	DefaultWorkers        = 1
)

// environment variable names
const (
	EnvNetwork        = "CLAIMER_NETWORK"
	EnvRPCURL         = "CLAIMER_RPC_URL"
	EnvExplorerURL    = "CLAIMER_EXPLORER_URL"
	EnvContract       = "CLAIMER_CONTRACT"
	EnvABIPath        = "CLAIMER_ABI"
	EnvAddressesPath  = "CLAIMER_ADDRESSES"
	EnvAccountsPath   = "CLAIMER_ACCOUNTS"
	EnvGasLimit       = "CLAIMER_GAS_LIMIT"
	EnvGasPrice       = "CLAIMER_GAS_PRICE"
	EnvReceiptTimeout = "CLAIMER_RECEIPT_TIMEOUT"
	EnvWorkers        = "CLAIMER_WORKERS"
	EnvVaultPassword  = "CLAIMER_VAULT_PASSWORD"
)

// Config is everything a run needs besides the input files themselves
type Config struct {
	Network         string        `yaml:"network"`
	RPCURL          string        `yaml:"rpc_url"`
	ExplorerURL     string        `yaml:"explorer_url"`
	ContractAddress string        `yaml:"contract_address"`
	ABIPath         string        `yaml:"abi_path"`
	AddressesPath   string        `yaml:"addresses_path"`
	AccountsPath    string        `yaml:"accounts_path"`
	GasLimit        uint64        `yaml:"gas_limit"`
	GasPrice        string        `yaml:"gas_price"`
	ReceiptTimeout  time.Duration `yaml:"receipt_timeout"`
	Workers         int           `yaml:"workers"`
}

// Default returns the configuration of a network preset
func Default(network string) (*Config, error) {
	preset, err := LookupNetwork(network)
	if err != nil {
		return nil, err
	}

	return &Config{
		Network:         preset.Name,
		RPCURL:          preset.RPCURL,
		ExplorerURL:     preset.ExplorerURL,
		ContractAddress: preset.Contract,
		ABIPath:         DefaultABIPath,
		AddressesPath:   DefaultAddressesPath,
		AccountsPath:    DefaultAccountsPath,
		GasLimit:        DefaultGasLimit,
		GasPrice:        DefaultGasPrice,
		ReceiptTimeout:  DefaultReceiptTimeout,
		Workers:         DefaultWorkers,
	}, nil
}

// Load builds the configuration for a run. network wins over CLAIMER_NETWORK,
// which wins over the network named in the file. path may be empty.
func Load(path, network string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if network == "" {
		network = os.Getenv(EnvNetwork)
	}
	if network == "" && len(data) > 0 {
		var file struct {
			Network string `yaml:"network"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		network = file.Network
	}
	if network == "" {
		network = NetworkPolygon
	}

	cfg, err := Default(network)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		// the preset was already chosen above
		cfg.Network = network
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.RPCURL = getEnv(EnvRPCURL, c.RPCURL)
	c.ExplorerURL = getEnv(EnvExplorerURL, c.ExplorerURL)
	c.ContractAddress = getEnv(EnvContract, c.ContractAddress)
	c.ABIPath = getEnv(EnvABIPath, c.ABIPath)
	c.AddressesPath = getEnv(EnvAddressesPath, c.AddressesPath)
	c.AccountsPath = getEnv(EnvAccountsPath, c.AccountsPath)
	c.GasPrice = getEnv(EnvGasPrice, c.GasPrice)

	if v, ok := os.LookupEnv(EnvGasLimit); ok {
		limit, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvGasLimit, err)
		}
		c.GasLimit = limit
	}

	if v, ok := os.LookupEnv(EnvReceiptTimeout); ok {
		timeout, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvReceiptTimeout, err)
		}
		c.ReceiptTimeout = timeout
	}

	if v, ok := os.LookupEnv(EnvWorkers); ok {
		workers, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Workers = workers
	}

	return nil
}

// Validate reports the first setting that would make a run impossible
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(c.ContractAddress) {
		return fmt.Errorf("invalid contract address: %q", c.ContractAddress)
	}
	if c.ABIPath == "" {
		return fmt.Errorf("abi path is required")
	}
	if c.AddressesPath == "" {
		return fmt.Errorf("addresses path is required")
	}
	if c.AccountsPath == "" {
		return fmt.Errorf("accounts path is required")
	}
	if c.GasLimit == 0 {
		return fmt.Errorf("gas limit must be greater than zero")
	}
	if _, err := ParseGasPrice(c.GasPrice); err != nil {
		return err
	}
	if c.ReceiptTimeout <= 0 {
		return fmt.Errorf("receipt timeout must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}

// Contract returns the parsed contract address
func (c *Config) Contract() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// GasPriceWei returns the configured gas price in wei
func (c *Config) GasPriceWei() (*big.Int, error) {
	return ParseGasPrice(c.GasPrice)
}

// TxURL links a transaction hash to the block explorer, empty when no explorer is set
func (c *Config) TxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return strings.TrimRight(c.ExplorerURL, "/") + "/tx/" + hash
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
