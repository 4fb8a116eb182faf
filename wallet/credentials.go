package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/chinmay1088/claimer/crypto"
	"github.com/ethereum/go-ethereum/common"
)

// ErrDuplicateAccount is returned when the accounts file lists one address twice
var ErrDuplicateAccount = errors.New("address listed twice in accounts file")

// PasswordFunc supplies the password of a sealed accounts file
type PasswordFunc func() (string, error)

// Credentials maps claim addresses to their hex private keys
type Credentials struct {
	keys map[common.Address]string
}

// NewCredentials builds credentials from an address -> private key mapping.
// Addresses are normalised so lookups ignore case and checksum; two spellings
// of the same address are an error.
func NewCredentials(accounts map[string]string) (*Credentials, error) {
	keys := make(map[common.Address]string, len(accounts))
	spellings := make(map[common.Address]string, len(accounts))
	for address, key := range accounts {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address in accounts file: %q", address)
		}
		normalised := common.HexToAddress(address)
		if other, ok := spellings[normalised]; ok {
			first, second := other, address
			if second < first {
				first, second = second, first
			}
			return nil, fmt.Errorf("%w: %q and %q", ErrDuplicateAccount, first, second)
		}
		spellings[normalised] = address
		keys[normalised] = key
	}
	return &Credentials{keys: keys}, nil
}

// Lookup returns the private key stored for address
func (c *Credentials) Lookup(address common.Address) (string, bool) {
	key, ok := c.keys[address]
	return key, ok
}

// Len returns the number of stored accounts
func (c *Credentials) Len() int {
	return len(c.keys)
}

// Addresses returns the stored addresses sorted by hex value
func (c *Credentials) Addresses() []common.Address {
	addresses := make([]common.Address, 0, len(c.keys))
	for address := range c.keys {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Cmp(addresses[j]) < 0
	})
	return addresses
}

// LoadCredentials reads an accounts file: either a JSON object of
// address -> private key or a vault sealing such an object. password is only
// called for vaults and may be nil otherwise.
func LoadCredentials(path string, password PasswordFunc) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	if vault, err := crypto.ParseVault(data); err == nil {
		if password == nil {
			return nil, fmt.Errorf("accounts file %s is sealed and no password was provided", path)
		}
		pass, err := password()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		plaintext, err := vault.Open(pass)
		if err != nil {
			return nil, fmt.Errorf("failed to open accounts vault: %w", err)
		}
		defer crypto.ClearBytes(plaintext)
		data = plaintext
	}

	return ParseCredentials(data)
}

// ParseCredentials decodes the JSON accounts object
func ParseCredentials(data []byte) (*Credentials, error) {
	var accounts map[string]string
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file: %w", err)
	}
	return NewCredentials(accounts)
}
