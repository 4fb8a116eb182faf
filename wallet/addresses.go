package wallet

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadAddresses reads one address per line, in file order. Blank lines are
// skipped; duplicates are kept.
func LoadAddresses(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open addresses file: %w", err)
	}
	defer file.Close()

	var addresses []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		addresses = append(addresses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read addresses file: %w", err)
	}

	return addresses, nil
}

// WriteAddresses writes addresses one per line
func WriteAddresses(path string, addresses []string) error {
	var b strings.Builder
	for _, address := range addresses {
		b.WriteString(address)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write addresses file: %w", err)
	}
	return nil
}
