package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	// VaultKind marks a sealed accounts file
	VaultKind    = "claimer-vault"
	VaultVersion = 1
)

var (
	ErrNotVault      = errors.New("not a vault file")
	ErrWrongPassword = errors.New("wrong password or corrupted vault")
)

// Vault is the on-disk form of a password-sealed accounts file
type Vault struct {
	Kind    string `json:"kind"`
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

// Seal encrypts plaintext under a key derived from password
func Seal(plaintext []byte, password string) (*Vault, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &Vault{
		Kind:    VaultKind,
		Version: VaultVersion,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aesGCM.Seal(nil, nonce, plaintext, []byte(VaultKind)),
	}, nil
}

// Open decrypts the vault. The caller owns the returned slice and should
// clear it once parsed.
func (v *Vault) Open(password string) ([]byte, error) {
	if v.Version != VaultVersion {
		return nil, fmt.Errorf("unsupported vault version %d", v.Version)
	}

	key, err := deriveKey(password, v.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(v.Nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("invalid vault nonce length %d", len(v.Nonce))
	}

	plaintext, err := aesGCM.Open(nil, v.Nonce, v.Data, []byte(VaultKind))
	if err != nil {
		return nil, ErrWrongPassword
	}
	return plaintext, nil
}

// Marshal encodes the vault for writing to disk
func (v *Vault) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return data, nil
}

// ParseVault decodes a vault file. Any JSON document that does not carry the
// vault marker yields ErrNotVault.
func ParseVault(data []byte) (*Vault, error) {
	var v Vault
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, ErrNotVault
	}
	if v.Kind != VaultKind {
		return nil, ErrNotVault
	}
	return &v, nil
}

// IsVault reports whether data looks like a sealed vault
func IsVault(data []byte) bool {
	_, err := ParseVault(data)
	return err == nil
}

func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, ScryptN, ScryptR, ScryptP, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// ClearBytes zeroes sensitive buffers
func ClearBytes(b []byte) {
	clearBytes(b)
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
