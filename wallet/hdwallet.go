package wallet

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// EthDerivationPathFormat is the BIP-44 path of the i-th Ethereum account
const EthDerivationPathFormat = "m/44'/60'/0'/0/%d"

// Account is a derived claim account
type Account struct {
	Path    string
	Address common.Address
	Key     *ecdsa.PrivateKey
}

// hdKey is one node of a BIP-32 key tree
type hdKey struct {
	privateKey []byte
	publicKey  []byte
	chainCode  []byte
}

// DeriveAccounts derives count accounts starting at index start from a
// BIP-39 mnemonic (empty passphrase)
func DeriveAccounts(mnemonic string, start, count int) ([]Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	if start < 0 || count < 1 {
		return nil, fmt.Errorf("invalid account range: start %d, count %d", start, count)
	}

	seed := bip39.NewSeed(mnemonic, "")
	masterKey, err := newMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	derived := make([]Account, 0, count)
	for i := start; i < start+count; i++ {
		pathStr := fmt.Sprintf(EthDerivationPathFormat, i)
		path, err := accounts.ParseDerivationPath(pathStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse derivation path: %w", err)
		}

		childKey, err := deriveChildKey(masterKey, path)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", pathStr, err)
		}

		key, err := ethcrypto.ToECDSA(childKey.privateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to ECDSA key: %w", err)
		}

		derived = append(derived, Account{
			Path:    pathStr,
			Address: AddressOf(key),
			Key:     key,
		})
	}

	return derived, nil
}

// newMasterKey creates a master key from seed
func newMasterKey(seed []byte) (*hdKey, error) {
	hash := hmacSHA512([]byte("Bitcoin seed"), seed)

	privateKey := hash[:32]
	chainCode := hash[32:]

	if !isValidPrivateKey(privateKey) {
		return nil, fmt.Errorf("invalid private key")
	}

	publicKey, err := derivePublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &hdKey{
		privateKey: privateKey,
		publicKey:  publicKey,
		chainCode:  chainCode,
	}, nil
}

// deriveChildKey derives a child key from parent key and derivation path
func deriveChildKey(parent *hdKey, derivationPath accounts.DerivationPath) (*hdKey, error) {
	childKey := parent
	for _, childNum := range derivationPath {
		var err error
		childKey, err = deriveChild(childKey, childNum)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child: %w", err)
		}
	}
	return childKey, nil
}

// deriveChild derives a child key from parent (BIP-32 private derivation)
func deriveChild(parent *hdKey, childNum uint32) (*hdKey, error) {
	var data []byte
	if isHardened(childNum) {
		data = append([]byte{0x00}, parent.privateKey...)
	} else {
		data = append([]byte(nil), parent.publicKey...)
	}
	data = binary.BigEndian.AppendUint32(data, childNum)

	hash := hmacSHA512(parent.chainCode, data)
	il, ir := hash[:32], hash[32:]

	n := curveOrder()
	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Cmp(n) >= 0 {
		return nil, fmt.Errorf("invalid child key at index %d", childNum)
	}

	childInt := new(big.Int).Add(new(big.Int).SetBytes(parent.privateKey), ilInt)
	childInt.Mod(childInt, n)
	if childInt.Sign() == 0 {
		return nil, fmt.Errorf("invalid child key at index %d", childNum)
	}

	privateKey := math.PaddedBigBytes(childInt, 32)
	publicKey, err := derivePublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	return &hdKey{
		privateKey: privateKey,
		publicKey:  publicKey,
		chainCode:  ir,
	}, nil
}

// derivePublicKey returns the compressed public key of privateKey
func derivePublicKey(privateKey []byte) ([]byte, error) {
	key, err := ethcrypto.ToECDSA(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}
	return ethcrypto.CompressPubkey(&key.PublicKey), nil
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func isValidPrivateKey(privateKey []byte) bool {
	if len(privateKey) != 32 {
		return false
	}
	keyInt := new(big.Int).SetBytes(privateKey)
	return keyInt.Sign() != 0 && keyInt.Cmp(curveOrder()) < 0
}

func isHardened(childNum uint32) bool {
	return childNum >= 0x80000000
}

// secp256k1 group order
func curveOrder() *big.Int {
	return ethcrypto.S256().Params().N
}
