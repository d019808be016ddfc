package publish

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is an address together with the key that signs for it.
type Account struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewAccount(key *ecdsa.PrivateKey) *Account {
	return &Account{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// ParsePrivateKey imports an account from a hex private key, with or
// without the 0x prefix.
func ParsePrivateKey(v string) (*Account, error) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "0x")
	key, err := crypto.HexToECDSA(v)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewAccount(key), nil
}

func (a *Account) Address() common.Address {
	return a.address
}

func (a *Account) String() string {
	return a.address.Hex()
}

func ParseAddress(v string) (common.Address, error) {
	v = strings.TrimSpace(v)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid address: %s", v)
	}
	return common.HexToAddress(v), nil
}
