package network

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mineloop99/new-token/publish"
)

var (
	ErrNoDevAccounts = errors.New("no development accounts")
	ErrNoRecipient   = errors.New("no recipient configured")
)

// ResolveAccount returns the signing account for net. Public networks import
// the configured private key; every other network signs with development
// account 0.
func ResolveAccount(cfg Config, net Network, dev []*publish.Account) (*publish.Account, error) {
	if IsPublic(net.Name) {
		if cfg.Wallets.PrivateKey == "" {
			return nil, fmt.Errorf("%w for network %s", ErrMissingPrivateKey, net.Name)
		}
		account, err := publish.ParsePrivateKey(cfg.Wallets.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("wallets.private_key: %w", err)
		}
		return account, nil
	}
	if len(dev) == 0 {
		return nil, fmt.Errorf("%w on network %s", ErrNoDevAccounts, net.Name)
	}
	return dev[0], nil
}

// ResolveRecipient returns the transfer target for check flows: the
// configured recipient, or development account 1.
func ResolveRecipient(net Network, dev []*publish.Account) (common.Address, error) {
	if net.Recipient != "" {
		addr, err := publish.ParseAddress(net.Recipient)
		if err != nil {
			return common.Address{}, fmt.Errorf("networks.%s.recipient: %w", net.Name, err)
		}
		return addr, nil
	}
	if len(dev) > 1 {
		return dev[1].Address(), nil
	}
	return common.Address{}, fmt.Errorf("%w for network %s", ErrNoRecipient, net.Name)
}
