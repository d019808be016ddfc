package network

import (
	"context"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/tyler-smith/go-bip39"

	"github.com/mineloop99/new-token/publish"
)

const (
	DevMnemonic     = "brownie"
	DevAccountCount = 10
)

// DevBalance is the genesis balance of each development account: 100 ether.
var DevBalance = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

// m/44'/60'/0'/0
var devPath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// DevAccounts derives the first n accounts of mnemonic on m/44'/60'/0'/0/i,
// the same accounts a local ganache started with that mnemonic holds.
func DevAccounts(mnemonic string, n int) ([]*publish.Account, error) {
	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	parent := master
	for _, idx := range devPath {
		if parent, err = parent.Derive(idx); err != nil {
			return nil, fmt.Errorf("derive dev path: %w", err)
		}
	}

	accounts := make([]*publish.Account, 0, n)
	for i := 0; i < n; i++ {
		child, err := parent.Derive(uint32(i))
		if err != nil {
			return nil, fmt.Errorf("derive dev account %d: %w", i, err)
		}
		priv, err := child.ECPrivKey()
		if err != nil {
			return nil, fmt.Errorf("dev account %d key: %w", i, err)
		}
		accounts = append(accounts, publish.NewAccount(priv.ToECDSA()))
	}
	return accounts, nil
}

// DevChain is an in-process chain with funded development accounts. Every
// accepted transaction is mined into its own block straight away.
type DevChain struct {
	sim *simulated.Backend
}

func NewDevChain(accounts []*publish.Account) *DevChain {
	alloc := make(types.GenesisAlloc, len(accounts))
	for _, a := range accounts {
		alloc[a.Address()] = types.Account{Balance: new(big.Int).Set(DevBalance)}
	}
	return &DevChain{sim: simulated.NewBackend(alloc)}
}

func (d *DevChain) Backend() publish.Backend {
	return autoMine{Client: d.sim.Client(), sim: d.sim}
}

func (d *DevChain) Close() error {
	return d.sim.Close()
}

type autoMine struct {
	simulated.Client
	sim *simulated.Backend
}

func (a autoMine) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := a.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	a.sim.Commit()
	return nil
}
