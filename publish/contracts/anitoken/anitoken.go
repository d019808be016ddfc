package anitoken

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts"
)

const (
	name           = "AniwarToken"
	DeployGasLimit = 3_000_000
	PauseGasLimit  = 60_000
)

var (
	funcPause   = w3.MustNewFunc("pause()", "")
	funcUnpause = w3.MustNewFunc("unpause()", "")
	funcPaused  = w3.MustNewFunc("paused()", "bool")
)

// Token is a pausable ERC20; the deployer holds the whole supply and the
// pauser role.
type Token struct {
	contracts.ERC20
}

func Name() string { return name }

func Deploy(ctx context.Context, c *publish.Client, from *publish.Account, opts contracts.Options) (*Token, error) {
	contract, err := contracts.Deploy(ctx, c, from, name, DeployGasLimit, opts)
	if err != nil {
		if contract.Address != (common.Address{}) {
			return At(c, contract.Address), err
		}
		return nil, err
	}
	return At(c, contract.Address), nil
}

func At(c *publish.Client, addr common.Address) *Token {
	return &Token{contracts.ERC20{Contract: publish.NewContract(c, addr)}}
}

func (t *Token) Pause(ctx context.Context, from *publish.Account) (publish.TxResult, error) {
	return t.Transact(ctx, from, funcPause, PauseGasLimit)
}

func (t *Token) Unpause(ctx context.Context, from *publish.Account) (publish.TxResult, error) {
	return t.Transact(ctx, from, funcUnpause, PauseGasLimit)
}

func (t *Token) Paused(ctx context.Context) (bool, error) {
	var paused bool
	if err := t.Call(ctx, funcPaused, nil, &paused); err != nil {
		return false, err
	}
	return paused, nil
}
