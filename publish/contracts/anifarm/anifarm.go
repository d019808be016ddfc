package anifarm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts"
)

const (
	name           = "AniwarFarm"
	DeployGasLimit = 3_000_000
	TxGasLimit     = 120_000
)

var (
	funcAddAllowedTokens = w3.MustNewFunc("addAllowedTokens(address)", "")
	funcAllowedTokens    = w3.MustNewFunc("allowedTokens(uint256)", "address")
)

// Farm stakes allowed tokens and pays rewards in the Aniwar token it was
// deployed with.
type Farm struct {
	publish.Contract
}

func Name() string { return name }

func Deploy(ctx context.Context, c *publish.Client, from *publish.Account, rewardToken common.Address, opts contracts.Options) (*Farm, error) {
	contract, err := contracts.Deploy(ctx, c, from, name, DeployGasLimit, opts, rewardToken)
	if err != nil {
		if contract.Address != (common.Address{}) {
			return At(c, contract.Address), err
		}
		return nil, err
	}
	return At(c, contract.Address), nil
}

func At(c *publish.Client, addr common.Address) *Farm {
	return &Farm{publish.NewContract(c, addr)}
}

func (f *Farm) AddAllowedTokens(ctx context.Context, from *publish.Account, token common.Address) (publish.TxResult, error) {
	return f.Transact(ctx, from, funcAddAllowedTokens, TxGasLimit, token)
}

func (f *Farm) AllowedToken(ctx context.Context, index int64) (common.Address, error) {
	var token common.Address
	if err := f.Call(ctx, funcAllowedTokens, []any{big.NewInt(index)}, &token); err != nil {
		return common.Address{}, err
	}
	return token, nil
}
