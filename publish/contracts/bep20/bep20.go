package bep20

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts"
)

const (
	name           = "BEP20"
	DeployGasLimit = 2_500_000
)

var (
	funcName     = w3.MustNewFunc("name()", "string")
	funcSymbol   = w3.MustNewFunc("symbol()", "string")
	funcDecimals = w3.MustNewFunc("decimals()", "uint8")
)

type (
	Token struct {
		contracts.ERC20
	}

	Metadata struct {
		Name     string
		Symbol   string
		Decimals uint8
	}
)

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

func (t *Token) Metadata(ctx context.Context) (Metadata, error) {
	var md Metadata
	if err := t.Call(ctx, funcName, nil, &md.Name); err != nil {
		return Metadata{}, err
	}
	if err := t.Call(ctx, funcSymbol, nil, &md.Symbol); err != nil {
		return Metadata{}, err
	}
	if err := t.Call(ctx, funcDecimals, nil, &md.Decimals); err != nil {
		return Metadata{}, err
	}
	return md, nil
}

// Supply returns the total supply scaled down by decimals, for display.
func (t *Token) Supply(ctx context.Context) (*big.Float, error) {
	md, err := t.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	total, err := t.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(md.Decimals)), nil))
	return new(big.Float).Quo(new(big.Float).SetInt(total), scale), nil
}
