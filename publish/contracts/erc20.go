package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/lmittmann/w3"

	"github.com/mineloop99/new-token/publish"
)

const TransferGasLimit uint64 = 100_000

var (
	funcTransfer    = w3.MustNewFunc("transfer(address,uint256)", "bool")
	funcBalanceOf   = w3.MustNewFunc("balanceOf(address)", "uint256")
	funcTotalSupply = w3.MustNewFunc("totalSupply()", "uint256")
	eventTransfer   = w3.MustNewEvent("Transfer(address indexed from, address indexed to, uint256 value)")
)

type (
	// ERC20 is the token surface shared by the Aniwar token and BEP20.
	ERC20 struct {
		publish.Contract
	}

	TransferEvent struct {
		From  common.Address
		To    common.Address
		Value *big.Int
	}
)

func (t ERC20) Transfer(ctx context.Context, from *publish.Account, to common.Address, amount *big.Int) (publish.TxResult, error) {
	return t.Transact(ctx, from, funcTransfer, TransferGasLimit, to, amount)
}

func (t ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := t.Call(ctx, funcBalanceOf, []any{owner}, &balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (t ERC20) TotalSupply(ctx context.Context) (*big.Int, error) {
	var supply *big.Int
	if err := t.Call(ctx, funcTotalSupply, nil, &supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// Transfers returns the Transfer events the token emitted in receipt.
func (t ERC20) Transfers(receipt *types.Receipt) []TransferEvent {
	if receipt == nil {
		return nil
	}
	var out []TransferEvent
	for _, log := range receipt.Logs {
		if log.Address != t.Address {
			continue
		}
		var ev TransferEvent
		if err := eventTransfer.DecodeArgs(log, &ev.From, &ev.To, &ev.Value); err == nil {
			out = append(out, ev)
		}
	}
	return out
}
