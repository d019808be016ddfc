package publish

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"
)

// Contract is a handle to a deployed contract. Calls through it change chain
// state, never the handle.
type Contract struct {
	Address common.Address
	client  *Client
}

func NewContract(c *Client, addr common.Address) Contract {
	return Contract{Address: addr, client: c}
}

func (k Contract) Client() *Client {
	return k.client
}

// Transact encodes fn with args and sends it from the given account.
func (k Contract) Transact(ctx context.Context, from *Account, fn *w3.Func, gasLimit uint64, args ...any) (TxResult, error) {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return TxResult{}, fmt.Errorf("encode %s: %w", fn.Signature, err)
	}
	res, err := k.client.Transact(ctx, from, k.Address, data, gasLimit)
	if err != nil {
		return res, fmt.Errorf("%s: %w", fn.Signature, err)
	}
	return res, nil
}

// Call runs fn as a view call and decodes its outputs into returns.
func (k Contract) Call(ctx context.Context, fn *w3.Func, args []any, returns ...any) error {
	data, err := fn.EncodeArgs(args...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", fn.Signature, err)
	}
	out, err := k.client.Call(ctx, k.Address, data)
	if err != nil {
		return fmt.Errorf("%s: %w", fn.Signature, err)
	}
	if err := fn.DecodeReturns(out, returns...); err != nil {
		return fmt.Errorf("decode %s: %w", fn.Signature, err)
	}
	return nil
}
