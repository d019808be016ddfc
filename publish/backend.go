package publish

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"
	"github.com/lmittmann/w3/module/eth"
	"github.com/lmittmann/w3/w3types"
)

// Backend is the subset of node access the client needs. It is satisfied by
// RPCBackend and by go-ethereum's ethclient and simulated clients.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// RPCBackend talks to a remote node over JSON-RPC.
type RPCBackend struct {
	client *w3.Client
}

var pendingBlock = big.NewInt(int64(rpc.PendingBlockNumber))

// call runs a single request and returns the node's own error rather than
// w3's one-element CallErrors, so rpc.DataError stays reachable.
func (b *RPCBackend) call(ctx context.Context, caller w3types.RPCCaller) error {
	err := b.client.CallCtx(ctx, caller)
	var callErrs w3.CallErrors
	if errors.As(err, &callErrs) && len(callErrs) == 1 && callErrs[0] != nil {
		return callErrs[0]
	}
	return err
}

func DialRPC(rpcURL string) (*RPCBackend, error) {
	client, err := w3.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	return &RPCBackend{client: client}, nil
}

func (b *RPCBackend) Close() error {
	return b.client.Close()
}

func (b *RPCBackend) ChainID(ctx context.Context) (*big.Int, error) {
	var id uint64
	if err := b.call(ctx, eth.ChainID().Returns(&id)); err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	return new(big.Int).SetUint64(id), nil
}

func (b *RPCBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	if err := b.call(ctx, eth.Nonce(account, pendingBlock).Returns(&nonce)); err != nil {
		return 0, err
	}
	return nonce, nil
}

func (b *RPCBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return b.call(ctx, eth.SendTx(tx).Returns(nil))
}

func (b *RPCBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt := new(types.Receipt)
	if err := b.call(ctx, eth.TxReceipt(txHash).Returns(receipt)); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (b *RPCBackend) BlockNumber(ctx context.Context) (uint64, error) {
	number := new(big.Int)
	if err := b.call(ctx, eth.BlockNumber().Returns(number)); err != nil {
		return 0, err
	}
	return number.Uint64(), nil
}

func (b *RPCBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	call := eth.Call(&w3types.Message{
		From:  msg.From,
		To:    msg.To,
		Gas:   msg.Gas,
		Value: msg.Value,
		Input: msg.Data,
	}, blockNumber, nil).Returns(&out)
	if err := b.call(ctx, call); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *RPCBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var code []byte
	if err := b.call(ctx, eth.Code(account, blockNumber).Returns(&code)); err != nil {
		return nil, err
	}
	return code, nil
}

func (b *RPCBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	balance := new(big.Int)
	if err := b.call(ctx, eth.Balance(account, blockNumber).Returns(balance)); err != nil {
		return nil, err
	}
	return balance, nil
}
