package publish

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const (
	DefaultGasFeeCap     int64  = 2_000_000_000
	DefaultGasTipCap     int64  = 1_000_000_000
	DefaultConfirmations uint64 = 1
	DefaultTimeout              = 10 * time.Minute
	DefaultPollInterval         = 2 * time.Second
)

type (
	DeployResult struct {
		TxHash          common.Hash
		ContractAddress common.Address
		Result          TxResult
	}

	// Client signs, submits and waits for transactions on one chain. Every
	// write blocks until it is confirmed, reverted, or the wait times out.
	Client struct {
		backend       Backend
		chainID       *big.Int
		signer        types.Signer
		gasFeeCap     *big.Int
		gasTipCap     *big.Int
		confirmations uint64
		timeout       time.Duration
		pollInterval  time.Duration
		log           *zap.Logger
		metrics       *Metrics
	}

	Option func(*Client)
)

func WithFees(gasFeeCap, gasTipCap *big.Int) Option {
	return func(c *Client) {
		if gasFeeCap != nil {
			c.gasFeeCap = gasFeeCap
		}
		if gasTipCap != nil {
			c.gasTipCap = gasTipCap
		}
	}
}

// WithConfirmations sets the number of blocks, counting the inclusion block,
// a transaction needs before it is reported as final. Zero means one.
func WithConfirmations(n uint64) Option {
	return func(c *Client) {
		if n == 0 {
			n = 1
		}
		c.confirmations = n
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(backend Backend, chainID *big.Int, opts ...Option) *Client {
	c := &Client{
		backend:       backend,
		chainID:       new(big.Int).Set(chainID),
		signer:        types.LatestSignerForChainID(chainID),
		gasFeeCap:     big.NewInt(DefaultGasFeeCap),
		gasTipCap:     big.NewInt(DefaultGasTipCap),
		confirmations: DefaultConfirmations,
		timeout:       DefaultTimeout,
		pollInterval:  DefaultPollInterval,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *Client) Backend() Backend {
	return c.backend
}

func (c *Client) Logger() *zap.Logger {
	return c.log
}

func (c *Client) Metrics() *Metrics {
	return c.metrics
}

func (c *Client) getNonce(ctx context.Context, addr common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("get nonce: %w", err)
	}
	return nonce, nil
}

func (c *Client) sendTx(ctx context.Context, from *Account, tx *types.Transaction) (common.Hash, error) {
	signedTx, err := types.SignTx(tx, c.signer, from.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("send tx: %w", err)
	}
	c.metrics.observeSent()
	c.log.Debug("transaction sent",
		zap.Stringer("hash", signedTx.Hash()),
		zap.Stringer("from", from.Address()),
		zap.Uint64("nonce", signedTx.Nonce()))
	return signedTx.Hash(), nil
}

// dryRun executes msg against the latest state. A VM revert is reported as
// a *RevertError so the caller never pays for a transaction that would fail.
func (c *Client) dryRun(ctx context.Context, msg ethereum.CallMsg) error {
	if _, err := c.backend.CallContract(ctx, msg, nil); err != nil {
		if IsRevert(err) {
			c.metrics.observeRejected()
			return newRevertError(err)
		}
		return fmt.Errorf("dry run: %w", err)
	}
	return nil
}

// Deploy submits bytecode (constructor arguments already appended) as a
// contract creation from the given account and waits for it to be mined.
// Once the transaction is sent the result carries its hash and the expected
// contract address, even when the wait ends pending or reverted.
func (c *Client) Deploy(ctx context.Context, from *Account, name string, bytecode []byte, gasLimit uint64) (DeployResult, error) {
	if err := c.dryRun(ctx, ethereum.CallMsg{From: from.Address(), Gas: gasLimit, Data: bytecode}); err != nil {
		return DeployResult{}, fmt.Errorf("deploy %s: %w", name, err)
	}

	nonce, err := c.getNonce(ctx, from.Address())
	if err != nil {
		return DeployResult{}, err
	}

	contractAddr := crypto.CreateAddress(from.Address(), nonce)

	//  EIP-1559 only
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		GasFeeCap: c.gasFeeCap,
		GasTipCap: c.gasTipCap,
		Gas:       gasLimit,
		Data:      bytecode,
	})

	txHash, err := c.sendTx(ctx, from, tx)
	if err != nil {
		return DeployResult{}, fmt.Errorf("deploy %s: %w", name, err)
	}

	out := DeployResult{TxHash: txHash, ContractAddress: contractAddr}
	out.Result, err = c.Wait(ctx, txHash)
	if err != nil {
		return out, fmt.Errorf("wait %s deployment: %w", name, err)
	}
	if err := out.Result.Err(); err != nil {
		return out, fmt.Errorf("%s deployment failed: %w", name, err)
	}

	c.metrics.observeDeployed(name)
	c.log.Info("contract deployed",
		zap.String("contract", name),
		zap.Stringer("address", contractAddr),
		zap.Stringer("tx", txHash))

	return out, nil
}

// Transact sends a call to a deployed contract and waits for the outcome. A
// reverted or still pending transaction is returned together with an error
// matching ErrReverted or ErrPending.
func (c *Client) Transact(ctx context.Context, from *Account, to common.Address, data []byte, gasLimit uint64) (TxResult, error) {
	if err := c.dryRun(ctx, ethereum.CallMsg{From: from.Address(), To: &to, Gas: gasLimit, Data: data}); err != nil {
		return TxResult{Status: TxReverted}, err
	}

	nonce, err := c.getNonce(ctx, from.Address())
	if err != nil {
		return TxResult{}, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     nonce,
		To:        &to,
		GasFeeCap: c.gasFeeCap,
		GasTipCap: c.gasTipCap,
		Gas:       gasLimit,
		Data:      data,
	})

	txHash, err := c.sendTx(ctx, from, tx)
	if err != nil {
		return TxResult{}, err
	}

	res, err := c.Wait(ctx, txHash)
	if err != nil {
		return res, err
	}
	return res, res.Err()
}

// Call runs a read-only call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if IsRevert(err) {
			return nil, newRevertError(err)
		}
		return nil, fmt.Errorf("call %s: %w", to.Hex(), err)
	}
	return out, nil
}

func (c *Client) CodeAt(ctx context.Context, addr common.Address) ([]byte, error) {
	code, err := c.backend.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("get code: %w", err)
	}
	return code, nil
}

func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	bal, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return bal, nil
}

// Wait polls for the receipt of txHash until it has the configured number of
// confirmations. When the client timeout (or a deadline on ctx) expires first,
// the result is returned with status TxPending and a nil error.
func (c *Client) Wait(ctx context.Context, txHash common.Hash) (TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	res := TxResult{Hash: txHash, Status: TxPending}
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			res.Receipt = receipt
			head, err := c.backend.BlockNumber(ctx)
			if err == nil {
				res.Confirmations = confirmations(head, receipt)
				if res.Confirmations >= c.confirmations {
					res.Status = statusOf(receipt)
					c.metrics.observeFinal(res.Status, time.Since(start))
					c.log.Debug("transaction final",
						zap.Stringer("hash", txHash),
						zap.Stringer("status", res.Status),
						zap.Uint64("block", receipt.BlockNumber.Uint64()))
					return res, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return res, ctx.Err()
			}
			c.metrics.observeFinal(TxPending, time.Since(start))
			c.log.Warn("transaction still pending",
				zap.Stringer("hash", txHash),
				zap.Duration("waited", time.Since(start)))
			return res, nil
		case <-ticker.C:
		}
	}
}

func confirmations(head uint64, receipt *types.Receipt) uint64 {
	if receipt.BlockNumber == nil {
		return 0
	}
	block := receipt.BlockNumber.Uint64()
	if head < block {
		return 0
	}
	return head - block + 1
}

func statusOf(receipt *types.Receipt) TxStatus {
	if receipt.Status == types.ReceiptStatusSuccessful {
		return TxConfirmed
	}
	return TxReverted
}
