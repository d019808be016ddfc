package publish_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/lmittmann/w3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/chaintest"
)

// Init code that deploys a single STOP byte as runtime code.
var stopInitCode = hexutil.MustDecode("0x6001600c60003960016000f300")

// Init code that reverts with empty data.
var revertInitCode = hexutil.MustDecode("0x60006000fd")

type simBackend struct {
	simulated.Client
	sim *simulated.Backend
}

func (b simBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Client.SendTransaction(ctx, tx); err != nil {
		return err
	}
	b.sim.Commit()
	return nil
}

func newSimClient(t *testing.T, opts ...publish.Option) (*publish.Client, *publish.Account) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account := publish.NewAccount(key)

	sim := simulated.NewBackend(types.GenesisAlloc{
		account.Address(): {Balance: new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18))},
	})
	t.Cleanup(func() { _ = sim.Close() })

	backend := simBackend{Client: sim.Client(), sim: sim}
	chainID, err := backend.ChainID(context.Background())
	require.NoError(t, err)

	opts = append([]publish.Option{publish.WithPollInterval(10 * time.Millisecond)}, opts...)
	return publish.NewClient(backend, chainID, opts...), account
}

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func TestDeployOnSimulatedChain(t *testing.T) {
	ctx := context.Background()
	client, account := newSimClient(t)

	res, err := client.Deploy(ctx, account, "Stop", stopInitCode, 200_000)
	require.NoError(t, err)

	assert.Equal(t, crypto.CreateAddress(account.Address(), 0), res.ContractAddress)
	assert.Equal(t, publish.TxConfirmed, res.Result.Status)
	assert.Equal(t, uint64(1), res.Result.Confirmations)
	require.NotNil(t, res.Result.Receipt)
	assert.Equal(t, res.ContractAddress, res.Result.Receipt.ContractAddress)

	code, err := client.CodeAt(ctx, res.ContractAddress)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, code)
}

func TestDeployRevertIsRejectedBeforeSending(t *testing.T) {
	ctx := context.Background()
	client, account := newSimClient(t)

	_, err := client.Deploy(ctx, account, "Reverter", revertInitCode, 200_000)
	require.Error(t, err)
	assert.ErrorIs(t, err, publish.ErrReverted)
	assert.True(t, publish.IsRevert(err))

	nonce, err := client.Backend().PendingNonceAt(ctx, account.Address())
	require.NoError(t, err)
	assert.Zero(t, nonce, "nothing may be sent when the dry run reverts")
}

func TestTransactValueTransferToEOA(t *testing.T) {
	ctx := context.Background()
	client, account := newSimClient(t)
	to := crypto.PubkeyToAddress(newTestKey(t).PublicKey)

	res, err := client.Transact(ctx, account, to, nil, 50_000)
	require.NoError(t, err)
	assert.Equal(t, publish.TxConfirmed, res.Status)
	assert.NotEqual(t, common.Hash{}, res.Hash)
}

func newChainClient(t *testing.T, opts ...publish.Option) (*publish.Client, *chaintest.Chain, *publish.Account) {
	t.Helper()
	chain := chaintest.New()
	opts = append([]publish.Option{publish.WithPollInterval(5 * time.Millisecond)}, opts...)
	return publish.NewClient(chain, chaintest.ChainID, opts...), chain, publish.NewAccount(newTestKey(t))
}

var (
	funcPause    = w3.MustNewFunc("pause()", "")
	funcUnpause  = w3.MustNewFunc("unpause()", "")
	funcTransfer = w3.MustNewFunc("transfer(address,uint256)", "bool")
)

func TestTransactPendingAfterTimeout(t *testing.T) {
	ctx := context.Background()
	client, chain, account := newChainClient(t, publish.WithTimeout(50*time.Millisecond))

	res, err := client.Deploy(ctx, account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.NoError(t, err)

	chain.HoldReceipts(true)
	data, err := funcPause.EncodeArgs()
	require.NoError(t, err)

	start := time.Now()
	tx, err := client.Transact(ctx, account, res.ContractAddress, data, 60_000)
	assert.ErrorIs(t, err, publish.ErrPending)
	assert.Equal(t, publish.TxPending, tx.Status)
	assert.NotEqual(t, common.Hash{}, tx.Hash)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitRequiresConfirmations(t *testing.T) {
	ctx := context.Background()
	client, chain, account := newChainClient(t,
		publish.WithConfirmations(3),
		publish.WithTimeout(50*time.Millisecond))

	res, err := client.Deploy(ctx, account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.ErrorIs(t, err, publish.ErrPending)
	assert.Equal(t, publish.TxPending, res.Result.Status)
	assert.Equal(t, uint64(1), res.Result.Confirmations)
	assert.Equal(t, crypto.CreateAddress(account.Address(), 0), res.ContractAddress)

	chain.Mine(2)
	final, err := client.Wait(ctx, res.TxHash)
	require.NoError(t, err)
	assert.Equal(t, publish.TxConfirmed, final.Status)
	assert.Equal(t, uint64(3), final.Confirmations)
}

func TestWaitHonoursCancellation(t *testing.T) {
	client, chain, account := newChainClient(t)
	res, err := client.Deploy(context.Background(), account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.NoError(t, err)

	chain.HoldReceipts(true)
	data, err := funcPause.EncodeArgs()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	tx, err := client.Transact(ctx, account, res.ContractAddress, data, 60_000)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, publish.TxPending, tx.Status)
}

func TestTransactRevertedOnInclusion(t *testing.T) {
	ctx := context.Background()
	client, chain, account := newChainClient(t)

	res, err := client.Deploy(ctx, account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.NoError(t, err)

	chain.FailNext()
	data, err := funcPause.EncodeArgs()
	require.NoError(t, err)
	tx, err := client.Transact(ctx, account, res.ContractAddress, data, 60_000)
	assert.ErrorIs(t, err, publish.ErrReverted)
	assert.Equal(t, publish.TxReverted, tx.Status)
	require.NotNil(t, tx.Receipt)
	assert.Equal(t, types.ReceiptStatusFailed, tx.Receipt.Status)
}

func TestTransactRevertReason(t *testing.T) {
	ctx := context.Background()
	client, _, account := newChainClient(t)

	res, err := client.Deploy(ctx, account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.NoError(t, err)

	data, err := funcTransfer.EncodeArgs(common.HexToAddress("0x01"), new(big.Int).Add(chaintest.TokenSupply, big.NewInt(1)))
	require.NoError(t, err)
	tx, err := client.Transact(ctx, account, res.ContractAddress, data, 100_000)
	assert.Equal(t, publish.TxReverted, tx.Status)

	var revertErr *publish.RevertError
	require.True(t, errors.As(err, &revertErr))
	assert.Equal(t, "ERC20: transfer amount exceeds balance", revertErr.Reason)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := publish.NewMetrics(reg)
	client, chain, account := newChainClient(t, publish.WithMetrics(metrics))

	res, err := client.Deploy(ctx, account, "AniwarToken", chaintest.TokenCode, 1_000_000)
	require.NoError(t, err)

	pause, err := funcPause.EncodeArgs()
	require.NoError(t, err)
	_, err = client.Transact(ctx, account, res.ContractAddress, pause, 60_000)
	require.NoError(t, err)

	// paused twice reverts in the dry run
	_, err = client.Transact(ctx, account, res.ContractAddress, pause, 60_000)
	require.ErrorIs(t, err, publish.ErrReverted)

	chain.FailNext()
	unpause, err := funcUnpause.EncodeArgs()
	require.NoError(t, err)
	_, err = client.Transact(ctx, account, res.ContractAddress, unpause, 60_000)
	require.ErrorIs(t, err, publish.ErrReverted)

	expected := `
# HELP anipublish_transactions_total Transactions by outcome.
# TYPE anipublish_transactions_total counter
anipublish_transactions_total{outcome="confirmed"} 2
anipublish_transactions_total{outcome="rejected"} 1
anipublish_transactions_total{outcome="reverted"} 1
anipublish_transactions_total{outcome="sent"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "anipublish_transactions_total"))

	deployments := `
# HELP anipublish_deployments_total Confirmed contract deployments by contract name.
# TYPE anipublish_deployments_total counter
anipublish_deployments_total{contract="AniwarToken"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(deployments), "anipublish_deployments_total"))
}
