// Package chaintest provides an in-memory chain for tests. It implements
// publish.Backend and runs small Go models of the Aniwar contracts, selected
// by marker bytecode, so deploy and check flows can be exercised without a
// node or compiled Solidity.
package chaintest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Marker bytecode for each modelled contract.
var (
	TokenCode   = []byte{0xfe, 0xa1}
	BEP20Code   = []byte{0xfe, 0xa2}
	FarmCode    = []byte{0xfe, 0xa3}
	VestingCode = []byte{0xfe, 0xa4}
)

// TokenSupply is minted to the deployer of a token: one million tokens with
// 18 decimals.
var TokenSupply = new(big.Int).Mul(big.NewInt(1_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

var ChainID = big.NewInt(1337)

type (
	contract interface {
		call(ch *Chain, self, from common.Address, input []byte, write bool) ([]byte, []*types.Log, error)
	}

	Chain struct {
		mu        sync.Mutex
		signer    types.Signer
		head      uint64
		nonces    map[common.Address]uint64
		balances  map[common.Address]*big.Int
		code      map[common.Address][]byte
		contracts map[common.Address]contract
		receipts  map[common.Hash]*types.Receipt
		held      bool
		failNext  bool
	}
)

func New() *Chain {
	return &Chain{
		signer:    types.LatestSignerForChainID(ChainID),
		nonces:    map[common.Address]uint64{},
		balances:  map[common.Address]*big.Int{},
		code:      map[common.Address][]byte{},
		contracts: map[common.Address]contract{},
		receipts:  map[common.Hash]*types.Receipt{},
	}
}

// HoldReceipts makes sent transactions invisible to receipt lookups, as if
// they never got mined.
func (ch *Chain) HoldReceipts(hold bool) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.held = hold
}

// FailNext makes the next sent transaction revert on inclusion even though
// its dry run succeeded.
func (ch *Chain) FailNext() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.failNext = true
}

// Mine advances the head by n empty blocks.
func (ch *Chain) Mine(n uint64) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.head += n
}

func (ch *Chain) Fund(addr common.Address, amount *big.Int) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.balances[addr] = new(big.Int).Set(amount)
}

func (ch *Chain) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(ChainID), nil
}

func (ch *Chain) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.nonces[account], nil
}

func (ch *Chain) BlockNumber(context.Context) (uint64, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.head, nil
}

func (ch *Chain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.code[account], nil
}

func (ch *Chain) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if b, ok := ch.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (ch *Chain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	r, ok := ch.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (ch *Chain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if msg.To == nil {
		if _, err := ch.construct(msg.From, msg.Data); err != nil {
			return nil, err
		}
		return nil, nil
	}
	k, ok := ch.contracts[*msg.To]
	if !ok {
		return nil, nil
	}
	out, _, err := k.call(ch, *msg.To, msg.From, msg.Data, false)
	return out, err
}

func (ch *Chain) SendTransaction(_ context.Context, tx *types.Transaction) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	from, err := types.Sender(ch.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if want := ch.nonces[from]; tx.Nonce() != want {
		return fmt.Errorf("invalid nonce: have %d, want %d", tx.Nonce(), want)
	}
	ch.nonces[from]++
	ch.head++

	receipt := &types.Receipt{
		Type:        tx.Type(),
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(ch.head),
		GasUsed:     21_000,
	}

	var logs []*types.Log
	switch {
	case ch.failNext:
		ch.failNext = false
		err = errors.New("execution reverted")
	case tx.To() == nil:
		var k contract
		k, err = ch.construct(from, tx.Data())
		if err == nil {
			addr := crypto.CreateAddress(from, tx.Nonce())
			ch.contracts[addr] = k
			ch.code[addr] = tx.Data()
			receipt.ContractAddress = addr
		}
	default:
		if k, ok := ch.contracts[*tx.To()]; ok {
			_, logs, err = k.call(ch, *tx.To(), from, tx.Data(), true)
		}
	}
	if err != nil {
		receipt.Status = types.ReceiptStatusFailed
		logs = nil
	}
	for i, l := range logs {
		l.TxHash = tx.Hash()
		l.BlockNumber = ch.head
		l.Index = uint(i)
	}
	receipt.Logs = logs

	if !ch.held {
		ch.receipts[tx.Hash()] = receipt
	}
	return nil
}

func (ch *Chain) construct(from common.Address, data []byte) (contract, error) {
	if len(data) < 2 {
		return nil, revert("empty init code")
	}
	marker, args := data[:2], data[2:]
	switch {
	case string(marker) == string(TokenCode):
		return newToken(from, true), nil
	case string(marker) == string(BEP20Code):
		return newToken(from, false), nil
	case string(marker) == string(FarmCode):
		tok, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		return &farm{owner: from, rewardToken: tok}, nil
	case string(marker) == string(VestingCode):
		tok, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		return &vesting{owner: from, token: tok, schedules: map[common.Address][]schedule{}}, nil
	}
	return nil, revert("unknown init code")
}

func addressArg(args []byte) (common.Address, error) {
	if len(args) != 32 {
		return common.Address{}, revert("bad constructor arguments")
	}
	return common.BytesToAddress(args), nil
}

func (ch *Chain) tokenAt(addr common.Address) (*token, bool) {
	t, ok := ch.contracts[addr].(*token)
	return t, ok
}

// RevertError mimics the JSON-RPC error a node returns for a reverted call.
type RevertError struct {
	Reason string
}

func revert(reason string) error {
	return &RevertError{Reason: reason}
}

func (e *RevertError) Error() string {
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int { return 3 }

func (e *RevertError) ErrorData() interface{} {
	packed, err := encode([]string{"string"}, e.Reason)
	if err != nil {
		return nil
	}
	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

// WriteArtifacts writes build/contracts JSON files carrying the marker
// bytecode into buildDir and returns buildDir.
func WriteArtifacts(t testing.TB, buildDir string) string {
	t.Helper()
	ctor := json.RawMessage(`[{"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"token_","type":"address","internalType":"address"}]}]`)
	files := map[string]struct {
		code []byte
		abi  json.RawMessage
	}{
		"AniwarToken":   {TokenCode, json.RawMessage(`[]`)},
		"BEP20":         {BEP20Code, json.RawMessage(`[]`)},
		"AniwarFarm":    {FarmCode, ctor},
		"AniwarVesting": {VestingCode, ctor},
	}
	dir := filepath.Join(buildDir, "contracts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, f := range files {
		blob, err := json.Marshal(map[string]any{
			"contractName": name,
			"abi":          f.abi,
			"bytecode":     hexutil.Encode(f.code),
			"source":       "// " + name,
			"compiler": map[string]any{
				"version":   "0.8.4+commit.c7e474f2",
				"optimizer": map[string]any{"enabled": true, "runs": 200},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name+".json"), blob, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return buildDir
}
