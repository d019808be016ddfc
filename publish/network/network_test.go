package network

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineloop99/new-token/publish"
)

const testKey = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

const testConfig = `
dotenv: .env
networks:
  default: bsc-test
  development:
    verify: False
  ropsten:
    verify: True
    recipient: "0x000000000000000000000000000000000000dEaD"
  bsc-test:
    verify: True
    explorer_api_key: ${BSCSCAN_TOKEN}
    gas_fee_cap: 20000000000
    confirmations: 2
  ganache-local:
    host: http://127.0.0.1:8545
    chainid: 1337
wallets:
  private_key: ${PRIVATE_KEY}
`

func testEnv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParseConfig(t *testing.T) {
	cfg, err := Parse([]byte(testConfig), testEnv(map[string]string{
		"PRIVATE_KEY":   "0x" + testKey,
		"BSCSCAN_TOKEN": "scan-key",
	}))
	require.NoError(t, err)

	assert.Equal(t, "bsc-test", cfg.Default)
	assert.Equal(t, "0x"+testKey, cfg.Wallets.PrivateKey)
	require.Contains(t, cfg.Networks, "ganache-local")
	assert.NotContains(t, cfg.Networks, "default")

	bsc, err := cfg.Network(BSCTest)
	require.NoError(t, err)
	assert.True(t, bsc.Live)
	assert.True(t, bsc.Verify)
	assert.Equal(t, "scan-key", bsc.ExplorerAPIKey)
	assert.Equal(t, "https://api-testnet.bscscan.com/api", bsc.Explorer)
	assert.Equal(t, big.NewInt(97), bsc.ChainID)
	assert.Equal(t, big.NewInt(20_000_000_000), bsc.GasFeeCap)
	assert.Nil(t, bsc.GasTipCap)
	assert.Equal(t, uint64(2), bsc.Confirmations)

	dev, err := cfg.Network(Development)
	require.NoError(t, err)
	assert.False(t, dev.Live)
	assert.False(t, dev.Verify)
	assert.Empty(t, dev.Host)

	local, err := cfg.Network("ganache-local")
	require.NoError(t, err)
	assert.False(t, local.Live)
	assert.Equal(t, "http://127.0.0.1:8545", local.Host)
	assert.Equal(t, big.NewInt(1337), local.ChainID)
}

func TestParseConfigRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("networks: [unclosed"), testEnv(nil))
	require.Error(t, err)

	_, err = Parse([]byte("networks:\n  ropsten:\n    verify: [1, 2]\n"), testEnv(nil))
	require.Error(t, err)
}

func TestUnknownNetwork(t *testing.T) {
	_, err := Config{}.Network("mainnet-fork")
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestActive(t *testing.T) {
	assert.Equal(t, Development, Config{}.Active(""))
	assert.Equal(t, BSCTest, Config{Default: BSCTest}.Active(""))
	assert.Equal(t, Ropsten, Config{Default: BSCTest}.Active(Ropsten))
}

func TestNames(t *testing.T) {
	cfg := Config{Networks: map[string]NetworkConfig{"ganache-local": {}}}
	assert.Equal(t, []string{BSCTest, Development, "ganache-local", Ropsten}, cfg.Names())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Default)
	assert.Empty(t, cfg.Networks)
}

func TestLoadConfigExpandsEnvironment(t *testing.T) {
	t.Setenv("PRIVATE_KEY", testKey)
	path := filepath.Join(t.TempDir(), DefaultConfig)
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, testKey, cfg.Wallets.PrivateKey)
}

func TestResolveAccountPublicNetwork(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)

	dev, err := DevAccounts(DevMnemonic, 2)
	require.NoError(t, err)

	for _, name := range PublicNetworks {
		t.Run(name, func(t *testing.T) {
			cfg := Config{Wallets: Wallets{PrivateKey: "0x" + testKey}}
			account, err := ResolveAccount(cfg, Network{Name: name, Live: true}, dev)
			require.NoError(t, err)
			assert.Equal(t, want, account.Address())
			assert.NotEqual(t, dev[0].Address(), account.Address())
		})
	}
}

func TestResolveAccountLocalNetwork(t *testing.T) {
	dev, err := DevAccounts(DevMnemonic, 2)
	require.NoError(t, err)

	cfg := Config{Wallets: Wallets{PrivateKey: testKey}}
	for _, name := range []string{Development, "ganache-local"} {
		account, err := ResolveAccount(cfg, Network{Name: name}, dev)
		require.NoError(t, err)
		assert.Equal(t, dev[0].Address(), account.Address())
	}
}

func TestResolveAccountErrors(t *testing.T) {
	_, err := ResolveAccount(Config{}, Network{Name: Ropsten}, nil)
	assert.ErrorIs(t, err, ErrMissingPrivateKey)

	_, err = ResolveAccount(Config{Wallets: Wallets{PrivateKey: "not-hex"}}, Network{Name: BSCTest}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallets.private_key")

	_, err = ResolveAccount(Config{}, Network{Name: Development}, nil)
	assert.ErrorIs(t, err, ErrNoDevAccounts)
}

func TestResolveRecipient(t *testing.T) {
	dev, err := DevAccounts(DevMnemonic, 2)
	require.NoError(t, err)

	addr, err := ResolveRecipient(Network{Name: Ropsten, Recipient: "0x000000000000000000000000000000000000dEaD"}, nil)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xdead"), addr)

	addr, err = ResolveRecipient(Network{Name: Development}, dev)
	require.NoError(t, err)
	assert.Equal(t, dev[1].Address(), addr)

	_, err = ResolveRecipient(Network{Name: Ropsten}, nil)
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = ResolveRecipient(Network{Name: Ropsten, Recipient: "bob"}, nil)
	require.Error(t, err)
}

func TestDevAccounts(t *testing.T) {
	accounts, err := DevAccounts(DevMnemonic, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	// accounts[0] of a ganache started with the brownie mnemonic
	assert.Equal(t, common.HexToAddress("0x66aB6D9362d4F35596279692F0251Db635165871"), accounts[0].Address())

	again, err := DevAccounts(DevMnemonic, 3)
	require.NoError(t, err)
	for i := range accounts {
		assert.Equal(t, accounts[i].Address(), again[i].Address())
	}
	assert.NotEqual(t, accounts[0].Address(), accounts[1].Address())
}

func TestOpenDevelopment(t *testing.T) {
	ctx := context.Background()
	net, err := Config{}.Network(Development)
	require.NoError(t, err)

	s, err := Open(ctx, Config{}, net)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, big.NewInt(1337), s.Network.ChainID)
	assert.Equal(t, big.NewInt(1337), s.Client.ChainID())
	require.Len(t, s.Dev, DevAccountCount)
	assert.Equal(t, s.Dev[0].Address(), s.Account.Address())

	balance, err := s.Client.BalanceAt(ctx, s.Account.Address())
	require.NoError(t, err)
	assert.Equal(t, DevBalance, balance)

	recipient, err := s.Recipient()
	require.NoError(t, err)
	assert.Equal(t, s.Dev[1].Address(), recipient)

	res, err := s.Client.Transact(ctx, s.Account, recipient, nil, 21_000)
	require.NoError(t, err)
	assert.Equal(t, publish.TxConfirmed, res.Status)
}

func TestOpenLiveNetworkWithoutHost(t *testing.T) {
	cfg := Config{Wallets: Wallets{PrivateKey: testKey}}
	_, err := Open(context.Background(), cfg, Network{Name: Ropsten, Live: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host")
}

func TestOpenChainIDMismatch(t *testing.T) {
	net := Network{Name: Development, ChainID: big.NewInt(97)}
	_, err := Open(context.Background(), Config{}, net)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain id")
}
