package chaintest

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
)

// Env is a client on a fresh Chain, two accounts and an artifact store
// holding the marker contracts. The chain charges no gas, so the accounts
// need no funding.
type Env struct {
	Chain  *Chain
	Client *publish.Client
	Owner  *publish.Account
	Other  *publish.Account
	Store  *artifacts.Store
}

func Setup(t testing.TB, opts ...publish.Option) *Env {
	t.Helper()
	chain := New()
	opts = append([]publish.Option{
		publish.WithPollInterval(5 * time.Millisecond),
		publish.WithTimeout(time.Second),
	}, opts...)
	return &Env{
		Chain:  chain,
		Client: publish.NewClient(chain, ChainID, opts...),
		Owner:  newAccount(t),
		Other:  newAccount(t),
		Store:  artifacts.NewStore(WriteArtifacts(t, t.TempDir())),
	}
}

func newAccount(t testing.TB) *publish.Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return publish.NewAccount(key)
}
