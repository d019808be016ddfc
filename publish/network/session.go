package network

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mineloop99/new-token/publish"
)

// Session is an open connection to a network together with the account that
// signs on it.
type Session struct {
	Network Network
	Client  *publish.Client
	Account *publish.Account
	Dev     []*publish.Account

	close func() error
}

// Open connects to net. A network without a host runs on an in-process
// development chain; any other network is dialled over JSON-RPC.
func Open(ctx context.Context, cfg Config, net Network, opts ...publish.Option) (*Session, error) {
	account, dev, err := signers(cfg, net)
	if err != nil {
		return nil, err
	}

	var (
		backend publish.Backend
		closer  func() error
	)
	switch {
	case net.Host != "":
		rpc, err := publish.DialRPC(net.Host)
		if err != nil {
			return nil, fmt.Errorf("network %s: %w", net.Name, err)
		}
		backend, closer = rpc, rpc.Close
	case net.Live:
		return nil, fmt.Errorf("network %s: no host configured", net.Name)
	default:
		chain := NewDevChain(dev)
		backend, closer = chain.Backend(), chain.Close
	}
	return attach(ctx, net, backend, closer, account, dev, opts)
}

// OpenBackend is Open on a caller supplied backend. Closing the session
// leaves the backend open.
func OpenBackend(ctx context.Context, cfg Config, net Network, backend publish.Backend, opts ...publish.Option) (*Session, error) {
	account, dev, err := signers(cfg, net)
	if err != nil {
		return nil, err
	}
	return attach(ctx, net, backend, nil, account, dev, opts)
}

func signers(cfg Config, net Network) (*publish.Account, []*publish.Account, error) {
	var (
		dev []*publish.Account
		err error
	)
	if !net.Live {
		if dev, err = DevAccounts(DevMnemonic, DevAccountCount); err != nil {
			return nil, nil, err
		}
	}
	account, err := ResolveAccount(cfg, net, dev)
	if err != nil {
		return nil, nil, err
	}
	return account, dev, nil
}

func attach(ctx context.Context, net Network, backend publish.Backend, closer func() error,
	account *publish.Account, dev []*publish.Account, opts []publish.Option,
) (*Session, error) {
	fail := func(err error) (*Session, error) {
		if closer != nil {
			_ = closer()
		}
		return nil, fmt.Errorf("network %s: %w", net.Name, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return fail(err)
	}
	if net.ChainID != nil && net.ChainID.Cmp(chainID) != 0 {
		return fail(fmt.Errorf("node reports chain id %s, want %s", chainID, net.ChainID))
	}
	net.ChainID = chainID

	clientOpts := []publish.Option{
		publish.WithFees(net.GasFeeCap, net.GasTipCap),
		publish.WithConfirmations(net.Confirmations),
	}
	client := publish.NewClient(backend, chainID, append(clientOpts, opts...)...)
	client.Logger().Info("network ready",
		zap.String("network", net.Name),
		zap.Stringer("chain_id", chainID),
		zap.Bool("live", net.Live),
		zap.Stringer("account", account.Address()))

	return &Session{
		Network: net,
		Client:  client,
		Account: account,
		Dev:     dev,
		close:   closer,
	}, nil
}

func (s *Session) Recipient() (common.Address, error) {
	return ResolveRecipient(s.Network, s.Dev)
}

func (s *Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
