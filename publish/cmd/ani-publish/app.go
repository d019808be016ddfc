package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
	"github.com/mineloop99/new-token/publish/contracts"
	"github.com/mineloop99/new-token/publish/network"
	"github.com/mineloop99/new-token/publish/verify"
)

// app is everything a chain-facing command needs once flags and config are
// resolved.
type app struct {
	log      *zap.Logger
	session  *network.Session
	registry *prometheus.Registry
	deploy   contracts.Options
	metrics  string
}

func (g *globals) timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return publish.DefaultTimeout
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// resolve loads the config file and returns it with the active network,
// environment overrides applied.
func (g *globals) resolve() (network.Config, network.Network, error) {
	cfg, err := network.LoadConfig(g.Config)
	if err != nil {
		return network.Config{}, network.Network{}, err
	}
	if g.PrivateKey != "" && cfg.Wallets.PrivateKey == "" {
		cfg.Wallets.PrivateKey = g.PrivateKey
	}

	net, err := cfg.Network(cfg.Active(g.Network))
	if err != nil {
		return network.Config{}, network.Network{}, err
	}
	if g.RPCURL != "" {
		net.Host = g.RPCURL
	}
	if g.ExplorerAPIKey != "" && net.ExplorerAPIKey == "" {
		net.ExplorerAPIKey = g.ExplorerAPIKey
	}
	if g.GasFeeCap > 0 {
		net.GasFeeCap = big.NewInt(g.GasFeeCap)
	}
	if g.GasTipCap > 0 {
		net.GasTipCap = big.NewInt(g.GasTipCap)
	}
	return cfg, net, nil
}

func openApp(ctx context.Context, g *globals) (*app, error) {
	log, err := newLogger(g.LogLevel, g.LogFile)
	if err != nil {
		return nil, err
	}

	cfg, net, err := g.resolve()
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := []publish.Option{
		publish.WithTimeout(g.timeout()),
		publish.WithLogger(log),
		publish.WithMetrics(publish.NewMetrics(registry)),
	}
	var session *network.Session
	if g.backend != nil {
		session, err = network.OpenBackend(ctx, cfg, net, g.backend, opts...)
	} else {
		session, err = network.Open(ctx, cfg, net, opts...)
	}
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	a := &app{
		log:      log,
		session:  session,
		registry: registry,
		metrics:  g.MetricsFile,
		deploy:   contracts.Options{Artifacts: artifacts.NewStore(g.BuildDir)},
	}

	net = session.Network
	if net.Live {
		a.deploy.Record = artifacts.Recorder(artifacts.MapPath(g.BuildDir), net.ChainID)
	}
	if net.Verify && net.Live {
		if net.Explorer == "" || net.ExplorerAPIKey == "" {
			_ = a.Close()
			return nil, fmt.Errorf("network %s: source verification needs an explorer url and api key", net.Name)
		}
		a.deploy.Verify = true
		a.deploy.Verifier = verify.NewExplorer(net.Explorer, net.ExplorerAPIKey, verify.WithLogger(log))
	}
	return a, nil
}

func (a *app) client() *publish.Client {
	return a.session.Client
}

func (a *app) account() *publish.Account {
	return a.session.Account
}

// closeInto closes a and joins any close error into *err.
func (a *app) closeInto(err *error) {
	*err = errors.Join(*err, a.Close())
}

// Close releases the connection and flushes metrics and logs.
func (a *app) Close() error {
	var errs []error
	if err := a.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	if a.metrics != "" {
		if err := prometheus.WriteToTextfile(a.metrics, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	_ = a.log.Sync()
	return errors.Join(errs...)
}
