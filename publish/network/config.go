// Package network resolves the active network from configuration and opens a
// signing session on it.
package network

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	Development   = "development"
	Ropsten       = "ropsten"
	BSCTest       = "bsc-test"
	DefaultConfig = "brownie-config.yaml"
)

var (
	ErrUnknownNetwork    = errors.New("unknown network")
	ErrMissingPrivateKey = errors.New("missing private key")
)

// PublicNetworks sign with the configured private key. Every other network
// uses the development accounts.
var PublicNetworks = []string{Ropsten, BSCTest}

type (
	// NetworkConfig is one entry under networks in the config file. Zero
	// values leave the built-in setting in place.
	NetworkConfig struct {
		Verify         *bool  `yaml:"verify"`
		Recipient      string `yaml:"recipient"`
		Host           string `yaml:"host"`
		ChainID        int64  `yaml:"chainid"`
		Explorer       string `yaml:"explorer"`
		ExplorerAPIKey string `yaml:"explorer_api_key"`
		GasFeeCap      int64  `yaml:"gas_fee_cap"`
		GasTipCap      int64  `yaml:"gas_tip_cap"`
		Confirmations  uint64 `yaml:"confirmations"`
	}

	Wallets struct {
		PrivateKey string `yaml:"private_key"`
	}

	Config struct {
		Default  string
		Networks map[string]NetworkConfig
		Wallets  Wallets
	}

	// Network is the resolved context a command runs against.
	Network struct {
		Name           string
		Live           bool
		ChainID        *big.Int
		Host           string
		Verify         bool
		Recipient      string
		Explorer       string
		ExplorerAPIKey string
		GasFeeCap      *big.Int
		GasTipCap      *big.Int
		Confirmations  uint64
	}

	rawConfig struct {
		Networks map[string]yaml.Node `yaml:"networks"`
		Wallets  Wallets              `yaml:"wallets"`
	}
)

// Builtin holds the networks known without a config file.
var Builtin = map[string]Network{
	Development: {
		Name:    Development,
		ChainID: big.NewInt(1337),
	},
	Ropsten: {
		Name:     Ropsten,
		Live:     true,
		ChainID:  big.NewInt(3),
		Host:     "https://ropsten.infura.io/v3/${WEB3_INFURA_PROJECT_ID}",
		Explorer: "https://api-ropsten.etherscan.io/api",
	},
	BSCTest: {
		Name:     BSCTest,
		Live:     true,
		ChainID:  big.NewInt(97),
		Host:     "https://data-seed-prebsc-1-s1.binance.org:8545",
		Explorer: "https://api-testnet.bscscan.com/api",
	},
}

func IsPublic(name string) bool {
	for _, n := range PublicNetworks {
		if n == name {
			return true
		}
	}
	return false
}

// LoadConfig reads the config file at path, expanding ${VAR} references from
// the environment. A missing file yields an empty config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes a config document. References to ${VAR} are replaced using
// getenv before decoding.
func Parse(data []byte, getenv func(string) string) (Config, error) {
	expanded := os.Expand(string(data), getenv)

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Config{
		Networks: make(map[string]NetworkConfig, len(raw.Networks)),
		Wallets:  raw.Wallets,
	}
	for name, node := range raw.Networks {
		if name == "default" {
			if err := node.Decode(&cfg.Default); err != nil {
				return Config{}, fmt.Errorf("parse config: networks.default: %w", err)
			}
			continue
		}
		var nc NetworkConfig
		if err := node.Decode(&nc); err != nil {
			return Config{}, fmt.Errorf("parse config: networks.%s: %w", name, err)
		}
		cfg.Networks[name] = nc
	}
	return cfg, nil
}

// Active picks the network name to use: an explicit override, then the
// configured default, then development.
func (c Config) Active(override string) string {
	switch {
	case override != "":
		return override
	case c.Default != "":
		return c.Default
	}
	return Development
}

// Names lists every network the config or the built-in table knows.
func (c Config) Names() []string {
	seen := map[string]bool{}
	for name := range Builtin {
		seen[name] = true
	}
	for name := range c.Networks {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Network resolves name against the built-in table and the config file
// entries, the latter taking precedence.
func (c Config) Network(name string) (Network, error) {
	net, builtin := Builtin[name]
	nc, configured := c.Networks[name]
	if !builtin && !configured {
		return Network{}, fmt.Errorf("%w: %s", ErrUnknownNetwork, name)
	}
	if !builtin {
		net = Network{Name: name}
	}
	if net.ChainID != nil {
		net.ChainID = new(big.Int).Set(net.ChainID)
	}
	net.Live = IsPublic(name)
	net.Host = os.Expand(net.Host, os.Getenv)

	if nc.Verify != nil {
		net.Verify = *nc.Verify
	}
	if nc.Recipient != "" {
		net.Recipient = nc.Recipient
	}
	if nc.Host != "" {
		net.Host = nc.Host
	}
	if nc.ChainID != 0 {
		net.ChainID = big.NewInt(nc.ChainID)
	}
	if nc.Explorer != "" {
		net.Explorer = nc.Explorer
	}
	if nc.ExplorerAPIKey != "" {
		net.ExplorerAPIKey = nc.ExplorerAPIKey
	}
	if nc.GasFeeCap != 0 {
		net.GasFeeCap = big.NewInt(nc.GasFeeCap)
	}
	if nc.GasTipCap != 0 {
		net.GasTipCap = big.NewInt(nc.GasTipCap)
	}
	if nc.Confirmations != 0 {
		net.Confirmations = nc.Confirmations
	}
	return net, nil
}
