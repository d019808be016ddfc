package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNoDeployment = errors.New("no recorded deployment")

// DeploymentMap mirrors build/deployments/map.json: chain id -> contract name
// -> addresses, newest first.
type DeploymentMap map[string]map[string][]string

func MapPath(buildDir string) string {
	return filepath.Join(buildDir, "deployments", "map.json")
}

// LoadDeploymentMap returns an empty map when the file does not exist yet.
func LoadDeploymentMap(path string) (DeploymentMap, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DeploymentMap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read deployment map: %w", err)
	}
	m := DeploymentMap{}
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("decode deployment map: %w", err)
	}
	return m, nil
}

func (m DeploymentMap) Record(chainID *big.Int, name string, addr common.Address) {
	key := chainID.String()
	if m[key] == nil {
		m[key] = map[string][]string{}
	}
	m[key][name] = append([]string{addr.Hex()}, m[key][name]...)
}

func (m DeploymentMap) Addresses(chainID *big.Int, name string) []common.Address {
	raw := m[chainID.String()][name]
	out := make([]common.Address, 0, len(raw))
	for _, a := range raw {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

// Latest returns the newest recorded address of name on chainID.
func (m DeploymentMap) Latest(chainID *big.Int, name string) (common.Address, error) {
	addrs := m.Addresses(chainID, name)
	if len(addrs) == 0 {
		return common.Address{}, fmt.Errorf("%s on chain %s: %w", name, chainID, ErrNoDeployment)
	}
	return addrs[0], nil
}

func (m DeploymentMap) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create deployments dir: %w", err)
	}
	blob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("write deployment map: %w", err)
	}
	return nil
}

// Recorder returns a function that appends a deployment to the map at path
// and saves it immediately.
func Recorder(path string, chainID *big.Int) func(name string, addr common.Address) error {
	return func(name string, addr common.Address) error {
		m, err := LoadDeploymentMap(path)
		if err != nil {
			return err
		}
		m.Record(chainID, name, addr)
		return m.Save(path)
	}
}
