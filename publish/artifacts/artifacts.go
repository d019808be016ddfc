// Package artifacts reads compiled contract build output and hands it off to
// consumers outside the build tree.
package artifacts

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	DefaultBuildDir  = "build"
	DefaultChainInfo = "back_end/chain-info"
	contractsDir     = "contracts"
)

var ErrNoBytecode = errors.New("artifact has no bytecode")

type (
	Optimizer struct {
		Enabled bool `json:"enabled"`
		Runs    int  `json:"runs"`
	}

	Compiler struct {
		Version    string    `json:"version"`
		EVMVersion string    `json:"evm_version"`
		Optimizer  Optimizer `json:"optimizer"`
	}

	// Artifact is one build/contracts/<Name>.json file.
	Artifact struct {
		ContractName     string          `json:"contractName"`
		ABI              json.RawMessage `json:"abi"`
		Bytecode         string          `json:"bytecode"`
		DeployedBytecode string          `json:"deployedBytecode"`
		Source           string          `json:"source"`
		SourcePath       string          `json:"sourcePath"`
		Compiler         Compiler        `json:"compiler"`

		parsed abi.ABI
	}

	Store struct {
		dir string
	}
)

func NewStore(buildDir string) *Store {
	if buildDir == "" {
		buildDir = DefaultBuildDir
	}
	return &Store{dir: buildDir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, contractsDir, name+".json")
}

// Load reads and parses the artifact for the named contract.
func (s *Store) Load(name string) (*Artifact, error) {
	blob, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s artifact: %w", name, err)
	}
	return Parse(blob)
}

func Parse(blob []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	abiJSON := a.ABI
	if len(abiJSON) == 0 {
		abiJSON = json.RawMessage("[]")
	}
	parsed, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return nil, fmt.Errorf("parse %s abi: %w", a.ContractName, err)
	}
	a.parsed = parsed
	return &a, nil
}

func (a *Artifact) ParsedABI() abi.ABI {
	return a.parsed
}

// Code returns the creation bytecode.
func (a *Artifact) Code() ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(a.Bytecode), "0x")
	if s == "" {
		return nil, fmt.Errorf("%s: %w", a.ContractName, ErrNoBytecode)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s bytecode: %w", a.ContractName, err)
	}
	return b, nil
}

// ConstructorArgs ABI-encodes args against the artifact's constructor.
func (a *Artifact) ConstructorArgs(args ...any) ([]byte, error) {
	packed, err := a.parsed.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s constructor: %w", a.ContractName, err)
	}
	return packed, nil
}

// DeployData is the creation bytecode followed by the encoded constructor
// arguments.
func (a *Artifact) DeployData(args ...any) ([]byte, error) {
	code, err := a.Code()
	if err != nil {
		return nil, err
	}
	packed, err := a.ConstructorArgs(args...)
	if err != nil {
		return nil, err
	}
	return append(code, packed...), nil
}
