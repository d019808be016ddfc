package artifacts

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vestingArtifact = `{
  "contractName": "AniwarVesting",
  "abi": [
    {"type": "constructor", "stateMutability": "nonpayable",
     "inputs": [{"name": "token_", "type": "address", "internalType": "address"}]}
  ],
  "bytecode": "6080604052",
  "compiler": {"version": "0.8.4+commit.c7e474f2", "optimizer": {"enabled": true, "runs": 200}},
  "sourcePath": "contracts/AniwarVesting.sol"
}`

func writeArtifact(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, "contracts", name+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestStoreLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "AniwarVesting", vestingArtifact)

	a, err := NewStore(dir).Load("AniwarVesting")
	require.NoError(t, err)
	assert.Equal(t, "AniwarVesting", a.ContractName)
	assert.Equal(t, "0.8.4+commit.c7e474f2", a.Compiler.Version)
	assert.True(t, a.Compiler.Optimizer.Enabled)
	assert.Equal(t, 200, a.Compiler.Optimizer.Runs)
	assert.Len(t, a.ParsedABI().Constructor.Inputs, 1)
}

func TestStoreLoadMissing(t *testing.T) {
	_, err := NewStore(t.TempDir()).Load("AniwarToken")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeployDataAppendsConstructorArgs(t *testing.T) {
	a, err := Parse([]byte(vestingArtifact))
	require.NoError(t, err)

	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	data, err := a.DeployData(token)
	require.NoError(t, err)

	require.Len(t, data, 5+32)
	assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, data[:5])
	assert.Equal(t, common.LeftPadBytes(token.Bytes(), 32), data[5:])
}

func TestDeployDataRejectsWrongArgs(t *testing.T) {
	a, err := Parse([]byte(vestingArtifact))
	require.NoError(t, err)

	_, err = a.DeployData()
	require.Error(t, err)
}

func TestCodeAcceptsPrefixedHex(t *testing.T) {
	a, err := Parse([]byte(`{"contractName":"X","abi":[],"bytecode":"0x00ff"}`))
	require.NoError(t, err)
	code, err := a.Code()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xff}, code)
}

func TestCodeEmpty(t *testing.T) {
	a, err := Parse([]byte(`{"contractName":"X","abi":[]}`))
	require.NoError(t, err)
	_, err = a.Code()
	assert.ErrorIs(t, err, ErrNoBytecode)
}

func TestDeploymentMapNewestFirst(t *testing.T) {
	path := MapPath(t.TempDir())
	chainID := big.NewInt(97)
	first := common.HexToAddress("0x0000000000000000000000000000000000000001")
	second := common.HexToAddress("0x0000000000000000000000000000000000000002")

	record := Recorder(path, chainID)
	require.NoError(t, record("AniwarToken", first))
	require.NoError(t, record("AniwarToken", second))

	m, err := LoadDeploymentMap(path)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{second, first}, m.Addresses(chainID, "AniwarToken"))
	assert.Empty(t, m.Addresses(big.NewInt(3), "AniwarToken"))

	latest, err := m.Latest(chainID, "AniwarToken")
	require.NoError(t, err)
	assert.Equal(t, second, latest)

	_, err = m.Latest(big.NewInt(3), "AniwarToken")
	assert.ErrorIs(t, err, ErrNoDeployment)
}
