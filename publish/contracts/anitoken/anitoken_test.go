package anitoken_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/chaintest"
	"github.com/mineloop99/new-token/publish/contracts"
	"github.com/mineloop99/new-token/publish/contracts/anitoken"
)

func deploy(t *testing.T) (*anitoken.Token, *chaintest.Env) {
	t.Helper()
	ct := chaintest.Setup(t)
	token, err := anitoken.Deploy(context.Background(), ct.Client, ct.Owner, contracts.Options{Artifacts: ct.Store})
	require.NoError(t, err)
	return token, ct
}

func TestDeployMintsSupplyToDeployer(t *testing.T) {
	ctx := context.Background()
	token, ct := deploy(t)

	supply, err := token.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, chaintest.TokenSupply, supply)

	balance, err := token.BalanceOf(ctx, ct.Owner.Address())
	require.NoError(t, err)
	assert.Equal(t, chaintest.TokenSupply, balance)
}

func TestPauseBlocksTransfers(t *testing.T) {
	ctx := context.Background()
	token, ct := deploy(t)
	amount := big.NewInt(5_000_000)

	_, err := token.Pause(ctx, ct.Owner)
	require.NoError(t, err)
	paused, err := token.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	res, err := token.Transfer(ctx, ct.Owner, ct.Other.Address(), amount)
	require.ErrorIs(t, err, publish.ErrReverted)
	assert.Equal(t, publish.TxReverted, res.Status)
	assert.Contains(t, err.Error(), "Pausable: paused")

	_, err = token.Unpause(ctx, ct.Owner)
	require.NoError(t, err)
	res, err = token.Transfer(ctx, ct.Owner, ct.Other.Address(), amount)
	require.NoError(t, err)

	events := token.Transfers(res.Receipt)
	require.Len(t, events, 1)
	assert.Equal(t, ct.Owner.Address(), events[0].From)
	assert.Equal(t, ct.Other.Address(), events[0].To)
	assert.Equal(t, amount, events[0].Value)
}

func TestOnlyOwnerPauses(t *testing.T) {
	token, ct := deploy(t)

	_, err := token.Pause(context.Background(), ct.Other)
	require.ErrorIs(t, err, publish.ErrReverted)
	assert.Contains(t, err.Error(), "caller is not the owner")
}

func TestUnpauseWhenNotPaused(t *testing.T) {
	token, ct := deploy(t)

	_, err := token.Unpause(context.Background(), ct.Owner)
	require.ErrorIs(t, err, publish.ErrReverted)
}

func TestTransfersIgnoresForeignLogs(t *testing.T) {
	ctx := context.Background()
	token, ct := deploy(t)
	other, err := anitoken.Deploy(ctx, ct.Client, ct.Owner, contracts.Options{Artifacts: ct.Store})
	require.NoError(t, err)

	res, err := other.Transfer(ctx, ct.Owner, ct.Other.Address(), big.NewInt(1))
	require.NoError(t, err)
	assert.Empty(t, token.Transfers(res.Receipt))
	assert.Len(t, other.Transfers(res.Receipt), 1)
	assert.Nil(t, token.Transfers(nil))
}
