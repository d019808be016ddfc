package flows

import (
	"context"
	"math/big"

	"github.com/mineloop99/new-token/publish/contracts/anivesting"
)

const (
	VestingAmount   = 500
	VestingDuration = 30
)

// Vesting deploys a token and a vesting contract for it, funds the vesting
// contract and checks that a schedule created for the owner reads back as
// written.
func Vesting(ctx context.Context, env Env) (*Report, error) {
	log := env.logger()
	r := newReport(VestingFlow, env)
	owner := env.Account.Address()
	amount := big.NewInt(VestingAmount)
	duration := big.NewInt(VestingDuration)

	token, err := deployToken(ctx, env, r)
	if err != nil {
		return r, err
	}
	vesting, err := anivesting.Deploy(ctx, env.Client, env.Account, token.Address, env.Deploy)
	if vesting != nil {
		r.contract(anivesting.Name(), vesting.Address)
	}
	if err != nil {
		return r, err
	}

	if _, err := token.Transfer(ctx, env.Account, vesting.Address, amount); err != nil {
		return r, err
	}
	ok, sum, supply, err := conserved(ctx, token.ERC20, owner, vesting.Address)
	if err != nil {
		return r, err
	}
	if err := r.check(log, "supply conserved", ok,
		"balances sum to %s, total supply %s", sum, supply); err != nil {
		return r, err
	}

	if _, err := vesting.CreateVestingSchedule(ctx, env.Account, owner, duration, amount); err != nil {
		return r, err
	}
	got, err := vesting.ScheduleByAddressAndIndex(ctx, owner, 0)
	if err != nil {
		return r, err
	}
	want := anivesting.Schedule{
		Beneficiary:    owner,
		Start:          new(big.Int),
		End:            new(big.Int),
		Duration:       duration,
		AmountReleased: amount,
	}
	if err := r.check(log, "schedule stored", got.Equal(want),
		"got %+v, want %+v", got, want); err != nil {
		return r, err
	}
	return r, nil
}
