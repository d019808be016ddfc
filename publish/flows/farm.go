package flows

import (
	"context"

	"github.com/mineloop99/new-token/publish/contracts/anifarm"
)

// Farm deploys a token and a farm rewarding in it, then allows the token for
// staking and reads the allowance back.
func Farm(ctx context.Context, env Env) (*Report, error) {
	log := env.logger()
	r := newReport(FarmFlow, env)

	token, err := deployToken(ctx, env, r)
	if err != nil {
		return r, err
	}
	farm, err := anifarm.Deploy(ctx, env.Client, env.Account, token.Address, env.Deploy)
	if farm != nil {
		r.contract(anifarm.Name(), farm.Address)
	}
	if err != nil {
		return r, err
	}

	if _, err := farm.AddAllowedTokens(ctx, env.Account, token.Address); err != nil {
		return r, err
	}
	allowed, err := farm.AllowedToken(ctx, 0)
	if err != nil {
		return r, err
	}
	if err := r.check(log, "token allowed", allowed == token.Address,
		"allowedTokens(0) = %s, want %s", allowed.Hex(), token.Address.Hex()); err != nil {
		return r, err
	}
	return r, nil
}
