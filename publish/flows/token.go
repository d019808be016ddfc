package flows

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mineloop99/new-token/publish"
)

// TransferAmount is the token amount (base units) sent to the recipient.
const TransferAmount = 5_000_000

// TokenPause deploys a token, checks that a transfer reverts while the token
// is paused and leaves balances untouched, then unpauses and checks that the
// same transfer goes through.
func TokenPause(ctx context.Context, env Env, recipient common.Address) (*Report, error) {
	log := env.logger()
	r := newReport(TokenPauseFlow, env)
	owner := env.Account.Address()
	amount := big.NewInt(TransferAmount)

	token, err := deployToken(ctx, env, r)
	if err != nil {
		return r, err
	}

	if _, err := token.Pause(ctx, env.Account); err != nil {
		return r, err
	}
	before, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return r, err
	}
	_, err = token.Transfer(ctx, env.Account, recipient, amount)
	if err != nil && !errors.Is(err, publish.ErrReverted) {
		return r, err
	}
	reverted := err != nil
	if err := r.check(log, "transfer reverts while paused", reverted,
		"transfer of %s to %s succeeded on a paused token", amount, recipient.Hex()); err != nil {
		return r, err
	}
	after, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return r, err
	}
	if err := r.check(log, "balance unchanged while paused", after.Cmp(before) == 0,
		"balance went from %s to %s", before, after); err != nil {
		return r, err
	}

	if _, err := token.Unpause(ctx, env.Account); err != nil {
		return r, err
	}
	res, err := token.Transfer(ctx, env.Account, recipient, amount)
	if err != nil {
		return r, err
	}
	after, err = token.BalanceOf(ctx, owner)
	if err != nil {
		return r, err
	}
	if err := r.check(log, "balance decreases after unpause", after.Cmp(before) < 0,
		"balance went from %s to %s", before, after); err != nil {
		return r, err
	}

	events := token.Transfers(res.Receipt)
	emitted := len(events) == 1 && events[0].From == owner && events[0].To == recipient && events[0].Value.Cmp(amount) == 0
	if err := r.check(log, "transfer event emitted", emitted, "got %d transfer events", len(events)); err != nil {
		return r, err
	}

	if recipient != owner {
		ok, sum, supply, err := conserved(ctx, token.ERC20, owner, recipient)
		if err != nil {
			return r, err
		}
		if err := r.check(log, "supply conserved", ok,
			"balances sum to %s, total supply %s", sum, supply); err != nil {
			return r, err
		}
	}
	return r, nil
}
