// Package flows runs the post-deploy checks for the Aniwar contracts: each
// flow deploys fresh contracts, drives them through a scenario and asserts
// the resulting chain state.
package flows

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts"
	"github.com/mineloop99/new-token/publish/contracts/anitoken"
)

var ErrCheckFailed = errors.New("check failed")

const (
	TokenPauseFlow = "token"
	VestingFlow    = "vesting"
	FarmFlow       = "farm"
)

type (
	// Env is what every flow runs with.
	Env struct {
		Client  *publish.Client
		Account *publish.Account
		Deploy  contracts.Options
		Log     *zap.Logger
	}

	Check struct {
		Name   string `json:"name"`
		Passed bool   `json:"passed"`
		Detail string `json:"detail,omitempty"`
	}

	Report struct {
		Flow      string            `json:"flow"`
		Account   string            `json:"account"`
		Contracts map[string]string `json:"contracts"`
		Checks    []Check           `json:"checks"`
	}
)

// Names lists the flows Run accepts.
func Names() []string {
	return []string{TokenPauseFlow, VestingFlow, FarmFlow}
}

// Run dispatches to the named flow.
func Run(ctx context.Context, name string, env Env, recipient common.Address) (*Report, error) {
	switch name {
	case TokenPauseFlow:
		return TokenPause(ctx, env, recipient)
	case VestingFlow:
		return Vesting(ctx, env)
	case FarmFlow:
		return Farm(ctx, env)
	}
	return nil, fmt.Errorf("unknown flow %q", name)
}

func newReport(flow string, env Env) *Report {
	return &Report{
		Flow:      flow,
		Account:   env.Account.Address().Hex(),
		Contracts: map[string]string{},
	}
}

func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return len(r.Checks) > 0
}

func (r *Report) contract(name string, addr common.Address) {
	r.Contracts[name] = addr.Hex()
}

// check records an assertion and returns an error wrapping ErrCheckFailed
// when it does not hold.
func (r *Report) check(log *zap.Logger, name string, ok bool, format string, args ...any) error {
	c := Check{Name: name, Passed: ok}
	if !ok {
		c.Detail = fmt.Sprintf(format, args...)
	}
	r.Checks = append(r.Checks, c)
	if !ok {
		log.Warn("check failed", zap.String("flow", r.Flow), zap.String("check", name), zap.String("detail", c.Detail))
		return fmt.Errorf("%s: %s: %w", r.Flow, name, ErrCheckFailed)
	}
	log.Info("check passed", zap.String("flow", r.Flow), zap.String("check", name))
	return nil
}

func (e Env) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return e.Client.Logger()
}

func deployToken(ctx context.Context, env Env, r *Report) (*anitoken.Token, error) {
	token, err := anitoken.Deploy(ctx, env.Client, env.Account, env.Deploy)
	if token != nil {
		r.contract(anitoken.Name(), token.Address)
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// conserved reports whether the balances of holders add up to the total
// supply.
func conserved(ctx context.Context, token contracts.ERC20, holders ...common.Address) (bool, *big.Int, *big.Int, error) {
	sum := new(big.Int)
	for _, h := range holders {
		b, err := token.BalanceOf(ctx, h)
		if err != nil {
			return false, nil, nil, err
		}
		sum.Add(sum, b)
	}
	supply, err := token.TotalSupply(ctx)
	if err != nil {
		return false, nil, nil, err
	}
	return sum.Cmp(supply) == 0, sum, supply, nil
}
