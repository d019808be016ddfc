// Package contracts holds the deploy path shared by the per-contract
// packages beneath it.
package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
	"github.com/mineloop99/new-token/publish/verify"
)

type (
	Verifier interface {
		Verify(ctx context.Context, req verify.Request) error
	}

	// Options carries what a deployment needs beyond the sender: where the
	// compiled artifacts live, whether to publish source, and where to record
	// the new address.
	Options struct {
		Artifacts *artifacts.Store
		Verify    bool
		Verifier  Verifier
		Record    func(name string, addr common.Address) error
	}
)

// Deploy loads the named artifact, deploys it with the constructor args and
// returns a handle to the new contract. When source publication fails after a
// successful deploy the handle is returned together with the error.
func Deploy(ctx context.Context, c *publish.Client, from *publish.Account, name string, gasLimit uint64, opts Options, args ...any) (publish.Contract, error) {
	store := opts.Artifacts
	if store == nil {
		store = artifacts.NewStore("")
	}
	art, err := store.Load(name)
	if err != nil {
		return publish.Contract{}, err
	}
	data, err := art.DeployData(args...)
	if err != nil {
		return publish.Contract{}, err
	}

	result, err := c.Deploy(ctx, from, name, data, gasLimit)
	if err != nil {
		return publish.Contract{}, err
	}
	contract := publish.NewContract(c, result.ContractAddress)

	if opts.Record != nil {
		if err := opts.Record(name, result.ContractAddress); err != nil {
			return contract, fmt.Errorf("record %s deployment: %w", name, err)
		}
	}

	if opts.Verify && opts.Verifier != nil {
		ctorArgs, err := art.ConstructorArgs(args...)
		if err != nil {
			return contract, err
		}
		c.Logger().Info("publishing source", zap.String("contract", name), zap.Stringer("address", result.ContractAddress))
		err = opts.Verifier.Verify(ctx, verify.Request{
			Address:          result.ContractAddress,
			ContractName:     art.ContractName,
			SourceCode:       art.Source,
			CompilerVersion:  art.Compiler.Version,
			OptimizationUsed: art.Compiler.Optimizer.Enabled,
			Runs:             art.Compiler.Optimizer.Runs,
			EVMVersion:       art.Compiler.EVMVersion,
			ConstructorArgs:  ctorArgs,
		})
		if err != nil {
			return contract, fmt.Errorf("verify %s: %w", name, err)
		}
	}

	return contract, nil
}
