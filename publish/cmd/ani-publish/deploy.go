package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/contracts/anifarm"
	"github.com/mineloop99/new-token/publish/contracts/anitoken"
	"github.com/mineloop99/new-token/publish/contracts/anivesting"
	"github.com/mineloop99/new-token/publish/contracts/bep20"
)

type deployReport struct {
	Network   string            `json:"network"`
	ChainID   string            `json:"chain_id"`
	Account   string            `json:"account"`
	Contracts map[string]string `json:"contracts"`
}

func newDeployCmd(g *globals) *cobra.Command {
	var contract, token string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy one contract and print its address",
		Long: "Deploy token, bep20, farm or vesting. Farm and vesting take the token " +
			"address from --token, or deploy a fresh token first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			var tokenAddr common.Address
			if token != "" {
				addr, err := publish.ParseAddress(token)
				if err != nil {
					return fmt.Errorf("--token: %w", err)
				}
				tokenAddr = addr
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout())
			defer cancel()

			a, err := openApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.closeInto(&err)

			out := deployReport{
				Network:   a.session.Network.Name,
				ChainID:   a.client().ChainID().String(),
				Account:   a.account().Address().Hex(),
				Contracts: map[string]string{},
			}
			if err := runDeploy(ctx, a, contract, tokenAddr, out.Contracts); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&contract, "contract", envOr("CONTRACT", ""), "contract to deploy: token|bep20|farm|vesting")
	cmd.Flags().StringVar(&token, "token", envOr("TOKEN_ADDRESS", ""), "Aniwar token address for farm and vesting")
	return cmd
}

func runDeploy(ctx context.Context, a *app, contract string, token common.Address, out map[string]string) error {
	c, from := a.client(), a.account()

	needToken := func() (common.Address, error) {
		if token != (common.Address{}) {
			return token, nil
		}
		t, err := anitoken.Deploy(ctx, c, from, a.deploy)
		if t != nil {
			out[anitoken.Name()] = t.Address.Hex()
		}
		if err != nil {
			return common.Address{}, err
		}
		return t.Address, nil
	}

	switch strings.ToLower(strings.TrimSpace(contract)) {
	case "token":
		t, err := anitoken.Deploy(ctx, c, from, a.deploy)
		if t != nil {
			out[anitoken.Name()] = t.Address.Hex()
		}
		return err

	case "bep20":
		t, err := bep20.Deploy(ctx, c, from, a.deploy)
		if t != nil {
			out[bep20.Name()] = t.Address.Hex()
		}
		return err

	case "farm":
		tokenAddr, err := needToken()
		if err != nil {
			return err
		}
		f, err := anifarm.Deploy(ctx, c, from, tokenAddr, a.deploy)
		if f != nil {
			out[anifarm.Name()] = f.Address.Hex()
		}
		return err

	case "vesting":
		tokenAddr, err := needToken()
		if err != nil {
			return err
		}
		v, err := anivesting.Deploy(ctx, c, from, tokenAddr, a.deploy)
		if v != nil {
			out[anivesting.Name()] = v.Address.Hex()
		}
		return err

	case "":
		return fmt.Errorf("--contract is required")
	default:
		return fmt.Errorf("unsupported contract: %s", contract)
	}
}
