package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
	"github.com/mineloop99/new-token/publish/opensea"
)

func newCopyArtifactsCmd() *cobra.Command {
	var src, dst string
	cmd := &cobra.Command{
		Use:   "copy-artifacts",
		Short: "Replace the back end's chain-info with the current build output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := artifacts.CopyTree(src, dst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "copied %s to %s\n", src, dst)
			return nil
		},
	}
	cmd.Flags().StringVar(&src, "src", artifacts.DefaultBuildDir, "source tree")
	cmd.Flags().StringVar(&dst, "dst", artifacts.DefaultChainInfo, "destination tree, removed first")
	return cmd
}

func newOpenSeaURLCmd() *cobra.Command {
	var contract, tokenID string
	cmd := &cobra.Command{
		Use:   "opensea-url",
		Short: "Print the testnet marketplace URL of an NFT",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := opensea.DefaultContract
			if contract != "" {
				a, err := publish.ParseAddress(contract)
				if err != nil {
					return fmt.Errorf("--contract: %w", err)
				}
				addr = a
			}
			id, ok := new(big.Int).SetString(tokenID, 10)
			if !ok || id.Sign() < 0 {
				return fmt.Errorf("--token-id: invalid token id %q", tokenID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), opensea.AssetURL(addr, id))
			return nil
		},
	}
	cmd.Flags().StringVar(&contract, "contract", "", "NFT contract address (default zero address)")
	cmd.Flags().StringVar(&tokenID, "token-id", "0", "token id")
	return cmd
}

type accountReport struct {
	Network string `json:"network"`
	Live    bool   `json:"live"`
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func newAccountCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "account",
		Short: "Print the signing account of the active network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout())
			defer cancel()

			a, err := openApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.closeInto(&err)

			balance, err := a.client().BalanceAt(ctx, a.account().Address())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), accountReport{
				Network: a.session.Network.Name,
				Live:    a.session.Network.Live,
				Account: a.account().Address().Hex(),
				Balance: balance.String(),
			})
		},
	}
}
