package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
	"github.com/mineloop99/new-token/publish/contracts/anitoken"
)

type balanceReport struct {
	Network string `json:"network"`
	Token   string `json:"token"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

func newBalanceCmd(g *globals) *cobra.Command {
	var address, mapPath string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Print an address's balance of the newest recorded Aniwar token",
		Long: "Look up the newest AniwarToken for the active chain in the deployment " +
			"map and call balanceOf on it.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if address == "" {
				return fmt.Errorf("--address is required")
			}
			holder, err := publish.ParseAddress(address)
			if err != nil {
				return fmt.Errorf("--address: %w", err)
			}
			path := mapPath
			if path == "" {
				path = artifacts.MapPath(g.BuildDir)
			}
			deployments, err := artifacts.LoadDeploymentMap(path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout())
			defer cancel()

			a, err := openApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.closeInto(&err)

			tokenAddr, err := deployments.Latest(a.client().ChainID(), anitoken.Name())
			if err != nil {
				return err
			}
			balance, err := anitoken.At(a.client(), tokenAddr).BalanceOf(ctx, holder)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), balanceReport{
				Network: a.session.Network.Name,
				Token:   tokenAddr.Hex(),
				Address: holder.Hex(),
				Balance: balance.String(),
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "holder address")
	cmd.Flags().StringVar(&mapPath, "map", "", "deployment map (default <build-dir>/deployments/map.json)")
	return cmd
}
