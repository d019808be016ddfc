package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mineloop99/new-token/publish/flows"
)

func newCheckCmd(g *globals) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:       "check <" + strings.Join(flows.Names(), "|") + ">",
		Short:     "Deploy fresh contracts and run a check flow against them",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: flows.Names(),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout())
			defer cancel()

			a, err := openApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.closeInto(&err)

			env := flows.Env{
				Client:  a.client(),
				Account: a.account(),
				Deploy:  a.deploy,
				Log:     a.log,
			}
			var recipient = a.account().Address()
			if args[0] == flows.TokenPauseFlow {
				if recipient, err = a.session.Recipient(); err != nil {
					return err
				}
			}

			report, runErr := flows.Run(ctx, args[0], env, recipient)
			if report != nil {
				if asJSON {
					if err := printJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					printChecks(cmd.OutOrStdout(), report)
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printChecks(w io.Writer, r *flows.Report) {
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	names := make([]string, 0, len(r.Contracts))
	for name := range r.Contracts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-14s %s\n", name, r.Contracts[name])
	}
	for _, c := range r.Checks {
		if c.Passed {
			fmt.Fprintf(w, "%s %s\n", pass("PASS"), c.Name)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s\n", fail("FAIL"), c.Name, c.Detail)
	}
}
