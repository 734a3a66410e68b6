package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show today's totals against your targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := a.plan

			writeMeals(out, p.Meals())
			fmt.Fprintln(out)
			writeStatus(out, p.Totals(), p.Targets(), p.Remaining(), p.Progress())

			if info := p.PersonalInfo(); info != nil {
				fmt.Fprintln(out)
				writeProfile(out, *info)
			} else {
				fmt.Fprintln(out)
				fmt.Fprintln(out, mutedStyle.Render("Using default targets. Run `nutri profile set` for personalized ones."))
			}
			return nil
		},
	}
}
