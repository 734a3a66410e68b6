package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/recommend"
)

func newRecommendCmd(c *cli) *cobra.Command {
	var (
		pick    int
		offline bool
		plain   bool
	)
	cmd := &cobra.Command{
		Use:   "recommend <slot>",
		Short: "Suggest five meals for a slot",
		Long: `Asks Gemini for five meals that fit your profile and what you have eaten
today. When the service is busy or fails, the built-in list is shown instead.

Use --pick N to put suggestion N into the slot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := mealplan.ParseSlot(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}

			res, err := a.rec.Recommend(ctx, recommend.Request{
				Profile:      a.plan.PersonalInfo(),
				Slot:         slot,
				Meals:        a.plan.Meals(),
				AllowOffline: offline,
			})
			switch {
			case errors.Is(err, recommend.ErrProfileRequired):
				return fmt.Errorf("profile setup required: %w (run `nutri profile set`)", err)
			case errors.Is(err, recommend.ErrAPIKeyMissing):
				return fmt.Errorf("API key required: %w (run `nutri apikey set <key>` or pass --offline)", err)
			case errors.Is(err, recommend.ErrAPIKeyInvalid):
				return fmt.Errorf("API key error: check your key with `nutri apikey set`: %w", err)
			case err != nil:
				return err
			}

			out := cmd.OutOrStdout()
			if res.Degraded() {
				fmt.Fprintln(out, warnStyle.Render("Showing built-in suggestions: "+res.Reason.Error()))
			}
			md := recommendationsMarkdown(slot, res.Items)
			if plain {
				fmt.Fprint(out, md)
			} else {
				fmt.Fprint(out, renderMarkdown(md))
			}

			if pick == 0 {
				return nil
			}
			if pick < 1 || pick > len(res.Items) {
				return fmt.Errorf("--pick must be between 1 and %d", len(res.Items))
			}
			food := res.Items[pick-1]
			if err := a.plan.Attach(slot, food); err != nil {
				return err
			}
			fmt.Fprintf(out, "Added %s to %s.\n", food.Name, slot)
			return nil
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "Add suggestion N to the slot")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the built-in list when no API key is set")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print markdown without terminal styling")
	return cmd
}
