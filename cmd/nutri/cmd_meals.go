package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/recommend"
)

func newMealsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meals",
		Short: "List, fill and clear today's meal slots",
	}
	cmd.AddCommand(
		newMealsListCmd(c),
		newMealsAddCmd(c),
		newMealsCustomCmd(c),
		newMealsRemoveCmd(c),
		newMealsClearCmd(c),
	)
	return cmd
}

func newMealsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the four meal slots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			writeMeals(cmd.OutOrStdout(), a.plan.Meals())
			return nil
		},
	}
}

func newMealsAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <slot> <n>",
		Short: "Fill a slot with item n (1-5) of the built-in suggestions",
		Long: `Fills a slot from the built-in suggestion list without calling Gemini.
Run "nutri recommend <slot> --offline" to see the list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := mealplan.ParseSlot(args[0])
			if err != nil {
				return err
			}
			items := recommend.Fallback(slot)
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(items) {
				return fmt.Errorf("item must be between 1 and %d", len(items))
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			food := items[n-1]
			if err := a.plan.Attach(slot, food); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (%d kcal).\n", food.Name, slot, food.Calories)
			return nil
		},
	}
}

func newMealsCustomCmd(c *cli) *cobra.Command {
	var name, calories, protein, carbs, fat string
	cmd := &cobra.Command{
		Use:   "custom <slot>",
		Short: "Fill a slot with your own food",
		Long: `Fills a slot with a custom food. Name and calories are required; macro
values are read as whole numbers and anything unreadable counts as 0.

Example:
  nutri meals custom lunch --name "Chicken wrap" --calories 420 --protein 30`,
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
			food, err := a.plan.AddCustom(slot, name, calories, protein, carbs, fat)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (%d kcal, P %dg, C %dg, F %dg).\n",
				food.Name, slot, food.Calories, food.Protein, food.Carbs, food.Fat)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Food name")
	f.StringVar(&calories, "calories", "", "Calories")
	f.StringVar(&protein, "protein", "", "Protein in grams")
	f.StringVar(&carbs, "carbs", "", "Carbs in grams")
	f.StringVar(&fat, "fat", "", "Fat in grams")
	return cmd
}

func newMealsRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <slot>",
		Aliases: []string{"rm"},
		Short:   "Empty one slot",
		Args:    cobra.ExactArgs(1),
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
			if err := a.plan.Detach(slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s.\n", slot)
			return nil
		},
	}
}

func newMealsClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty every slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			a.plan.ClearAll()
			fmt.Fprintln(cmd.OutOrStdout(), "All meals cleared.")
			return nil
		},
	}
}
