package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nutriplan/internal/nutrition"
)

func newProfileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your personal information and targets",
	}
	cmd.AddCommand(newProfileSetCmd(c), newProfileShowCmd(c), newProfileClearCmd(c))
	return cmd
}

func newProfileSetCmd(c *cli) *cobra.Command {
	var (
		info         nutrition.PersonalInfo
		gender       string
		activity     string
		goal         string
		restrictions []string
		allergies    []string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save your profile and compute daily targets",
		Long: `Saves your profile and derives a daily calorie target from it.

Activity levels: ` + joinValues(nutrition.ActivityLevels) + `
Goals: ` + joinValues(nutrition.Goals) + `

Example:
  nutri profile set --name Sam --age 30 --gender male --weight 80 --height 180 \
    --activity moderately_active --goal lose_weight --restriction Vegetarian`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}

			info.Gender = nutrition.Gender(strings.ToLower(gender))
			info.ActivityLevel = nutrition.ActivityLevel(strings.ToLower(activity))
			info.Goal = nutrition.Goal(strings.ToLower(goal))
			info.DietaryRestrictions = restrictions
			info.Allergies = allergies

			saved, err := a.plan.SavePersonalInfo(ctx, info)
			if err != nil {
				return err
			}
			if err := a.repo.SetFirstTimeUser(ctx, false); err != nil {
				return err
			}
			writeProfile(cmd.OutOrStdout(), saved)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&info.Name, "name", "", "Your name")
	f.IntVar(&info.Age, "age", 0, "Age in years")
	f.StringVar(&gender, "gender", "", "male, female or other")
	f.Float64Var(&info.Weight, "weight", 0, "Weight in kg")
	f.Float64Var(&info.Height, "height", 0, "Height in cm")
	f.StringVar(&activity, "activity", "", "Activity level")
	f.StringVar(&goal, "goal", "", "Fitness goal")
	f.StringSliceVar(&restrictions, "restriction", nil, "Dietary restriction (repeatable)")
	f.StringSliceVar(&allergies, "allergy", nil, "Allergy (repeatable)")
	return cmd
}

func newProfileShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile and targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			info := a.plan.PersonalInfo()
			if info == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile yet. Run `nutri profile set` to get personalized targets.")
				return nil
			}
			writeProfile(cmd.OutOrStdout(), *info)
			return nil
		},
	}
}

func newProfileClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete your profile; targets revert to the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			if err := a.plan.ClearPersonalInfo(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile cleared.")
			return nil
		},
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
