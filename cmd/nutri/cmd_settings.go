package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nutriplan/internal/recommend"
	"nutriplan/internal/store"
)

func newAPIKeyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the Gemini API key",
		Long: `Manages the stored Gemini API key. A key in the config file or the
GEMINI_API_KEY environment variable takes precedence over the stored one.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key|->",
			Short: "Store a key (use - to read it from stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key := args[0]
				if key == "-" {
					line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if err != nil && !errors.Is(err, io.EOF) {
						return err
					}
					key = line
				}
				key = strings.TrimSpace(key)

				ctx, cancel := c.context(cmd)
				defer cancel()
				a, err := c.open(ctx)
				if err != nil {
					return err
				}
				if err := a.keys.Save(ctx, key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.context(cmd)
				defer cancel()
				a, err := c.open(ctx)
				if err != nil {
					return err
				}
				if err := a.keys.Clear(ctx); errors.Is(err, recommend.ErrKeyStorage) {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key cleared.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether live recommendations are available",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := c.context(cmd)
				defer cancel()
				a, err := c.open(ctx)
				if err != nil {
					return err
				}
				if !a.rec.HasAPIKey() {
					fmt.Fprintln(cmd.OutOrStdout(), "No API key configured; recommendations need --offline.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "API key configured (from %s), model %s.\n", a.keys.Source(), a.cfg.Load().LLM.Model)
				return nil
			},
		},
	)
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a JSON backup of your profile and meals",
		Long:  "Writes a JSON backup to file, or to stdout. The API key itself is never exported.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			if err := a.plan.Flush(ctx); err != nil {
				return err
			}
			data, err := json.MarshalIndent(a.repo.Export(ctx), "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s.\n", args[0])
			return nil
		},
	}
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a JSON backup",
		Long:  "Restores the parts present in the backup. Missing parts are left as they are.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var data store.ImportData
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("invalid backup: %w", err)
			}
			if data.PersonalInfo != nil {
				done, err := data.PersonalInfo.Complete()
				if err != nil {
					return fmt.Errorf("invalid backup profile: %w", err)
				}
				data.PersonalInfo = &done
			}

			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			if err := a.plan.Flush(ctx); err != nil {
				return err
			}
			if err := a.repo.Import(ctx, data); err != nil {
				return err
			}
			a.plan.Load(ctx)
			a.activateKey(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s.\n", args[0])
			return nil
		},
	}
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show which records are stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			if err := a.plan.Flush(ctx); err != nil {
				return err
			}
			s := a.repo.Stats(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Storage"))
			fmt.Fprintf(out, "  %s %v\n", labelStyle.Render("Profile"), s.HasPersonalInfo)
			fmt.Fprintf(out, "  %s %v\n", labelStyle.Render("Meals"), s.HasMeals)
			fmt.Fprintf(out, "  %s %v\n", labelStyle.Render("API key"), s.HasAPIKey)
			fmt.Fprintf(out, "  %s %v\n", labelStyle.Render("First run"), s.IsFirstTime)
			return nil
		},
	}
}

func newResetCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes your profile, meals and API key; pass --yes to confirm")
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			if err := a.plan.Flush(ctx); err != nil {
				return err
			}
			if err := a.repo.ClearAll(ctx); err != nil {
				return err
			}
			a.plan.ClearAll()
			if err := a.plan.ClearPersonalInfo(ctx); err != nil {
				return err
			}
			if err := a.plan.Flush(ctx); err != nil {
				return err
			}
			if err := a.repo.ClearMeals(ctx); err != nil {
				return err
			}
			a.activateKey(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "All data deleted.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
