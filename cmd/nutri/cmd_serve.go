package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nutriplan/internal/config"
	"nutriplan/internal/logging"
	"nutriplan/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API",
		Long: `Serves the meal plan, profile, recommendations and backups over HTTP.
The config file is watched; a changed model or API key takes effect without a
restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := c.open(ctx)
			if err != nil {
				return err
			}

			if watch {
				w, err := config.NewWatcher(c.configPath, func(cfg *config.Config) {
					if c.dbPath != "" {
						cfg.Storage.DatabasePath = c.dbPath
					}
					a.reload(ctx, cfg)
				})
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					logging.Get(logging.CategoryConfig).Warn("Config watching disabled: %v", err)
				} else {
					defer w.Stop()
				}
			}

			opts := server.OptionsFromConfig(c.cfg)
			if addr != "" {
				opts.Addr = addr
			}
			logging.Boot("nutri %s serving (live recommendations: %v)", c.cfg.Version, a.rec.HasAPIKey())
			return server.New(a.plan, a.repo, a.rec, a.keys, opts).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reload the config file when it changes")
	return cmd
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.cfg.Name, c.cfg.Version)
			return nil
		},
	}
}

