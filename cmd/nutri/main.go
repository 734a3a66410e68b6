// Command nutri tracks the day's four meals against personalized calorie and
// macro targets and suggests meals through Gemini.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nutriplan/internal/config"
	"nutriplan/internal/logging"
)

// cli holds global flag values and the lazily opened application.
type cli struct {
	configPath string
	dbPath     string
	verbose    bool
	ephemeral  bool
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
	app    *app
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "nutri",
		Short: "Daily meal planner with personalized nutrition targets",
		Long: `nutri keeps four meal slots for the day (breakfast, lunch, snacks, dinner),
totals their calories and macros, and compares them with targets computed from
your profile (Mifflin-St Jeor BMR, activity multiplier and goal adjustment).

With a Gemini API key it suggests five meals per slot; without one it can fall
back to a built-in list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", config.DefaultConfigPath(), "Config file")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Database path (overrides config and NUTRI_DB)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 45*time.Second, "Operation timeout")
	root.PersistentFlags().BoolVar(&c.ephemeral, "ephemeral", false, "Keep data in memory only")

	root.AddCommand(
		newProfileCmd(c),
		newMealsCmd(c),
		newStatusCmd(c),
		newRecommendCmd(c),
		newAPIKeyCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newStatsCmd(c),
		newResetCmd(c),
		newServeCmd(c),
		newVersionCmd(c),
	)
	return root
}

// setup loads .env and the config file, then initializes logging.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env", filepath.Join(config.DefaultDir(), ".env")); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.Storage.DatabasePath = c.dbPath
	}
	if c.verbose {
		cfg.Logging.Level = "debug"
	} else if cmd.Name() != "serve" && cfg.Logging.Level == "info" {
		// One-shot commands print their own results.
		cfg.Logging.Level = "warn"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logging.Base()
	logging.BootDebug("config loaded from %s", c.configPath)
	return nil
}

// context returns a context bounded by --timeout.
func (c *cli) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// shutdown flushes pending writes and closes storage.
func (c *cli) shutdown() {
	defer logging.CloseAll()
	if c.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.app.Close(ctx); err != nil {
		logging.Get(logging.CategoryBoot).Error("shutdown: %v", err)
	}
	c.app = nil
}

func run(args []string, stdout, stderr io.Writer) int {
	c := &cli{}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	c.shutdown()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
