package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"workplanner/internal/config"
	appLog "workplanner/internal/log"
)

var version = "0.1.0-dev"

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "workplanner",
	Short: "Schedule preparation and follow-up work around calendar events",
	Long: `workplanner matches calendar events against assignments and places
their tasks into weekly vacancies, writing the result as an ICS calendar.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Log errors only")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies the log level. CLI flags
// take precedence over log_level.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if errors.Is(err, config.ErrCreated) {
		return nil, errors.Errorf("no config found, a default one was written to %s; edit it and run again", configPath)
	}
	if err != nil {
		return nil, err
	}

	switch {
	case verbose:
		appLog.SetLevel(appLog.LevelDebug)
	case quiet:
		appLog.SetLevel(appLog.LevelError)
	default:
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}

	appLog.Debug("effective config",
		"config_path", configPath,
		"timezone", conf.Timezone,
		"output", conf.Output,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"sources", len(conf.Sources),
		"vacancies", len(conf.Vacancies),
		"assignments", len(conf.Assignments),
	)
	return conf, nil
}
