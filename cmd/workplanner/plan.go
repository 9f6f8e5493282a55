package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"workplanner/internal/pipeline"
	"workplanner/internal/report"
)

var (
	planDryRun bool
	planNow    string
	planOutput string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the plan once and write the output calendar",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planDryRun, "dry-run", false, "Print the plan without writing the output file")
	planCmd.Flags().StringVar(&planNow, "now", "", "Reference time (RFC 3339) instead of the current time")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "", "Output path (overrides config)")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if planOutput != "" {
		conf.Output = planOutput
	}

	var now time.Time
	if planNow != "" {
		now, err = time.Parse(time.RFC3339, planNow)
		if err != nil {
			return errors.Wrap(err, "--now")
		}
	}

	out, err := pipeline.Run(cmd.Context(), conf, pipeline.Options{
		Now:    now,
		DryRun: planDryRun,
	})
	if err != nil {
		return err
	}

	report.NewPrinter(cmd.OutOrStdout()).Outcome(out)
	return nil
}
