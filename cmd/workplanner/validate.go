package main

import (
	"github.com/spf13/cobra"

	"workplanner/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config file and print the resulting plan inputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		plan, err := conf.Build()
		if err != nil {
			return err
		}
		report.NewPrinter(cmd.OutOrStdout()).Plan(conf, plan)
		return nil
	},
}
