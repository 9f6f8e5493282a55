package main

import (
	"context"

	"github.com/spf13/cobra"

	"workplanner/internal/ics"
	"workplanner/internal/metrics"
	"workplanner/internal/pipeline"
	"workplanner/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Recompute the plan on the refresh schedule and serve it over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if serveListen != "" {
		conf.Listen = serveListen
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	fetcher := ics.NewFetcher(conf.CacheDir)
	run := func(ctx context.Context) (*pipeline.Outcome, error) {
		return pipeline.Run(ctx, conf, pipeline.Options{Fetcher: fetcher})
	}

	var collector *metrics.Collector
	if conf.Metrics {
		collector = metrics.NewCollector()
	}

	return web.Serve(cmd.Context(), conf, web.NewServer(conf, run, collector))
}
