// Package metrics exposes planning runs as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"workplanner/internal/pipeline"
)

// Collector holds the planner metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastSuccess    prometheus.Gauge
	entries        prometheus.Gauge
	links          prometheus.Gauge
	allocatedHours prometheus.Gauge
	deficitHours   prometheus.Gauge
	deficits       prometheus.Gauge
	failedSources  prometheus.Gauge
}

// NewCollector creates a Collector. Go runtime and process metrics are
// registered alongside the planner metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workplanner_runs_total",
			Help: "Planning runs by result",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workplanner_run_duration_seconds",
			Help:    "Duration of successful planning runs",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_entries",
			Help: "Entries produced by the last successful run",
		}),
		links: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_matched_events",
			Help: "Event/assignment matches of the last successful run",
		}),
		allocatedHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_allocated_hours",
			Help: "Task hours placed into vacancies by the last successful run",
		}),
		deficitHours: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_deficit_hours",
			Help: "Task hours that found no vacancy in the last successful run",
		}),
		deficits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_deficits",
			Help: "Tasks that could not be fully placed in the last successful run",
		}),
		failedSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "workplanner_failed_sources",
			Help: "Calendar sources skipped by the last successful run",
		}),
	}

	c.registry.MustRegister(
		c.runs,
		c.runDuration,
		c.lastSuccess,
		c.entries,
		c.links,
		c.allocatedHours,
		c.deficitHours,
		c.deficits,
		c.failedSources,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.runs.WithLabelValues("success")
	c.runs.WithLabelValues("failure")
	return c
}

// RecordRun updates the metrics from a successful run.
func (c *Collector) RecordRun(out *pipeline.Outcome) {
	c.runs.WithLabelValues("success").Inc()
	c.runDuration.Observe(out.Duration.Seconds())
	c.lastSuccess.Set(float64(out.StartedAt.Unix()))
	c.entries.Set(float64(len(out.Entries)))
	c.links.Set(float64(out.Stats.Links))
	c.allocatedHours.Set(float64(out.Stats.AllocatedHours))
	c.deficitHours.Set(float64(out.Stats.DeficitHours))
	c.deficits.Set(float64(len(out.Deficits)))
	c.failedSources.Set(float64(out.FailedSources))
}

// RecordFailure counts a run that returned an error.
func (c *Collector) RecordFailure() {
	c.runs.WithLabelValues("failure").Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
