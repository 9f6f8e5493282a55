// Package pipeline runs one planning pass: load the calendar sources, expand
// their events over the planning window, schedule the tasks and write the
// resulting calendar.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"workplanner/internal/config"
	"workplanner/internal/ics"
	appLog "workplanner/internal/log"
	"workplanner/internal/model"
	"workplanner/internal/planner"
)

// ErrNoSources is returned when not a single source could be loaded.
var ErrNoSources = errors.New("no calendar source could be loaded")

// Options controls a single Run.
type Options struct {
	// Now is the reference time of the run. It anchors the planning window
	// and is written as DTSTAMP. Zero means time.Now().
	Now time.Time

	// Fetcher loads the sources. Nil creates one on cfg.CacheDir.
	Fetcher *ics.Fetcher

	// DryRun skips writing the output file.
	DryRun bool

	// Reporter overrides the log based reporter.
	Reporter planner.Reporter
}

// Outcome is the result of one Run.
type Outcome struct {
	planner.Result

	// Output is the path the calendar was written to; empty on dry runs.
	Output string

	StartedAt time.Time
	Duration  time.Duration

	// Window is the range events were expanded over.
	WindowStart time.Time
	WindowEnd   time.Time

	Sources       int
	FailedSources int
	// TruncatedEvents lists UIDs whose recurrence expansion hit the cap.
	TruncatedEvents []string

	// Options used to write the calendar, kept so the entries can be
	// re-serialized byte-identically (e.g. by the HTTP server).
	Write ics.WriteOptions
}

// Run executes the full pipeline for cfg.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Outcome, error) {
	plan, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(plan.Location)

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = ics.NewFetcher(cfg.CacheDir)
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = LogReporter{}
	}

	out := &Outcome{
		StartedAt:   now,
		WindowStart: now.AddDate(0, 0, -cfg.BackfillDays),
		WindowEnd:   now.AddDate(0, 0, cfg.HorizonDays),
		Sources:     len(plan.Sources),
		Write: ics.WriteOptions{
			Name:  cfg.Name,
			Stamp: now,
		},
	}
	if plan.Location != time.Local {
		out.Write.Timezone = plan.Location.String()
	}
	began := time.Now()

	appLog.Info("pipeline: start",
		"sources", len(plan.Sources),
		"vacancies", len(plan.Vacancies),
		"assignments", len(plan.Assignments),
		"window_start", out.WindowStart.Format(time.RFC3339),
		"window_end", out.WindowEnd.Format(time.RFC3339),
	)

	fetched, errs := fetcher.FetchAll(ctx, plan.Sources)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out.FailedSources = len(errs)

	sched := planner.New(plan.Vacancies, plan.Assignments, planner.Options{
		MissingMarker: cfg.MissingMarker,
		Reporter:      reporter,
	})

	loaded := 0
	for _, fr := range fetched {
		events, truncated, err := expandSource(fr, plan.Location, out.WindowStart, out.WindowEnd)
		if err != nil {
			out.FailedSources++
			appLog.Error("pipeline: source skipped", err, "source", fr.Source.String())
			continue
		}
		loaded++
		out.TruncatedEvents = append(out.TruncatedEvents, truncated...)

		appLog.Debug("pipeline: source loaded",
			"source", fr.Source.ID,
			"events", len(events),
			"from_cache", fr.FromCache,
		)
		if err := sched.Ingest(events); err != nil {
			return nil, errors.Wrapf(err, "ingest %s", fr.Source.ID)
		}
	}
	if loaded == 0 {
		return nil, errors.WithStack(ErrNoSources)
	}

	res, err := sched.Run()
	if err != nil {
		return nil, errors.Wrap(err, "schedule")
	}
	out.Result = res

	if !opts.DryRun {
		out.Output = cfg.Output
		if err := ics.WriteFile(cfg.Output, res.Entries, out.Write); err != nil {
			return nil, errors.Wrap(err, "write calendar")
		}
	}
	out.Duration = time.Since(began)

	appLog.Info("pipeline: done",
		"entries", len(res.Entries),
		"links", res.Stats.Links,
		"allocated_hours", res.Stats.AllocatedHours,
		"deficit_hours", res.Stats.DeficitHours,
		"output", out.Output,
		"duration", out.Duration.String(),
	)
	return out, nil
}

func expandSource(fr ics.FetchResult, loc *time.Location, from, to time.Time) ([]model.Event, []string, error) {
	parsed, err := ics.ParseICS(fr.Source, fr.Body)
	if err != nil {
		return nil, nil, err
	}
	expanded, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		Location:   loc,
		RangeStart: from,
		RangeEnd:   to,
	})
	if err != nil {
		return nil, nil, err
	}
	return expanded.Events, expanded.TruncatedEvents, nil
}

// LogReporter writes run conditions to the application log.
type LogReporter struct{}

func (LogReporter) NothingMatched() {
	appLog.Warn("No assignments are matching any of the given events!")
}

func (LogReporter) NoEntries() {
	appLog.Warn("No events has been generated!")
}

func (LogReporter) Deficit(d planner.Deficit) {
	appLog.Warn(fmt.Sprintf("Missing vacancy (%dh) for %s %s", d.Hours, d.Task, d.EventStart.Format(time.RFC3339)),
		"event", d.EventKey,
	)
}
