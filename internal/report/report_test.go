package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workplanner/internal/config"
	"workplanner/internal/model"
	"workplanner/internal/pipeline"
	"workplanner/internal/planner"
)

func TestPrinter_Outcome(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	out := &pipeline.Outcome{
		Result: planner.Result{
			Entries: []model.Entry{
				{Start: start, End: start.Add(2 * time.Hour), Label: "Read 1/2"},
				{Start: start.AddDate(0, 0, 9), End: start.AddDate(0, 0, 9).Add(time.Hour), Label: "[missing] Read 2/2", Deficit: true},
			},
			Deficits: []planner.Deficit{{Task: "Read", Hours: 1, EventStart: start.AddDate(0, 0, 9)}},
			Stats:    planner.Stats{Events: 4, Confirmed: 3, Links: 1, AllocatedHours: 2, DeficitHours: 1},
		},
		Output:  "out.ics",
		Sources: 2,
	}

	var buf bytes.Buffer
	NewPrinter(&buf).Outcome(out)
	s := buf.String()

	assert.Contains(t, s, "Mon 2026-03-02 08:00")
	assert.Contains(t, s, "Read 1/2")
	assert.Contains(t, s, "[missing] Read 2/2")
	assert.Contains(t, s, "Missing vacancy (1h) for Read Wed 2026-03-11 08:00")
	assert.Contains(t, s, "4 events (3 confirmed), 1 matched, 2h allocated, 1h missing, 0/2 sources failed")
	assert.Contains(t, s, "Events have been calculated and stored in out.ics")
	assert.NotContains(t, s, "\x1b[", "no colors on a plain writer")
}

func TestPrinter_OutcomeWithoutEntries(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Outcome(&pipeline.Outcome{})

	assert.NotContains(t, buf.String(), "START")
	assert.Contains(t, buf.String(), "dry run")
}

func TestPrinter_Plan(t *testing.T) {
	cfg, err := config.Parse([]byte(`
name: Semester
timezone: UTC
sources:
  - {id: a, url: https://example.org/a.ics}
vacancies:
  - {day: 3, from: "13:00", to: "17:00"}
  - {day: 1, from: "08:00", to: "12:00", priority: 1}
assignments:
  - pattern: "Course A.*"
    travel_hours: 1
    tasks:
      - {name: Prepare, type: before, hours: 3}
      - {name: Review, type: after, hours: 1}
`))
	require.NoError(t, err)
	plan, err := cfg.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	NewPrinter(&buf).Plan(cfg, plan)
	s := buf.String()

	assert.Contains(t, s, "Semester (UTC)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Mon 08:00-12:00")), bytes.Index(buf.Bytes(), []byte("Wed 13:00-17:00")))
	assert.Contains(t, s, "Course A.*")
	assert.Contains(t, s, "1 sources, output out.ics")
}
