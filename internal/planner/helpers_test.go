package planner

import (
	"fmt"
	"time"

	"workplanner/internal/model"
)

// 2026-03-02 is a Monday.
func at(day, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func rng(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

var eventSeq int

func confirmed(summary string, start, end time.Time) model.Event {
	eventSeq++
	return model.Event{
		SourceID:    "test",
		UID:         fmt.Sprintf("uid-%d", eventSeq),
		InstanceKey: start.Format(time.RFC3339),
		Status:      model.StatusConfirmed,
		Summary:     summary,
		Start:       start,
		End:         end,
	}
}

type recordingReporter struct {
	nothingMatched int
	noEntries      int
	deficits       []Deficit
}

func (r *recordingReporter) NothingMatched()   { r.nothingMatched++ }
func (r *recordingReporter) NoEntries()        { r.noEntries++ }
func (r *recordingReporter) Deficit(d Deficit) { r.deficits = append(r.deficits, d) }
