package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandOccurrences(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "uni"}, sampleCalendar)
	require.NoError(t, err)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		Location:   time.UTC,
		RangeStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, res.TruncatedEvents)

	var got []string
	for _, e := range res.Events {
		got = append(got, e.Start.Format("01-02 15:04")+" "+e.Status+" "+e.Summary)
	}
	assert.Equal(t, []string{
		"03-02 10:00 CONFIRMED Course A Lecture",
		"03-03 08:00 TENTATIVE Coffee",
		"03-16 13:00 CONFIRMED Course A Lecture (moved)",
	}, got)

	moved := res.Events[2]
	assert.Equal(t, "uni/lecture@test/2026-03-16T10:00:00Z", moved.Key())
	assert.True(t, moved.Confirmed())
}

func TestExpandOccurrences_Horizon(t *testing.T) {
	parsed, err := ParseICS(Source{ID: "uni"}, sampleCalendar)
	require.NoError(t, err)

	// The first lecture (10:00-12:00) still runs into a horizon opening at 11:00.
	res, err := ExpandOccurrences(parsed, ExpandConfig{
		Location:   time.UTC,
		RangeStart: time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Course A Lecture", res.Events[0].Summary)
}

func TestExpandOccurrences_Cap(t *testing.T) {
	daily := ics(
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:daily@test",
		"DTSTAMP:20260301T000000Z",
		"DTSTART:20260301T090000Z",
		"DTEND:20260301T100000Z",
		"RRULE:FREQ=DAILY",
		"STATUS:CONFIRMED",
		"SUMMARY:Standup",
		"END:VEVENT",
		"END:VCALENDAR",
	)
	parsed, err := ParseICS(Source{ID: "work"}, daily)
	require.NoError(t, err)

	res, err := ExpandOccurrences(parsed, ExpandConfig{
		Location:               time.UTC,
		RangeStart:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:               time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		MaxOccurrencesPerEvent: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Events, 5)
	assert.Equal(t, []string{"daily@test"}, res.TruncatedEvents)
}

func TestExpandOccurrences_InvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}
