package ics

import (
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseICS(t *testing.T) {
	src := Source{ID: "uni", Path: "uni.ics"}
	events, err := ParseICS(src, sampleCalendar)
	require.NoError(t, err)
	require.Len(t, events, 3, "VEVENT without UID is skipped")

	base := events[0]
	assert.Equal(t, "lecture@test", base.UID)
	assert.Equal(t, "CONFIRMED", base.Status)
	assert.Equal(t, "Course A Lecture", base.Summary)
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), base.Start.UTC())
	assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), base.End.UTC())
	assert.Equal(t, "FREQ=WEEKLY;COUNT=3", base.RawRRule)
	require.Len(t, base.ExDates, 1)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), base.ExDates[0])
	assert.False(t, base.IsOverride)
	assert.Equal(t, src, base.Source)

	override := events[1]
	assert.True(t, override.IsOverride)
	require.NotNil(t, override.Recurrence)
	assert.Equal(t, time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC), *override.Recurrence)

	coffee := events[2]
	assert.Equal(t, "TENTATIVE", coffee.Status)
	assert.Equal(t, 90*time.Minute, coffee.End.Sub(coffee.Start))
}

func TestParseICS_Empty(t *testing.T) {
	_, err := ParseICS(Source{ID: "x"}, nil)
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"PT1H", time.Hour, true},
		{"PT1H30M", 90 * time.Minute, true},
		{"P1D", 24 * time.Hour, true},
		{"P1W", 7 * 24 * time.Hour, true},
		{"P1DT2H", 26 * time.Hour, true},
		{"-PT15M", -15 * time.Minute, true},
		{"PT15S", 15 * time.Second, true},
		{"1H", 0, false},
		{"PT1", 0, false},
		{"P1H", 0, false},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsDateValue(t *testing.T) {
	prop := func(value string, params map[string][]string) *ical.IANAProperty {
		return &ical.IANAProperty{BaseProperty: ical.BaseProperty{
			IANAToken:      "DTSTART",
			ICalParameters: params,
			Value:          value,
		}}
	}

	assert.True(t, isDateValue(prop("20260304", nil)))
	assert.True(t, isDateValue(prop("20260304", map[string][]string{"VALUE": {"DATE"}})))
	assert.False(t, isDateValue(prop("20260304T080000Z", nil)))
}

func TestParseICSTime(t *testing.T) {
	utc, err := parseICSTime("20260309T100000Z", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), utc)

	zurich, err := time.LoadLocation("Europe/Zurich")
	if err == nil {
		local, err := parseICSTime("20260309T100000", "Europe/Zurich")
		require.NoError(t, err)
		assert.True(t, time.Date(2026, 3, 9, 10, 0, 0, 0, zurich).Equal(local))
		assert.Equal(t, "Europe/Zurich", local.Location().String())
	}

	_, err = parseICSTime("", "")
	assert.Error(t, err)
}
