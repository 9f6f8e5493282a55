package planner

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVacancy(t *testing.T) {
	v, err := NewVacancy(1, "08:00", "12:30", 2)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, v.From)
	assert.Equal(t, 12*time.Hour+30*time.Minute, v.To)
	assert.Equal(t, 2, v.Priority)

	for _, wd := range []int{0, 8, -1} {
		_, err := NewVacancy(wd, "08:00", "12:00", 1)
		assert.True(t, errors.Is(err, ErrInvalidWeekday), "weekday %d", wd)
	}

	_, err = NewVacancy(1, "8am", "12:00", 1)
	assert.True(t, errors.Is(err, ErrInvalidTime))
	_, err = NewVacancy(1, "08:00", "25:00", 1)
	assert.True(t, errors.Is(err, ErrInvalidTime))
}

func TestVacancy_SameWeekday(t *testing.T) {
	monday, err := NewVacancy(1, "08:00", "12:00", 1)
	require.NoError(t, err)
	sunday, err := NewVacancy(7, "08:00", "12:00", 1)
	require.NoError(t, err)

	assert.True(t, monday.SameWeekday(at(2, 15)))
	assert.False(t, monday.SameWeekday(at(3, 15)))
	assert.True(t, sunday.SameWeekday(at(8, 0)))
	assert.False(t, sunday.SameWeekday(at(7, 23)))
}

func TestVacancy_RangeFor(t *testing.T) {
	v, err := NewVacancy(1, "08:00", "12:30", 1)
	require.NoError(t, err)

	r := v.RangeFor(at(9, 17))
	assert.Equal(t, at(9, 8), r.Start)
	assert.Equal(t, at(9, 12).Add(30*time.Minute), r.End)
	assert.Equal(t, 4, r.DurationHours())
}

func TestVacancy_RangeForKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	v, err := NewVacancy(1, "09:00", "11:00", 1)
	require.NoError(t, err)

	r := v.RangeFor(time.Date(2026, time.March, 2, 23, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 0, 0, 0, loc), r.Start)
	assert.Equal(t, loc, r.Start.Location())
}

func TestVacancy_RangeForOvernight(t *testing.T) {
	v, err := NewVacancy(5, "22:00", "02:00", 1)
	require.NoError(t, err)

	r := v.RangeFor(at(6, 0))
	assert.Equal(t, at(6, 22), r.Start)
	assert.Equal(t, at(7, 2), r.End)
}

func TestVacancy_String(t *testing.T) {
	v, err := NewVacancy(7, "08:00", "12:30", DefaultPriority)
	require.NoError(t, err)
	assert.Equal(t, "Sun 08:00-12:30", v.String())
}
