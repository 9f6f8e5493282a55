package planner

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// DefaultPriority ranks a vacancy that was configured without a priority
// behind every explicitly ranked one.
const DefaultPriority = math.MaxInt

const clockLayout = "15:04"

// Vacancy is a recurring weekly window in which tasks may be scheduled.
// Lower Priority values are preferred.
type Vacancy struct {
	Weekday  int // ISO numbering, 1 = Monday .. 7 = Sunday
	From     time.Duration
	To       time.Duration
	Priority int
}

// NewVacancy parses from/to as HH:MM wall-clock times.
func NewVacancy(weekday int, from, to string, priority int) (Vacancy, error) {
	if weekday < 1 || weekday > 7 {
		return Vacancy{}, errors.Wrapf(ErrInvalidWeekday, "got %d", weekday)
	}
	f, err := parseClock(from)
	if err != nil {
		return Vacancy{}, err
	}
	t, err := parseClock(to)
	if err != nil {
		return Vacancy{}, err
	}
	return Vacancy{Weekday: weekday, From: f, To: t, Priority: priority}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidTime, "%q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// SameWeekday reports whether date falls on the vacancy's weekday.
func (v Vacancy) SameWeekday(date time.Time) bool {
	return v.Weekday == isoWeekday(date)
}

// RangeFor projects the vacancy onto the calendar day of date, in date's
// location. The time of day of date is ignored. A window whose end is not
// after its start ends on the following day.
func (v Vacancy) RangeFor(date time.Time) Range {
	y, m, d := date.Date()
	loc := date.Location()

	start := wallClock(y, m, d, v.From, loc)
	endDay := d
	if v.To <= v.From {
		endDay++
	}
	end := wallClock(y, m, endDay, v.To, loc)

	return Range{Start: start, End: end}
}

// String renders the vacancy the way it is configured, e.g. "1 08:00-12:00".
func (v Vacancy) String() string {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return time.Weekday(v.Weekday%7).String()[:3] + " " +
		base.Add(v.From).Format(clockLayout) + "-" + base.Add(v.To).Format(clockLayout)
}

func wallClock(y int, m time.Month, d int, offset time.Duration, loc *time.Location) time.Time {
	h := int(offset / time.Hour)
	mins := int((offset % time.Hour) / time.Minute)
	return time.Date(y, m, d, h, mins, 0, 0, loc)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
