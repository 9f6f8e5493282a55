package planner

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"workplanner/internal/model"
)

const (
	defaultMissingMarker  = "[missing] "
	defaultDateTimeLayout = "Jan 2, 2006 15:04"
	defaultDateLayout     = "Jan 2, 2006"
)

// Reporter receives run-level conditions that are not errors.
type Reporter interface {
	// NothingMatched is called when no assignment matched any event.
	NothingMatched()
	// NoEntries is called when a run produced no entries at all.
	NoEntries()
	// Deficit is called once per task that could not be fully placed.
	Deficit(d Deficit)
}

// Deficit describes the unplaced hours of one task for one event.
type Deficit struct {
	Task         string
	EventKey     string
	EventSummary string
	EventStart   time.Time
	Hours        int
}

// Options tunes label rendering and reporting.
type Options struct {
	// MissingMarker prefixes the label of deficit entries.
	MissingMarker string

	// DateTimeLayout formats {event.start} and {event.end}; DateLayout
	// formats {from} and {to}.
	DateTimeLayout string
	DateLayout     string

	Reporter Reporter
}

func (o *Options) normalize() {
	if o.MissingMarker == "" {
		o.MissingMarker = defaultMissingMarker
	}
	if o.DateTimeLayout == "" {
		o.DateTimeLayout = defaultDateTimeLayout
	}
	if o.DateLayout == "" {
		o.DateLayout = defaultDateLayout
	}
	if o.Reporter == nil {
		o.Reporter = nopReporter{}
	}
}

// Stats summarizes one run.
type Stats struct {
	Events         int // events seen by Ingest
	Confirmed      int // confirmed events reserved
	Links          int // event/assignment matches
	Fragments      int // committed task fragments
	AllocatedHours int
	DeficitHours   int
}

// Result is the outcome of Run.
type Result struct {
	Entries  []model.Entry
	Deficits []Deficit
	Stats    Stats
}

// Scheduler places assignment tasks into vacancies around matched events.
// A Scheduler serves exactly one run and is not safe for concurrent use.
type Scheduler struct {
	vacancies   []Vacancy
	assignments []*Assignment
	opts        Options

	reserved []Range
	links    []*Link
	stats    Stats
}

// New creates a Scheduler. vacancies must already be sorted ascending by
// priority.
func New(vacancies []Vacancy, assignments []*Assignment, opts Options) *Scheduler {
	opts.normalize()
	return &Scheduler{
		vacancies:   vacancies,
		assignments: assignments,
		opts:        opts,
	}
}

// Reserved returns the ranges that can no longer be allocated.
func (s *Scheduler) Reserved() []Range {
	return s.reserved
}

// Links returns the event/assignment matches ascending by event start.
func (s *Scheduler) Links() []*Link {
	return s.links
}

// Ingest reserves the span of every confirmed event and links it to every
// assignment whose pattern matches its title. It may be called once per
// calendar source.
func (s *Scheduler) Ingest(events []model.Event) error {
	for _, ev := range events {
		s.stats.Events++
		if !ev.Confirmed() {
			continue
		}

		span, err := NewRange(ev.Start, ev.End)
		if err != nil {
			return errors.Wrapf(err, "event %q", ev.Summary)
		}
		s.reserved = append(s.reserved, span)
		s.stats.Confirmed++

		if ev.Summary == "" {
			continue
		}

		for _, a := range s.assignments {
			if !a.Matches(ev.Summary) {
				continue
			}
			s.reserved = append(s.reserved, span.Expand(a.TravelHours))
			s.links = append(s.links, NewLink(ev, a))
			s.stats.Links++
		}
	}

	sort.SliceStable(s.links, func(i, j int) bool {
		return s.links[i].Event.Start.Before(s.links[j].Event.Start)
	})
	return nil
}

// Run schedules the before tasks of every link into its before window and
// the after tasks into its after window.
func (s *Scheduler) Run() (Result, error) {
	res := Result{Entries: []model.Entry{}}

	if len(s.links) == 0 {
		s.opts.Reporter.NothingMatched()
		res.Stats = s.stats
		return res, nil
	}

	for _, l := range s.links {
		if tasks := l.Assignment.TasksBefore(); len(tasks) > 0 {
			window, err := l.BeforeWindow()
			if err != nil {
				return res, errors.Wrapf(err, "before window of %q", l.Event.Summary)
			}
			if err := s.allocateAll(&res, l, tasks, window); err != nil {
				return res, err
			}
		}

		if tasks := l.Assignment.TasksAfter(); len(tasks) > 0 {
			window, err := l.AfterWindow()
			if err != nil {
				return res, errors.Wrapf(err, "after window of %q", l.Event.Summary)
			}
			if err := s.allocateAll(&res, l, tasks, window); err != nil {
				return res, err
			}
		}
	}

	if len(res.Entries) == 0 {
		s.opts.Reporter.NoEntries()
	}
	res.Stats = s.stats
	return res, nil
}

func (s *Scheduler) allocateAll(res *Result, l *Link, tasks []Task, window Range) error {
	for _, t := range tasks {
		entries, deficit, err := s.allocate(l, t, window)
		if err != nil {
			return errors.Wrapf(err, "allocate %q for %q", t.Name, l.Event.Summary)
		}
		res.Entries = append(res.Entries, entries...)
		if deficit != nil {
			res.Deficits = append(res.Deficits, *deficit)
		}
	}
	return nil
}

// allocate places t.Hours inside window. Vacancies are tried in priority
// order; for each one every day of the window is visited once and the
// first free fragment of that day is taken.
func (s *Scheduler) allocate(l *Link, t Task, window Range) ([]model.Entry, *Deficit, error) {
	remaining := t.Hours
	var pages []Range

	for _, v := range s.vacancies {
		if remaining <= 0 {
			break
		}
		for day := window.Start; remaining > 0 && day.Before(window.End); day = nextMidnight(day) {
			if !v.SameWeekday(day) {
				continue
			}
			slot, ok := v.RangeFor(day).Clip(window)
			if !ok {
				continue
			}
			free, err := slot.SubtractCollisions(s.reserved)
			if err != nil {
				return nil, nil, err
			}
			if len(free) == 0 {
				continue
			}

			frag := free[0]
			if frag.DurationHours() > remaining {
				if err := frag.SetDurationHours(remaining); err != nil {
					return nil, nil, err
				}
			}
			remaining -= frag.DurationHours()
			s.reserved = append(s.reserved, frag)
			pages = append(pages, frag)
		}
	}

	total := len(pages)
	if remaining > 0 {
		total++
	}

	entries := make([]model.Entry, 0, total)
	for i, frag := range pages {
		entries = append(entries, model.Entry{
			Start:    frag.Start,
			End:      frag.End,
			Label:    s.label(l, t, page{index: i + 1, total: total, slot: frag}),
			Task:     t.Name,
			EventKey: l.Event.Key(),
		})
		s.stats.Fragments++
		s.stats.AllocatedHours += frag.DurationHours()
	}

	if remaining <= 0 {
		return entries, nil, nil
	}

	missing, err := NewRangeHours(l.Event.Start, remaining)
	if err != nil {
		return nil, nil, err
	}
	entries = append(entries, model.Entry{
		Start:    missing.Start,
		End:      missing.End,
		Label:    s.opts.MissingMarker + s.label(l, t, page{index: total, total: total, slot: missing}),
		Deficit:  true,
		Task:     t.Name,
		EventKey: l.Event.Key(),
	})
	s.stats.DeficitHours += remaining

	d := &Deficit{
		Task:         t.Name,
		EventKey:     l.Event.Key(),
		EventSummary: l.Event.Summary,
		EventStart:   l.Event.Start,
		Hours:        remaining,
	}
	s.opts.Reporter.Deficit(*d)
	return entries, d, nil
}

// nextMidnight returns 00:00 of the day after t, in t's location.
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

type nopReporter struct{}

func (nopReporter) NothingMatched() {}
func (nopReporter) NoEntries()      {}
func (nopReporter) Deficit(Deficit) {}
