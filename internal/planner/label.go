package planner

import (
	"sort"
	"strconv"
	"strings"
)

// Label placeholders available in task names.
const (
	PlaceholderPageIndex     = "{page.index}"
	PlaceholderPageTotal     = "{page.total}"
	PlaceholderEventName     = "{event.name}"
	PlaceholderEventStart    = "{event.start}"
	PlaceholderEventEnd      = "{event.end}"
	PlaceholderEventDuration = "{event.duration}"
	PlaceholderFrom          = "{from}"
	PlaceholderTo            = "{to}"
	PlaceholderHours         = "{hours}"
	PlaceholderDuration      = "{duration}"
)

// page describes one rendered fragment of a task.
type page struct {
	index, total int
	slot         Range
}

func (s *Scheduler) label(l *Link, t Task, p page) string {
	ev := l.Event
	evRange := Range{Start: ev.Start, End: ev.End}

	vars := map[string]string{
		PlaceholderPageIndex:     strconv.Itoa(p.index),
		PlaceholderPageTotal:     strconv.Itoa(p.total),
		PlaceholderEventName:     ev.Summary,
		PlaceholderEventStart:    ev.Start.Format(s.opts.DateTimeLayout),
		PlaceholderEventEnd:      ev.End.Format(s.opts.DateTimeLayout),
		PlaceholderEventDuration: strconv.Itoa(evRange.DurationHours()),
		PlaceholderFrom:          p.slot.Start.Format(s.opts.DateLayout),
		PlaceholderTo:            p.slot.End.Format(s.opts.DateLayout),
		PlaceholderHours:         strconv.Itoa(p.slot.DurationHours()),
		PlaceholderDuration:      strconv.Itoa(t.Hours),
	}
	return Render(t.Name, vars)
}

// Render substitutes every {key} in tmpl with vars[key]. Unknown
// placeholders are left untouched.
func Render(tmpl string, vars map[string]string) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
