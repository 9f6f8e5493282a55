package planner

import (
	"time"

	"workplanner/internal/model"
)

// Lookback is the width of a before or after window when the event has no
// matched neighbor on that side.
const Lookback = 14 * 24 * time.Hour

// Link associates a matched event with its assignment.
type Link struct {
	Event      model.Event
	Assignment *Assignment
}

// NewLink creates the link and registers the event with the assignment.
func NewLink(e model.Event, a *Assignment) *Link {
	a.AddEvent(e)
	return &Link{Event: e, Assignment: a}
}

// neighbors returns the matched events immediately before and after the
// linked one in start order.
func (l *Link) neighbors() (prev, next *model.Event) {
	events := l.Assignment.SortedEvents()
	key := l.Event.Key()
	for i := range events {
		if events[i].Key() != key {
			continue
		}
		if i > 0 {
			prev = &events[i-1]
		}
		if i+1 < len(events) {
			next = &events[i+1]
		}
		return prev, next
	}
	return nil, nil
}

// BeforeWindow spans from the previous matched event's end (or two weeks
// earlier) up to this event's start.
func (l *Link) BeforeWindow() (Range, error) {
	prev, _ := l.neighbors()
	start := l.Event.Start.Add(-Lookback)
	if prev != nil {
		start = prev.End
	}
	return NewRange(start, l.Event.Start)
}

// AfterWindow spans from this event's end up to the next matched event's
// start (or two weeks later).
func (l *Link) AfterWindow() (Range, error) {
	_, next := l.neighbors()
	end := l.Event.End.Add(Lookback)
	if next != nil {
		end = next.Start
	}
	return NewRange(l.Event.End, end)
}
