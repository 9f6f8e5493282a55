package planner

import (
	"regexp"
	"sort"

	"github.com/pkg/errors"

	"workplanner/internal/model"
)

// Assignment links calendar events whose title matches Pattern to a set of
// tasks. Matched events are collected during ingestion.
type Assignment struct {
	Pattern     string
	TravelHours int
	Tasks       []Task

	re *regexp.Regexp

	events []model.Event
	sorted bool
}

// NewAssignment compiles pattern. The pattern must match the whole event
// title.
func NewAssignment(pattern string, travelHours int, tasks ...Task) (*Assignment, error) {
	if pattern == "" {
		return nil, errors.WithStack(ErrEmptyPattern)
	}
	if travelHours < 0 {
		return nil, errors.Wrapf(ErrNegativeTravel, "pattern %q has %dh", pattern, travelHours)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, errors.Wrapf(err, "compile pattern %q", pattern)
	}
	return &Assignment{
		Pattern:     pattern,
		TravelHours: travelHours,
		Tasks:       append([]Task(nil), tasks...),
		re:          re,
		sorted:      true,
	}, nil
}

// AddTask appends a task.
func (a *Assignment) AddTask(t Task) {
	a.Tasks = append(a.Tasks, t)
}

// Matches reports whether title matches the assignment pattern.
func (a *Assignment) Matches(title string) bool {
	return title != "" && a.re.MatchString(title)
}

// AddEvent registers a matched event.
func (a *Assignment) AddEvent(e model.Event) {
	a.events = append(a.events, e)
	a.sorted = false
}

// SortedEvents returns the matched events ascending by start. The sort is
// only redone after AddEvent.
func (a *Assignment) SortedEvents() []model.Event {
	if !a.sorted {
		sort.SliceStable(a.events, func(i, j int) bool {
			return a.events[i].Start.Before(a.events[j].Start)
		})
		a.sorted = true
	}
	return a.events
}

// TasksBefore returns the tasks scheduled ahead of an event, in order.
func (a *Assignment) TasksBefore() []Task {
	return a.filterTasks(true)
}

// TasksAfter returns the tasks scheduled after an event, in order.
func (a *Assignment) TasksAfter() []Task {
	return a.filterTasks(false)
}

func (a *Assignment) filterTasks(before bool) []Task {
	out := make([]Task, 0, len(a.Tasks))
	for _, t := range a.Tasks {
		if t.Before == before {
			out = append(out, t)
		}
	}
	return out
}

// BeforeHours is the total hours of work due before each matched event.
func (a *Assignment) BeforeHours() int {
	return sumHours(a.TasksBefore())
}

// AfterHours is the total hours of work due after each matched event.
func (a *Assignment) AfterHours() int {
	return sumHours(a.TasksAfter())
}

func sumHours(tasks []Task) int {
	n := 0
	for _, t := range tasks {
		n += t.Hours
	}
	return n
}

// Reset forgets all matched events so the assignment can be reused for
// another run.
func (a *Assignment) Reset() {
	a.events = nil
	a.sorted = true
}
