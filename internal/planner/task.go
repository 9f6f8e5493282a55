package planner

import "github.com/pkg/errors"

// Task is a unit of work scheduled before or after a matched event.
type Task struct {
	Name   string
	Before bool
	Hours  int
}

// NewTask fails if hours is smaller than 1.
func NewTask(name string, before bool, hours int) (Task, error) {
	if hours < 1 {
		return Task{}, errors.Wrapf(ErrInvalidDuration, "task %q has %dh", name, hours)
	}
	return Task{Name: name, Before: before, Hours: hours}, nil
}

// Side returns "before" or "after".
func (t Task) Side() string {
	if t.Before {
		return "before"
	}
	return "after"
}
