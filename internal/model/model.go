package model

import (
	"strings"
	"time"
)

// StatusConfirmed is the iCalendar STATUS value of events that take part in
// planning. Tentative, cancelled and status-less events are ignored.
const StatusConfirmed = "CONFIRMED"

// Event represents a single concrete calendar event instance (after
// recurrence expansion and timezone normalization).
type Event struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Status      string
	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured planning timezone.
	Start time.Time
	End   time.Time
}

// Key is a stable identifier of the instance across one run.
func (e Event) Key() string {
	return e.SourceID + "/" + e.UID + "/" + e.InstanceKey
}

// Confirmed reports whether the event carries STATUS:CONFIRMED.
func (e Event) Confirmed() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), StatusConfirmed)
}

// Entry is one generated calendar entry: a scheduled task fragment or a
// deficit marker for hours that could not be placed.
type Entry struct {
	Start time.Time
	End   time.Time
	Label string

	// Deficit is true for missing-allocation markers.
	Deficit bool

	// Task is the unrendered task name, EventKey the matched event.
	Task     string
	EventKey string
}
