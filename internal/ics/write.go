package ics

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"workplanner/internal/model"
)

const productID = "-//workplanner//workplanner 1.0//EN"

// uidNamespace scopes the name-based UUIDs of generated entries.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://workplanner.invalid/entry"))

// WriteOptions carries calendar level metadata.
type WriteOptions struct {
	// Name is written as NAME and X-WR-CALNAME.
	Name string
	// Timezone is written as X-WR-TIMEZONE if set.
	Timezone string
	// Stamp is the DTSTAMP of every entry. Identical inputs and stamp give
	// byte-identical output.
	Stamp time.Time
}

// BuildCalendar converts entries into a VCALENDAR.
func BuildCalendar(entries []model.Entry, opts WriteOptions) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetName(opts.Name)
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for i, e := range entries {
		ev := cal.AddEvent(EntryUID(i, e))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Label)
		ev.SetProperty(ical.ComponentPropertyStatus, model.StatusConfirmed)
		if e.Deficit {
			ev.SetProperty(ical.ComponentPropertyCategories, "DEFICIT")
			ev.SetProperty(ical.ComponentPropertyTransp, "TRANSPARENT")
		} else {
			ev.SetProperty(ical.ComponentPropertyCategories, "TASK")
		}
		if e.EventKey != "" {
			ev.SetProperty(ical.ComponentProperty("X-WORKPLANNER-EVENT"), e.EventKey)
		}
	}
	return cal
}

// EntryUID derives a stable UID from the entry content and its position
// in the run output.
func EntryUID(index int, e model.Entry) string {
	var b bytes.Buffer
	b.WriteString(e.EventKey)
	b.WriteByte(0)
	b.WriteString(e.Task)
	b.WriteByte(0)
	b.WriteString(e.Start.UTC().Format(time.RFC3339))
	b.WriteByte(0)
	b.WriteString(e.End.UTC().Format(time.RFC3339))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(index))
	return uuid.NewSHA1(uidNamespace, b.Bytes()).String() + "@workplanner"
}

// WriteCalendar serializes entries as ICS to w.
func WriteCalendar(w io.Writer, entries []model.Entry, opts WriteOptions) error {
	return errors.Wrap(BuildCalendar(entries, opts).SerializeTo(w), "serialize calendar")
}

// WriteFile writes entries to path atomically (temp file + rename).
func WriteFile(path string, entries []model.Entry, opts WriteOptions) error {
	if path == "" {
		return errors.New("output path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	tmp, err := os.CreateTemp(dir, ".workplanner-*.ics.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCalendar(tmp, entries, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrap(err, "chmod output")
	}
	return errors.Wrap(os.Rename(tmpName, path), "rename output")
}
