package ics

import "strings"

// ics joins lines with CRLF as RFC 5545 requires.
func ics(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

var sampleCalendar = ics(
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//test//test//EN",
	"BEGIN:VEVENT",
	"UID:lecture@test",
	"DTSTAMP:20260301T000000Z",
	"DTSTART:20260302T100000Z",
	"DTEND:20260302T120000Z",
	"RRULE:FREQ=WEEKLY;COUNT=3",
	"EXDATE:20260309T100000Z",
	"STATUS:CONFIRMED",
	"SUMMARY:Course A Lecture",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:lecture@test",
	"DTSTAMP:20260301T000000Z",
	"RECURRENCE-ID:20260316T100000Z",
	"DTSTART:20260316T130000Z",
	"DTEND:20260316T150000Z",
	"STATUS:CONFIRMED",
	"SUMMARY:Course A Lecture (moved)",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:maybe@test",
	"DTSTAMP:20260301T000000Z",
	"DTSTART:20260303T080000Z",
	"DURATION:PT1H30M",
	"STATUS:tentative",
	"SUMMARY:Coffee",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20260301T000000Z",
	"DTSTART:20260304T080000Z",
	"DTEND:20260304T090000Z",
	"SUMMARY:No UID",
	"END:VEVENT",
	"END:VCALENDAR",
)
