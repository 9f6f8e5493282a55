package planner

import (
	"time"

	"github.com/pkg/errors"
)

// Range is a closed interval [Start, End] with whole-hour duration
// semantics. Ranges are values; only SetDurationHours modifies one in place.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange returns the range [start, end]. It fails if start is after end.
func NewRange(start, end time.Time) (Range, error) {
	if start.After(end) {
		return Range{}, errors.Wrapf(ErrInvalidRange, "[%s, %s]",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Range{Start: start, End: end}, nil
}

// NewRangeHours returns the range starting at start and lasting hours.
func NewRangeHours(start time.Time, hours int) (Range, error) {
	if hours < 0 {
		return Range{}, errors.Wrapf(ErrInvalidRange, "negative length %dh", hours)
	}
	return Range{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}, nil
}

// DurationHours is End-Start truncated to whole hours.
func (r Range) DurationHours() int {
	return int(r.End.Sub(r.Start) / time.Hour)
}

// SetDurationHours moves End to exactly n hours after Start.
func (r *Range) SetDurationHours(n int) error {
	if n < 1 {
		return errors.Wrapf(ErrInvalidDuration, "got %d", n)
	}
	r.End = r.Start.Add(time.Duration(n) * time.Hour)
	return nil
}

// Expand widens the range by hours on both sides.
func (r Range) Expand(hours int) Range {
	d := time.Duration(hours) * time.Hour
	return Range{Start: r.Start.Add(-d), End: r.End.Add(d)}
}

// Clip returns the part of r that lies inside bounds. ok is false when the
// two ranges share no instant.
func (r Range) Clip(bounds Range) (Range, bool) {
	start, end := r.Start, r.End
	if bounds.Start.After(start) {
		start = bounds.Start
	}
	if bounds.End.Before(end) {
		end = bounds.End
	}
	if start.After(end) {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// Contains reports whether other lies within r, boundaries included.
func (r Range) Contains(other Range) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// Collides reports whether the two ranges overlap. Ranges that only touch
// at a boundary do not collide; identical ranges always do.
func (r Range) Collides(other Range) bool {
	return r.interior(other.Start) || r.interior(other.End) ||
		other.interior(r.Start) || other.interior(r.End) ||
		(r.Start.Equal(other.Start) && r.End.Equal(other.End))
}

// interior reports whether t lies strictly inside r.
func (r Range) interior(t time.Time) bool {
	return t.After(r.Start) && t.Before(r.End)
}

// SubtractCollisions returns the parts of r that collide with nothing in
// avoid, in worklist order. Fragments shorter than one hour are dropped.
//
// Each pass resolves every candidate against the first avoid range it
// collides with; passes repeat until no candidate collides. The order of
// the result is not guaranteed to be chronological.
func (r Range) SubtractCollisions(avoid []Range) ([]Range, error) {
	work := []Range{r}

	for {
		collided := false
		next := make([]Range, 0, len(work)+1)

		for _, c := range work {
			hit := -1
			for i := range avoid {
				if avoid[i].Collides(c) {
					hit = i
					break
				}
			}
			if hit < 0 {
				next = append(next, c)
				continue
			}

			collided = true
			a := avoid[hit]

			switch {
			case a.Contains(c):
				// fully covered: drop
			case c.Contains(a):
				next = append(next,
					Range{Start: c.Start, End: a.Start},
					Range{Start: a.End, End: c.End},
				)
			case c.interior(a.End):
				next = append(next, Range{Start: a.End, End: c.End})
			case c.interior(a.Start):
				next = append(next, Range{Start: c.Start, End: a.Start})
			default:
				return nil, errors.WithStack(&DefectError{Candidate: c, Avoid: a})
			}
		}

		work = next
		if !collided {
			break
		}
	}

	out := make([]Range, 0, len(work))
	for _, f := range work {
		if f.DurationHours() > 0 {
			out = append(out, f)
		}
	}
	return out, nil
}
