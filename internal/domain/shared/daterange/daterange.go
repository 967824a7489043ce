package daterange

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSpan = errors.New("daterange: start must be before or equal to end")

// Span represents an inclusive interval of calendar days [Start, End].
// Both bounds are normalized to UTC midnight; a single-day span has
// Start == End.
type Span struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Span, error) {
	s := Span{Start: Day(start), End: Day(end)}
	if err := s.Validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

// Day truncates a timestamp to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s Span) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return ErrInvalidSpan
	}
	if s.Start.After(s.End) {
		return ErrInvalidSpan
	}
	return nil
}

// Days returns the span length counting both bounds.
func (s Span) Days() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// Overlaps reports whether two inclusive spans share at least one day:
// s.Start <= other.End && s.End >= other.Start.
func (s Span) Overlaps(other Span) bool {
	return !s.Start.After(other.End) && !s.End.Before(other.Start)
}

func (s Span) ContainsDate(t time.Time) bool {
	d := Day(t)
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s Span) Contains(other Span) bool {
	return !s.Start.After(other.Start) && !s.End.Before(other.End)
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
}
