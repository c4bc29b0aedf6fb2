package model

import (
	"fmt"
	"time"
)

// TimeLayout is the CLI timestamp layout for window boundaries.
const TimeLayout = "2006-01-02 15:04:05"

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window and enforces Start < End.
func NewWindow(start, end time.Time) (TimeWindow, error) {
	if !start.Before(end) {
		return TimeWindow{}, fmt.Errorf("%w: window start %s is not before end %s",
			ErrInvalidSpec, start.Format(TimeLayout), end.Format(TimeLayout))
	}
	return TimeWindow{Start: start, End: end}, nil
}

// ParseWindow parses two CLI timestamps into a validated window.
func ParseWindow(startStr, endStr string) (TimeWindow, error) {
	start, err := time.Parse(TimeLayout, startStr)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: bad start time %q: %v", ErrInvalidSpec, startStr, err)
	}
	end, err := time.Parse(TimeLayout, endStr)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: bad end time %q: %v", ErrInvalidSpec, endStr, err)
	}
	return NewWindow(start, end)
}

// TrailingWindow returns the window of the given number of days ending at now.
func TrailingWindow(now time.Time, days int) TimeWindow {
	return TimeWindow{Start: now.AddDate(0, 0, -days), End: now}
}

// Contains reports whether ts falls inside the half-open interval.
func (w TimeWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(TimeLayout), w.End.Format(TimeLayout))
}
