package domain

import (
	"fmt"
	"time"
)

// Window is a half-open local-time interval [Start, End) in whole hours.
// End may be 24 to cover the rest of the day.
type Window struct {
	Start int
	End   int
}

// Contains reports whether the given time's local hour falls inside the window.
func (w Window) Contains(t time.Time) bool {
	hour := t.Hour()
	return hour >= w.Start && hour < w.End
}

// Validate checks that the window bounds make sense.
func (w Window) Validate() error {
	if w.Start < 0 || w.Start > 23 {
		return fmt.Errorf("window start %d out of range [0,23]", w.Start)
	}
	if w.End < 1 || w.End > 24 {
		return fmt.Errorf("window end %d out of range [1,24]", w.End)
	}
	if w.Start >= w.End {
		return fmt.Errorf("window [%d,%d) is empty", w.Start, w.End)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.Start, w.End)
}

// Windows is the static monitoring schedule. Outside every window the trader
// sleeps through the tick.
type Windows []Window

// Contains reports whether t falls inside any configured window. An empty
// schedule means always-on.
func (ws Windows) Contains(t time.Time) bool {
	if len(ws) == 0 {
		return true
	}
	for _, w := range ws {
		if w.Contains(t) {
			return true
		}
	}
	return false
}
