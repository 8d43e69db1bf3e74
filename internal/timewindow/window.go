package timewindow

import (
	"fmt"
	"time"
)

// Layout is the timestamp format used both in the state file and in
// query filters.
const Layout = "2006-01-02T15:04:05Z"

// Window is the [Start, End] interval queried from Azure Monitor.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// GrainMinutes returns the window length in whole minutes, rounded up so
// a single time-grain bucket covers the whole window. It is never below 1.
func (w Window) GrainMinutes() int {
	minutes := int((w.Duration() + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// TimeGrain returns the grain as an ISO-8601 duration, e.g. "PT5M".
func (w Window) TimeGrain() string {
	return fmt.Sprintf("PT%dM", w.GrainMinutes())
}

func (w Window) String() string {
	return Format(w.Start) + "/" + Format(w.End)
}

// Format renders t in UTC with second precision.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a timestamp written by Format.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}
