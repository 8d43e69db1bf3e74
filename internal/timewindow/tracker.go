// Package timewindow derives the Azure Monitor query interval for a check
// from the end time of the previous invocation.
package timewindow

import (
	"context"
	"time"

	"checkazure/internal/state"

	"github.com/go-logr/logr"
)

const (
	// DefaultLookback is used when no usable previous run is stored.
	DefaultLookback = 5 * time.Minute

	// MinimumWindow is the shortest interval ever queried. Azure Monitor
	// often has no data point for shorter windows.
	MinimumWindow = 2 * time.Minute
)

// Tracker reads and advances per-target cursors in a state.Store.
type Tracker struct {
	store state.Store
	log   logr.Logger
}

// NewTracker returns a tracker backed by store.
func NewTracker(store state.Store, log logr.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// StateKey builds the cursor key for a target. The generic mode is keyed
// by its metric name so different generic checks on one host do not
// share a cursor.
func StateKey(mode, metricName, host string, generic bool) string {
	name := mode
	if generic {
		name = metricName
	}
	return name + "_" + host
}

// ComputeWindow returns the interval to query for key, ending at now.
//
// The cursor is overwritten with now before the window is derived and
// regardless of whether the caller's query later succeeds. A failing
// check therefore never re-scans an ever-growing interval.
func (t *Tracker) ComputeWindow(ctx context.Context, key string, now time.Time) Window {
	now = now.UTC().Truncate(time.Second)

	previous, ok, err := t.store.Swap(ctx, key, Format(now))
	if err != nil {
		t.log.Error(err, "failed to update time state, using default window", "key", key)
		ok = false
	}

	lastRun := now.Add(-DefaultLookback)
	if ok {
		if parsed, err := Parse(previous); err == nil {
			lastRun = parsed
		} else {
			t.log.V(1).Info("ignoring unparsable time state", "key", key, "value", previous)
		}
	}

	if now.Sub(lastRun) < MinimumWindow || lastRun.After(now) {
		lastRun = now.Add(-MinimumWindow)
	}

	w := Window{Start: lastRun, End: now}
	t.log.V(1).Info("computed query window", "key", key, "start", Format(w.Start), "end", Format(w.End), "grain", w.TimeGrain())
	return w
}
