// Package state persists the last-run cursor of every (mode, host) pair
// checked on this machine.
//
// The default backend is a JSON object on disk, shared by all invocations:
//
//	{"VM.PercentageCPU_web01": "2024-01-01T00:05:00Z"}
//
// It lives at /usr/local/nagios/tmp/azure_time_states.tmp when that file is
// readable and writable, and at /tmp/azure_time_state_.tmp otherwise. A
// SQLite backend can be selected instead.
package state

import (
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	// PrimaryPath is where the monitoring supervisor keeps plugin state.
	PrimaryPath = "/usr/local/nagios/tmp/azure_time_states.tmp"

	// FallbackPath is used when PrimaryPath is not read/write accessible.
	FallbackPath = "/tmp/azure_time_state_.tmp"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a string key/value map of cursors.
type Store interface {
	// Swap stores value under key and returns the value it replaced.
	// ok is false when the key was not present.
	Swap(ctx context.Context, key, value string) (previous string, ok bool, err error)

	// All returns a snapshot of every stored entry.
	All(ctx context.Context) (map[string]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// Options selects and locates a backend.
type Options struct {
	// Backend is BackendFile (default) or BackendSQLite.
	Backend string

	// Path overrides the location. For the file backend an empty Path
	// means ResolvePath(PrimaryPath, FallbackPath).
	Path string

	// FallbackPath is used by the file backend when Path is not accessible.
	FallbackPath string
}

// Open returns the store described by opts.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		primary := opts.Path
		if primary == "" {
			primary = PrimaryPath
		}
		fallback := opts.FallbackPath
		if fallback == "" {
			fallback = FallbackPath
		}
		return NewFileStore(ResolvePath(primary, fallback)), nil
	case BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("state: the sqlite backend needs a path")
		}
		return OpenSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("state: unknown backend %q", opts.Backend)
	}
}

// ResolvePath returns primary when it can be opened for reading and
// writing, and fallback otherwise. A primary that does not exist yet is
// treated as inaccessible.
func ResolvePath(primary, fallback string) string {
	f, err := os.OpenFile(primary, os.O_RDWR, 0)
	if err != nil {
		return fallback
	}
	f.Close()
	return primary
}
