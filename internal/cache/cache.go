// Package cache keeps small timestamped markers on disk so work that only
// needs doing once in a while (provider registration) is skipped on most
// check invocations.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Marker is the content of one cache entry.
type Marker struct {
	Key    string    `json:"key"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

// Cache stores markers as JSON files in a directory.
type Cache struct {
	dir string
	now func() time.Time
}

// New returns a cache rooted at dir. An empty dir disables the cache:
// nothing is ever fresh and Mark is a no-op.
func New(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// NewDefault returns a cache rooted at the OS user cache dir.
func NewDefault() *Cache {
	return New(DefaultDir())
}

// DefaultDir is $XDG_CACHE_HOME/check_azure or its platform equivalent,
// falling back to the temp dir for service accounts without a home.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "check_azure")
}

// Fresh returns the marker for key if it was written less than ttl ago.
// Missing, expired and unreadable markers all count as not fresh.
func (c *Cache) Fresh(key string, ttl time.Duration) (Marker, bool) {
	if c == nil || c.dir == "" || ttl <= 0 {
		return Marker{}, false
	}

	data, err := os.ReadFile(c.pathForKey(key))
	if err != nil {
		return Marker{}, false
	}

	var m Marker
	if err := json.Unmarshal(data, &m); err != nil || m.At.IsZero() {
		return Marker{}, false
	}
	if c.now().Sub(m.At) >= ttl {
		return Marker{}, false
	}
	return m, true
}

// Mark records that the work identified by key was done now. The file is
// replaced atomically so concurrent checks never read a partial marker.
func (c *Cache) Mark(key, detail string) error {
	if c == nil || c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	payload, err := json.Marshal(Marker{Key: key, At: c.now().UTC(), Detail: detail})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, sanitizeKey(key)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, c.pathForKey(key))
}

// Forget removes the marker for key.
func (c *Cache) Forget(key string) error {
	if c == nil || c.dir == "" {
		return nil
	}

	err := os.Remove(c.pathForKey(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *Cache) pathForKey(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "marker"
	}

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}
