package cache

import (
	"os"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCache_MarkThenFresh(t *testing.T) {
	c := New(t.TempDir())
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = fixedClock(start)

	if err := c.Mark("register/sub-1/Microsoft.Insights", "Registered"); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	c.now = fixedClock(start.Add(23 * time.Hour))
	m, ok := c.Fresh("register/sub-1/Microsoft.Insights", 24*time.Hour)
	if !ok {
		t.Fatal("expected fresh marker")
	}
	if m.Detail != "Registered" || !m.At.Equal(start) {
		t.Fatalf("unexpected marker: %+v", m)
	}
}

func TestCache_ExpiredMarker(t *testing.T) {
	c := New(t.TempDir())
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = fixedClock(start)

	if err := c.Mark("k", ""); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}

	c.now = fixedClock(start.Add(24 * time.Hour))
	if _, ok := c.Fresh("k", 24*time.Hour); ok {
		t.Fatal("expected marker to be expired")
	}
}

func TestCache_MissingAndCorrupt(t *testing.T) {
	c := New(t.TempDir())

	if _, ok := c.Fresh("missing", time.Hour); ok {
		t.Fatal("expected miss for missing marker")
	}

	if err := os.WriteFile(c.pathForKey("corrupt"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write corrupt marker: %v", err)
	}
	if _, ok := c.Fresh("corrupt", time.Hour); ok {
		t.Fatal("expected miss for corrupt marker")
	}
}

func TestCache_Forget(t *testing.T) {
	c := New(t.TempDir())

	if err := c.Mark("k", ""); err != nil {
		t.Fatalf("Mark failed: %v", err)
	}
	if err := c.Forget("k"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if _, ok := c.Fresh("k", time.Hour); ok {
		t.Fatal("expected miss after Forget")
	}
	if err := c.Forget("k"); err != nil {
		t.Fatalf("Forget of missing marker should succeed, got %v", err)
	}
}

func TestCache_Disabled(t *testing.T) {
	var nilCache *Cache
	if err := nilCache.Mark("k", ""); err != nil {
		t.Fatalf("nil cache Mark should be a no-op, got %v", err)
	}
	if _, ok := New("").Fresh("k", time.Hour); ok {
		t.Fatal("disabled cache should never be fresh")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := map[string]string{
		"register/sub-1/Microsoft.Insights": "register_sub-1_Microsoft_Insights",
		"  ":                                "marker",
		"plain_key":                         "plain_key",
	}
	for in, want := range tests {
		if got := sanitizeKey(in); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
