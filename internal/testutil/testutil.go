// Package testutil provides test utilities and mock implementations.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// CreateTempDir creates a temporary directory for testing
func CreateTempDir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "pbirefresh-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	t.Cleanup(func() {
		_ = os.RemoveAll(dir)
	})
	return dir
}

// CreateTestFile creates a file with placeholder content for testing
func CreateTestFile(t *testing.T, dir string, name string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("test content"), 0o644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	return path
}

// FakeClock is a virtual clock. Sleep returns immediately after advancing
// the virtual time, so hour-long waits run instantly.
type FakeClock struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Time
	Sleeps []time.Duration

	// OnSleep runs after every Sleep with the virtual time elapsed so far.
	// Tests use it to cancel a context mid-run.
	OnSleep func(elapsed time.Duration)
}

func NewFakeClock() *FakeClock {
	start := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	return &FakeClock{start: start, now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	c.Sleeps = append(c.Sleeps, d)
	elapsed := c.now.Sub(c.start)
	hook := c.OnSleep
	c.mu.Unlock()

	if hook != nil {
		hook(elapsed)
	}

	return ctx.Err()
}

// Elapsed returns the virtual time passed since the clock was created
func (c *FakeClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(c.start)
}

// SleepCount returns how many times Sleep was called with exactly d
func (c *FakeClock) SleepCount(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, s := range c.Sleeps {
		if s == d {
			n++
		}
	}

	return n
}
