// Package limiter windows long match lists for command output.
package limiter

import "fmt"

// Config holds the windowing parameters.
type Config struct {
	Limit  int // keep at most this many entries (0 = unlimited)
	Offset int // skip the first N entries
	Tail   int // keep only the last N entries; excludes Limit
}

// Validate rejects negative values and Limit combined with Tail.
// Offset is ignored when Tail is set.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive reports whether any windowing is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) window of a list of n entries.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		start = n - c.Tail
		if start < 0 {
			start = 0
		}
		return start, n
	}
	start = c.Offset
	if start > n {
		start = n
	}
	end = n
	if c.Limit > 0 && start+c.Limit < n {
		end = start + c.Limit
	}
	return start, end
}

// Apply returns a copy of the windowed entries of items. The result is never
// nil.
func Apply[T any](c Config, items []T) []T {
	start, end := c.Bounds(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}
