package database

import (
	"sync"
	"time"
)

// timestampLayout is the on-disk form of every timestamp column. It is fixed
// width and UTC, so TEXT comparison orders rows chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// timestampResolution is the smallest step representable by timestampLayout.
const timestampResolution = time.Microsecond

// Clock hands out write timestamps. Each value is strictly greater than the
// previous one at timestampResolution, so consecutive writes to the same row
// always move updated_at forward even when the wall clock does not.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewClock creates a Clock reading from now, or time.Now when now is nil.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns the next timestamp, in UTC and truncated to timestampResolution.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(timestampResolution)
	if !t.After(c.last) {
		t = c.last.Add(timestampResolution)
	}
	c.last = t
	return t
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
