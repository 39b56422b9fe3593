package task

import (
	"sync"
	"time"
)

// Clock hands out creation timestamps at millisecond precision (what every
// backend keeps), never earlier than the current time and strictly
// increasing within a process.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UTC()
	t := now.Truncate(time.Millisecond)
	if t.Before(now) {
		t = t.Add(time.Millisecond)
	}
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}
