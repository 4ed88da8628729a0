// Package clock abstracts time lookups so expiry checks are deterministic
// under test.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real system clock.
type SystemClock struct{}

// NewSystemClock creates a clock backed by the real system time.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// FixtureClock is a controllable clock for tests.
type FixtureClock struct {
	current time.Time
}

// NewFixtureClock creates a fixture clock pinned to the given time.
// A zero time defaults to time.Now().
func NewFixtureClock(start time.Time) *FixtureClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &FixtureClock{current: start}
}

// Now returns the pinned fixture time.
func (c *FixtureClock) Now() time.Time {
	return c.current
}

// Set pins the clock to a specific time.
func (c *FixtureClock) Set(t time.Time) {
	c.current = t
}

// Advance moves the clock forward by d.
func (c *FixtureClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}
