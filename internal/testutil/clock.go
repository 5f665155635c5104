package testutil

import "time"

// Epoch is the start time of every Clock.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock is a manually advanced time source for expiration tests.
type Clock struct {
	now time.Time
}

// NewClock returns a Clock set to Epoch.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// Now returns the current fake time. Pass c.Now as an attribute.Clock.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Set moves the clock to Epoch + offset.
func (c *Clock) Set(offset time.Duration) {
	c.now = Epoch.Add(offset)
}
