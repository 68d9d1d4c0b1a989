package driver

import "time"

// Clock abstracts wall time so the drive loop can be tested without
// real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// WallClock is the Clock used outside of tests.
type WallClock struct{}

func (WallClock) Now() time.Time        { return time.Now() }
func (WallClock) Sleep(d time.Duration) { time.Sleep(d) }
