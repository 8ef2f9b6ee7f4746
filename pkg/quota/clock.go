package quota

import "time"

// Clock abstracts wall-clock reads so window rollovers and burst
// replenishment can be simulated deterministically in tests.
//
// The limiter reads the clock exactly once per operation; it never
// schedules background timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// systemClock reads time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the system wall clock.
func SystemClock() Clock { return systemClock{} }
