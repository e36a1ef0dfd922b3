package syncx

import "time"

// Clock supplies the current time to the engine. It is injected rather than
// read from ambient state so tests can drive merges deterministically.
type Clock func() time.Time

// SystemClock is the production clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}
