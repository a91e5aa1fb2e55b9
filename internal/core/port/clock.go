package port

import "time"

// Clock is an injectable time source so lock and token expiry can be tested
// deterministically.
type Clock func() time.Time

// SystemClock returns a Clock backed by the wall clock, in UTC.
func SystemClock() Clock {
	return func() time.Time {
		return time.Now().UTC()
	}
}
