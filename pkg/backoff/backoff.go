package backoff

import (
	"math/rand"
	"time"
)

// Backoff returns the duration to wait before the given (zero-based) retry attempt.
type Backoff func(attempt uint64) time.Duration

// NewExponentialWithJitter returns a Backoff which doubles the duration for each attempt,
// starting at min and capped at max, and randomizes the result by up to 50%.
// Non-positive min and max default to 100ms and 10s. It panics if min >= max.
func NewExponentialWithJitter(min, max time.Duration) Backoff {
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	if max <= 0 {
		max = 10 * time.Second
	}
	if min >= max {
		panic("max must be larger than min")
	}

	return func(attempt uint64) time.Duration {
		d := min << attempt
		if d <= 0 || d > max {
			d = max
		}

		return time.Duration(jitter(int64(d)))
	}
}

// jitter returns a random integer in [n/2, n).
func jitter(n int64) int64 {
	if n < 2 {
		return n
	}

	return n/2 + rand.Int63n(n/2)
}
