// Package retry provides exponential backoff strategies for polling loops.
// When a drain pass fails against the store, the consumer widens its polling
// interval according to a Strategy instead of hammering a broken connection.
package retry

import (
	"fmt"
	"math"
	"time"
)

// Strategy defines backoff behavior for consecutive failures.
//
// The schedule follows: delay = min(BaseDelay * ExponentialBase^(failures-1), MaxDelay)
//
// Example with defaults (1s base, 2.0 exponential, 30s max):
//
//	Failure 1: 1s
//	Failure 2: 2s
//	Failure 3: 4s
//	Failure 6: 32s -> capped at 30s
type Strategy struct {
	BaseDelay       time.Duration // Delay after the first failure
	MaxDelay        time.Duration // Delay cap
	ExponentialBase float64       // Backoff multiplier (e.g., 2.0 for doubling)
}

// DefaultStrategy returns the default poll backoff strategy:
// 1s base doubling up to a 30s cap.
func DefaultStrategy() Strategy {
	return Strategy{
		BaseDelay:       1 * time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
	}
}

// Delay calculates the backoff delay after the given number of consecutive
// failures. Zero failures means no backoff.
func (s Strategy) Delay(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(failures-1))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// Schedule returns a human-readable description of the first n backoff steps.
// Useful for debugging and displaying backoff behavior in logs.
func (s Strategy) Schedule(n int) string {
	schedule := "Backoff Schedule:\n"
	for i := 1; i <= n; i++ {
		schedule += fmt.Sprintf("  Failure %d: wait %v\n", i, s.Delay(i))
	}
	return schedule
}
