package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStrategy(t *testing.T) {
	s := DefaultStrategy()

	assert.Equal(t, 1*time.Second, s.BaseDelay)
	assert.Equal(t, 30*time.Second, s.MaxDelay)
	assert.Equal(t, 2.0, s.ExponentialBase)
}

func TestStrategy_Delay(t *testing.T) {
	s := DefaultStrategy()

	tests := []struct {
		name     string
		failures int
		expected time.Duration
	}{
		{
			name:     "no failures means no backoff",
			failures: 0,
			expected: 0,
		},
		{
			name:     "negative failures means no backoff",
			failures: -1,
			expected: 0,
		},
		{
			name:     "first failure uses base delay",
			failures: 1,
			expected: 1 * time.Second,
		},
		{
			name:     "second failure doubles",
			failures: 2,
			expected: 2 * time.Second,
		},
		{
			name:     "fourth failure",
			failures: 4,
			expected: 8 * time.Second,
		},
		{
			name:     "delay is capped at max",
			failures: 10,
			expected: 30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Delay(tt.failures))
		})
	}
}

func TestStrategy_DelayCustomBase(t *testing.T) {
	s := Strategy{
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		ExponentialBase: 3.0,
	}

	assert.Equal(t, 500*time.Millisecond, s.Delay(1))
	assert.Equal(t, 1500*time.Millisecond, s.Delay(2))
	assert.Equal(t, 4500*time.Millisecond, s.Delay(3))
	assert.Equal(t, 5*time.Second, s.Delay(4))
}

func TestStrategy_Schedule(t *testing.T) {
	s := DefaultStrategy()
	schedule := s.Schedule(3)

	assert.Contains(t, schedule, "Failure 1: wait 1s")
	assert.Contains(t, schedule, "Failure 2: wait 2s")
	assert.Contains(t, schedule, "Failure 3: wait 4s")
}
