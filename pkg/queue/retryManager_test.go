package queue

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryManager_ShouldRetry(t *testing.T) {
	rm := NewRetryManager(3, time.Second)

	tests := []struct {
		name     string
		attempts int
		err      error
		want     bool
	}{
		{"transient error", 1, errors.New("connection reset"), true},
		{"attempts exhausted", 3, errors.New("connection reset"), false},
		{"permanent error", 1, fmt.Errorf("%w: bad payload", ErrPermanent), false},
		{"not found", 1, errors.New("booking not found"), false},
		{"validation", 1, errors.New("validation error: quantity"), false},
		{"nil error", 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Attempts: tt.attempts, MaxRetries: 3}
			got, delay := rm.ShouldRetry(task, tt.err)
			assert.Equal(t, tt.want, got)
			if got {
				assert.Greater(t, delay, time.Duration(0))
			}
		})
	}
}

func TestRetryManager_BackoffIsCapped(t *testing.T) {
	rm := NewRetryManager(10, time.Second)

	for attempt := 1; attempt <= 10; attempt++ {
		delay := rm.calculateBackoff(attempt)
		assert.LessOrEqual(t, delay, 16*time.Second)
		assert.Greater(t, delay, time.Duration(0))
	}
}
