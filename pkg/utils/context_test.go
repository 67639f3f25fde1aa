package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/edithx/rewarder/pkg/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestContextSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		duration       time.Duration
		cancelAfter    time.Duration
		expectedResult utils.SleepResult
	}{
		{
			name:           "sleep completes normally",
			duration:       10 * time.Millisecond,
			expectedResult: utils.SleepCompleted,
		},
		{
			name:           "context cancelled before sleep completes",
			duration:       time.Second,
			cancelAfter:    10 * time.Millisecond,
			expectedResult: utils.SleepCancelled,
		},
		{
			name:           "zero duration sleep",
			duration:       0,
			expectedResult: utils.SleepCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			if tt.cancelAfter > 0 {
				go func() {
					time.Sleep(tt.cancelAfter)
					cancel()
				}()
			}

			assert.Equal(t, tt.expectedResult, utils.ContextSleep(ctx, tt.duration))
		})
	}
}

func TestContextSleepUntilPast(t *testing.T) {
	t.Parallel()

	assert.Equal(t, utils.SleepCompleted, utils.ContextSleepUntil(t.Context(), time.Now().Add(-time.Minute)))
}

func TestIntervalSleep(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)

	assert.True(t, utils.IntervalSleep(t.Context(), time.Millisecond, logger, "test"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.False(t, utils.IntervalSleep(ctx, time.Second, logger, "test"))
	assert.True(t, utils.ContextGuard(ctx))
}
