package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWait_AllowsWithinBurst(t *testing.T) {
	l := New("test", 100)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestWait_CancelledContext(t *testing.T) {
	l := New("test", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Burn the initial burst so the next Wait has to block.
	_ = l.Wait(context.Background())

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for test")
}
