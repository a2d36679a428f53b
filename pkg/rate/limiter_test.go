package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNoLimiter(t *testing.T) {
	l := &NoLimiter{}
	for i := 0; i < 10000; i++ {
		allowed, err := l.Allow("")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
	assert.NoError(t, l.Wait(context.Background(), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Wait(ctx, ""))
}

func TestLocalRateLimiter(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(2))

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("getAccountInfo")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := l.Allow("getAccountInfo")
	assert.NoError(t, err)
	assert.False(t, allowed)

	// Methods are limited independently
	for i := 0; i < 2; i++ {
		allowed, err := l.Allow("getBalance")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err = l.Allow("getBalance")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalRateLimiter_Wait(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(20))

	for i := 0; i < 20; i++ {
		require.NoError(t, l.Wait(context.Background(), "a"))
	}

	// The burst is spent, so the next token is ~50ms away
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "a"))
	assert.True(t, time.Since(start) >= 25*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "a"))
}

func TestLocalRateLimiter_FractionalRate(t *testing.T) {
	l := NewLocalRateLimiter(rate.Limit(0.5))

	allowed, err := l.Allow("a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = l.Allow("a")
	require.NoError(t, err)
	assert.False(t, allowed)
}
