package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommander struct {
	counts  map[string]int64
	incrErr error
	expired map[string]time.Duration
}

func newFakeCommander() *fakeCommander {
	return &fakeCommander{
		counts:  make(map[string]int64),
		expired: make(map[string]time.Duration),
	}
}

func (f *fakeCommander) Incr(_ context.Context, key string) *goredis.IntCmd {
	if f.incrErr != nil {
		return goredis.NewIntResult(0, f.incrErr)
	}
	f.counts[key]++
	return goredis.NewIntResult(f.counts[key], nil)
}

func (f *fakeCommander) Expire(_ context.Context, key string, expiration time.Duration) *goredis.BoolCmd {
	f.expired[key] = expiration
	return goredis.NewBoolResult(true, nil)
}

func TestAIRateLimiter_AllowsUpToLimit(t *testing.T) {
	fake := newFakeCommander()
	limiter := newAIRateLimiterWithCommander(fake, clockwork.NewFakeClock(), 3)
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request should be rejected")
}

func TestAIRateLimiter_WindowResets(t *testing.T) {
	fake := newFakeCommander()
	clock := clockwork.NewFakeClock()
	limiter := newAIRateLimiterWithCommander(fake, clock, 1)
	userID := uuid.New()

	allowed, err := limiter.Allow(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), userID)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Next minute uses a fresh key.
	clock.Advance(time.Minute)
	allowed, err = limiter.Allow(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAIRateLimiter_UsersAreIndependent(t *testing.T) {
	fake := newFakeCommander()
	limiter := newAIRateLimiterWithCommander(fake, clockwork.NewFakeClock(), 1)

	allowed, err := limiter.Allow(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAIRateLimiter_FailsOpenOnRedisError(t *testing.T) {
	fake := newFakeCommander()
	fake.incrErr = errors.New("connection refused")
	limiter := newAIRateLimiterWithCommander(fake, clockwork.NewFakeClock(), 1)

	allowed, err := limiter.Allow(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed, "redis outage must not block generation")
}

func TestAIRateLimiter_FailsOpenWhenBreakerOpen(t *testing.T) {
	fake := newFakeCommander()
	fake.incrErr = fmt.Errorf("redis incr: %w", gobreaker.ErrOpenState)
	limiter := newAIRateLimiterWithCommander(fake, clockwork.NewFakeClock(), 1)

	allowed, err := limiter.Allow(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, allowed, "an open breaker degrades like any other redis outage")
}

func TestAIRateLimiter_SetsExpiryOnFirstHit(t *testing.T) {
	fake := newFakeCommander()
	limiter := newAIRateLimiterWithCommander(fake, clockwork.NewFakeClock(), 5)
	userID := uuid.New()

	_, err := limiter.Allow(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, fake.expired, 1)
	for _, ttl := range fake.expired {
		assert.Equal(t, 2*time.Minute, ttl)
	}
}
