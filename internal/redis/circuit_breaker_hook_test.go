package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerHook_NormalOperation(t *testing.T) {
	hook := NewCircuitBreakerHook()
	ctx := context.Background()

	assert.Equal(t, gobreaker.StateClosed, hook.State())

	for i := 0; i < 10; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			return nil
		})
		err := processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
		assert.NoError(t, err)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	counts := hook.Counts()
	assert.Equal(t, uint32(10), counts.Requests)
	assert.Equal(t, uint32(0), counts.TotalFailures)
}

func TestCircuitBreakerHook_KeyMissIsNotAFailure(t *testing.T) {
	hook := NewCircuitBreakerHook()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			cmd.SetErr(goredis.Nil)
			return goredis.Nil
		})
		err := processHook(ctx, goredis.NewStringCmd(ctx, "get", "missing"))
		assert.ErrorIs(t, err, goredis.Nil)
	}

	assert.Equal(t, gobreaker.StateClosed, hook.State())
	assert.Equal(t, uint32(0), hook.Counts().TotalFailures)
}

func TestCircuitBreakerHook_OpensAfterSustainedFailures(t *testing.T) {
	hook := NewCircuitBreakerHook()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			return errors.New("connection refused")
		})
		err := processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
		assert.Error(t, err)
	}

	assert.Equal(t, gobreaker.StateOpen, hook.State())
}

func TestCircuitBreakerHook_FailsFastWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			return errors.New("redis down")
		})
		_ = processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	called := false
	processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		called = true
		return nil
	})
	err := processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called, "Redis must not be called while the breaker is open")
}

func TestCircuitBreakerHook_RecoveryToHalfOpen(t *testing.T) {
	hook := &CircuitBreakerHook{
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "redis-test",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     50 * time.Millisecond,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			return errors.New("failure")
		})
		_ = processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	time.Sleep(100 * time.Millisecond)

	processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		return nil
	})
	err := processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
	require.NoError(t, err)

	assert.Equal(t, gobreaker.StateHalfOpen, hook.State())
}

func TestCircuitBreakerHook_PipelineFailsFastWhenOpen(t *testing.T) {
	hook := NewCircuitBreakerHook()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		processHook := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
			return errors.New("redis down")
		})
		_ = processHook(ctx, goredis.NewIntCmd(ctx, "incr", "key"))
	}
	require.Equal(t, gobreaker.StateOpen, hook.State())

	pipelineHook := hook.ProcessPipelineHook(func(ctx context.Context, cmds []goredis.Cmder) error {
		t.Fatal("pipeline must not run while the breaker is open")
		return nil
	})
	err := pipelineHook(ctx, []goredis.Cmder{goredis.NewIntCmd(ctx, "incr", "key")})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestStateToFloat(t *testing.T) {
	assert.Equal(t, float64(0), stateToFloat(gobreaker.StateClosed))
	assert.Equal(t, float64(1), stateToFloat(gobreaker.StateHalfOpen))
	assert.Equal(t, float64(2), stateToFloat(gobreaker.StateOpen))
}
