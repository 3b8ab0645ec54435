package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
)

// CircuitBreakerHook implements goredis.Hook so every Redis operation runs
// through a shared breaker. While Redis is down the per-request round-trip is
// short-circuited instead of waiting out a dial timeout; callers see an error
// and apply their own degradation (the AI limiter fails open).
type CircuitBreakerHook struct {
	cb *gobreaker.CircuitBreaker
}

var _ goredis.Hook = (*CircuitBreakerHook)(nil)

// NewCircuitBreakerHook creates a breaker that trips at a 60% failure rate
// over at least 5 requests, stays open for 30s, and allows 3 trial requests
// in half-open.
func NewCircuitBreakerHook() *CircuitBreakerHook {
	settings := gobreaker.Settings{
		Name:        "redis",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			slog.Warn("Redis circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.RedisCircuitBreakerStateChanges.WithLabelValues(to.String()).Inc()
			metrics.RedisCircuitBreakerState.Set(stateToFloat(to))
		},
	}
	return &CircuitBreakerHook{cb: gobreaker.NewCircuitBreaker(settings)}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func (h *CircuitBreakerHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := h.cb.Execute(func() (any, error) {
			return next(ctx, network, addr)
		})
		if err != nil {
			return nil, fmt.Errorf("redis dial: %w", err)
		}
		return conn.(net.Conn), nil
	}
}

// ProcessHook wraps command execution. A key miss (goredis.Nil) is a healthy
// reply and must not count against the breaker.
func (h *CircuitBreakerHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			if err := next(ctx, cmd); err != nil && !errors.Is(err, goredis.Nil) {
				return nil, err
			}
			return nil, nil
		})
		if err != nil {
			return fmt.Errorf("redis %s: %w", cmd.Name(), err)
		}
		return cmd.Err()
	}
}

func (h *CircuitBreakerHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		_, err := h.cb.Execute(func() (any, error) {
			return nil, next(ctx, cmds)
		})
		if err != nil {
			return fmt.Errorf("redis pipeline: %w", err)
		}
		return nil
	}
}

// State exposes the breaker state for monitoring and tests.
func (h *CircuitBreakerHook) State() gobreaker.State {
	return h.cb.State()
}

// Counts exposes the breaker counters for monitoring and tests.
func (h *CircuitBreakerHook) Counts() gobreaker.Counts {
	return h.cb.Counts()
}
