package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
)

// commander is the slice of the go-redis API the limiter needs. Tests
// substitute a fake without a running server.
type commander interface {
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd
}

// AIRateLimiter enforces a fixed-window per-user cap on AI generation
// requests. The window key is bucketed by minute, so a counter that hits
// the limit resets as soon as the next window starts.
//
// Redis failures fail open: a generation request is never rejected
// because the rate limit backend is down.
type AIRateLimiter struct {
	rdb       commander
	clock     clockwork.Clock
	perMinute int
}

// NewAIRateLimiter creates a limiter allowing perMinute AI requests per
// user per minute.
func NewAIRateLimiter(rdb *goredis.Client, clock clockwork.Clock, perMinute int) *AIRateLimiter {
	return &AIRateLimiter{rdb: rdb, clock: clock, perMinute: perMinute}
}

func newAIRateLimiterWithCommander(rdb commander, clock clockwork.Clock, perMinute int) *AIRateLimiter {
	return &AIRateLimiter{rdb: rdb, clock: clock, perMinute: perMinute}
}

// Allow reports whether the user may issue another AI request in the
// current window.
func (l *AIRateLimiter) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	window := l.clock.Now().Unix() / 60
	key := fmt.Sprintf("rate_limit:ai:%s:%d", userID, window)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		slog.Warn("AI rate limit check failed, allowing request", "error", err)
		return true, nil
	}

	if count == 1 {
		// First hit in this window owns the expiry. 2x the window length
		// so clock skew between app and Redis cannot drop a live counter.
		if err := l.rdb.Expire(ctx, key, 2*time.Minute).Err(); err != nil {
			slog.Warn("failed to set AI rate limit expiry", "key", key, "error", err)
		}
	}

	if count > int64(l.perMinute) {
		metrics.AIRateLimitedTotal.Inc()
		return false, nil
	}
	return true, nil
}
