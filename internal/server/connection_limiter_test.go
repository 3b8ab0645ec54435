package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalConnectionLimiter(t *testing.T) {
	limiter := NewGlobalConnectionLimiter(2)

	assert.True(t, limiter.Acquire())
	assert.True(t, limiter.Acquire())
	assert.False(t, limiter.Acquire(), "third connection should be rejected")

	limiter.Release()
	assert.True(t, limiter.Acquire())
	assert.Equal(t, int64(2), limiter.Current())
}

func TestIPConnectionLimiter(t *testing.T) {
	limiter := NewIPConnectionLimiter(1)

	assert.True(t, limiter.Acquire("1.2.3.4"))
	assert.False(t, limiter.Acquire("1.2.3.4"), "same IP beyond limit rejected")
	assert.True(t, limiter.Acquire("5.6.7.8"), "other IPs unaffected")

	limiter.Release("1.2.3.4")
	assert.True(t, limiter.Acquire("1.2.3.4"))
	assert.Equal(t, 1, limiter.Count("1.2.3.4"))
}

func TestIPConnectionLimiter_ReleaseUnknownIP(t *testing.T) {
	limiter := NewIPConnectionLimiter(1)
	// Must not underflow.
	limiter.Release("9.9.9.9")
	assert.Equal(t, 0, limiter.Count("9.9.9.9"))
}

func TestConnectionRateLimiter(t *testing.T) {
	limiter := NewConnectionRateLimiter(1, 2)

	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("1.2.3.4"))
	assert.False(t, limiter.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, limiter.Allow("5.6.7.8"), "separate bucket per IP")
}

func TestConnectionLimits_AcquireRollsBackOnPerIPRejection(t *testing.T) {
	limits := NewConnectionLimits(10, 1, 1000, 1000)

	ok, reason := limits.Acquire("1.2.3.4")
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = limits.Acquire("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonPerIP, reason)
	// Global slot must have been rolled back.
	assert.Equal(t, int64(1), limits.global.Current())
}

func TestConnectionLimits_GlobalLimit(t *testing.T) {
	limits := NewConnectionLimits(1, 10, 1000, 1000)

	ok, _ := limits.Acquire("1.1.1.1")
	assert.True(t, ok)

	ok, reason := limits.Acquire("2.2.2.2")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)
}
