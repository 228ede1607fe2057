package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SweepsIdleVisitorsAtMostOncePerHalfTTL(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	rl := NewRateLimiter(60, 1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = start

	rl.get("a")
	clock = start.Add(10 * time.Minute)
	rl.get("b")
	assert.Len(t, rl.visitors, 2)

	// a is idle past the TTL, but the last sweep is too recent.
	clock = start.Add(limiterIdleTTL/2 - time.Second)
	rl.visitors["a"].lastSeen = start.Add(-limiterIdleTTL - time.Minute)
	rl.get("b")
	assert.Contains(t, rl.visitors, "a")

	clock = start.Add(limiterIdleTTL + time.Minute)
	rl.get("b")
	assert.NotContains(t, rl.visitors, "a")
	assert.Contains(t, rl.visitors, "b")
	assert.Equal(t, clock, rl.lastSweep)

	clock = clock.Add(time.Minute)
	rl.visitors["b"].lastSeen = clock.Add(-2 * limiterIdleTTL)
	rl.get("c")
	assert.Contains(t, rl.visitors, "b", "no sweep within half TTL of the last one")
}
