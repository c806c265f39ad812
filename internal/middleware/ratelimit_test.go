package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 3)
	defer rl.Stop()

	limiter := rl.getLimiter("10.0.0.1")
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "запрос %d в пределах burst", i+1)
	}
	assert.False(t, limiter.Allow())
}

func TestRateLimiterSweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.sweepIdle(10 * time.Minute)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	_, stale := rl.clients["10.0.0.1"]
	_, fresh := rl.clients["10.0.0.2"]
	assert.False(t, stale, "молчащий клиент выброшен")
	assert.True(t, fresh, "активный клиент сохранен")
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()

	// После остановки лимитер продолжает отвечать на запросы.
	require.NotNil(t, rl.getLimiter("10.0.0.1"))
}
