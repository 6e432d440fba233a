package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_EnforcesBurst(t *testing.T) {
	krl := New(0.001, 3) // effectively no refill during the test
	defer krl.Stop()

	assert.True(t, krl.Allow("1.2.3.4"))
	assert.True(t, krl.Allow("1.2.3.4"))
	assert.True(t, krl.Allow("1.2.3.4"))
	assert.False(t, krl.Allow("1.2.3.4"), "fourth request should exceed the burst")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	krl := New(0.001, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("1.2.3.4"))
	assert.False(t, krl.Allow("1.2.3.4"))
	assert.True(t, krl.Allow("5.6.7.8"), "a different key gets its own bucket")
}

func TestPerMinute_Budget(t *testing.T) {
	krl := PerMinute(10, 10)
	defer krl.Stop()

	for i := 0; i < 10; i++ {
		assert.True(t, krl.Allow("ip"), "request %d within budget", i+1)
	}
	assert.False(t, krl.Allow("ip"), "11th request exceeds the per-minute budget")
}

func TestSweep_RemovesIdleEntries(t *testing.T) {
	krl := newWithSweep(1, 1, 20*time.Millisecond)
	defer krl.Stop()

	krl.Allow("a")
	krl.Allow("b")
	assert.Equal(t, 2, krl.size())

	assert.Eventually(t, func() bool {
		return krl.size() == 0
	}, time.Second, 10*time.Millisecond, "idle entries should be swept")
}

func TestStop_IsIdempotent(t *testing.T) {
	krl := New(1, 1)
	krl.Stop()
	krl.Stop()
}
