package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedClock lets tests move time forward deterministically
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time          { return c.now }
func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(maxRequests int, window time.Duration) (*RateLimitService, *fixedClock) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	service := NewRateLimitServiceWithStore(
		RateLimitConfig{MaxRequests: maxRequests, Window: window},
		NewMemoryRateLimitStore(),
		clock.Now,
	)
	return service, clock
}

func TestCheck_UnderLimit(t *testing.T) {
	service, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.NoError(t, service.Check("1.2.3.4:/user/reviews"), "request %d", i+1)
	}
}

func TestCheck_OverLimit(t *testing.T) {
	service, _ := newTestLimiter(3, time.Minute)
	key := "1.2.3.4:/user/reviews"

	for i := 0; i < 3; i++ {
		require.NoError(t, service.Check(key))
	}

	err := service.Check(key)
	require.Error(t, err)

	rateLimitErr, ok := err.(*RateLimitError)
	require.True(t, ok, "error should be RateLimitError")
	assert.Greater(t, rateLimitErr.RetryAfterSeconds, 0)
	assert.LessOrEqual(t, rateLimitErr.RetryAfterSeconds, 60)
}

func TestCheck_KeepsFailingWithinWindow(t *testing.T) {
	service, clock := newTestLimiter(2, time.Minute)
	key := "1.2.3.4:/user/favorites"

	require.NoError(t, service.Check(key))
	require.NoError(t, service.Check(key))
	require.Error(t, service.Check(key))

	// Still inside the same window: repeated attempts stay limited.
	clock.Advance(10 * time.Second)
	assert.Error(t, service.Check(key))
}

func TestCheck_WindowExpiresAfterFirstRequest(t *testing.T) {
	service, clock := newTestLimiter(2, time.Minute)
	key := "1.2.3.4:/user/reviews"

	require.NoError(t, service.Check(key))
	require.NoError(t, service.Check(key))
	require.Error(t, service.Check(key))

	// The budget returns one full window after the key's first request.
	clock.Advance(time.Minute)
	assert.NoError(t, service.Check(key))
}

func TestCheck_WindowAnchoredAtFirstRequestNotClock(t *testing.T) {
	service, clock := newTestLimiter(1, time.Minute)
	key := "1.2.3.4:/user/reviews"

	// First hit lands mid-minute.
	clock.Advance(30 * time.Second)
	require.NoError(t, service.Check(key))
	require.Error(t, service.Check(key))

	// Crossing the wall-clock minute changes nothing; the key stays
	// limited until a full window has passed since its first request.
	clock.Advance(35 * time.Second)
	assert.Error(t, service.Check(key))

	clock.Advance(25 * time.Second)
	assert.NoError(t, service.Check(key))
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	service, _ := newTestLimiter(1, time.Minute)

	require.NoError(t, service.Check("1.2.3.4:/user/reviews"))
	require.Error(t, service.Check("1.2.3.4:/user/reviews"))

	// A different IP and a different route each get their own budget.
	assert.NoError(t, service.Check("5.6.7.8:/user/reviews"))
	assert.NoError(t, service.Check("1.2.3.4:/user/favorites"))
}

func TestIsRateLimited_DoesNotRecordHit(t *testing.T) {
	service, _ := newTestLimiter(2, time.Minute)
	key := "1.2.3.4:/user/reviews"

	// Probing never consumes budget.
	for i := 0; i < 10; i++ {
		assert.False(t, service.IsRateLimited(key))
	}

	require.NoError(t, service.Check(key))
	require.NoError(t, service.Check(key))
	assert.True(t, service.IsRateLimited(key))
}

func TestCleanupExpired(t *testing.T) {
	service, clock := newTestLimiter(5, time.Minute)

	require.NoError(t, service.Check("a"))
	require.NoError(t, service.Check("b"))

	// Nothing stale yet.
	assert.Equal(t, 0, service.CleanupExpired())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, service.CleanupExpired())
	assert.Equal(t, 0, service.CleanupExpired())
}

func TestNewRateLimitService_DefaultsOnZeroConfig(t *testing.T) {
	service := NewRateLimitService(RateLimitConfig{})

	assert.Equal(t, DefaultRateLimitConfig().MaxRequests, service.config.MaxRequests)
	assert.Equal(t, DefaultRateLimitConfig().Window, service.config.Window)
}
