package healthcheck

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
		MaxRequests:      1,
	}
}

// fakeClock lets tests move time past the open timeout without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("spoonacular", cfg)
	cb.now = clock.Now
	return cb, clock
}

func failing() error { return fmt.Errorf("upstream failed") }
func succeeding() error { return nil }

func TestNewCircuitBreaker_DefaultValues(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{})

	assert.Equal(t, 5, cb.config.FailureThreshold)
	assert.Equal(t, 2, cb.config.SuccessThreshold)
	assert.Equal(t, 30*time.Second, cb.config.Timeout)
	assert.Equal(t, 3, cb.config.MaxRequests)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_Execute_Success(t *testing.T) {
	cb, _ := newTestBreaker(testBreakerConfig())

	require.NoError(t, cb.Execute(succeeding))

	stats := cb.GetStats()
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.Equal(t, 1, stats.ConsecutiveSuccesses)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(testBreakerConfig())

	for i := 0; i < 2; i++ {
		assert.Error(t, cb.Execute(failing))
		assert.Equal(t, StateClosed, cb.GetState())
	}
	assert.Error(t, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not call through")
	assert.Equal(t, int64(1), cb.GetStats().TotalRejections)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = cb.Execute(failing)
	}
	require.Equal(t, StateOpen, cb.GetState())
	assert.False(t, cb.GetStatus().NextAttempt.IsZero())

	clock.Advance(2 * time.Minute)

	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(testBreakerConfig())
	for i := 0; i < 3; i++ {
		_ = cb.Execute(failing)
	}
	clock.Advance(2 * time.Minute)

	assert.Error(t, cb.Execute(failing))
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cfg := testBreakerConfig()
	cfg.OnStateChange = func(name string, from, to CircuitBreakerState) {
		transitions = append(transitions, fmt.Sprintf("%s:%s->%s", name, from, to))
	}
	cb, _ := newTestBreaker(cfg)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(failing)
	}
	cb.Reset()

	assert.Equal(t, []string{
		"spoonacular:closed->open",
		"spoonacular:open->closed",
	}, transitions)
	assert.Equal(t, CircuitBreakerStats{}, cb.GetStats())
}

func TestCircuitBreakerState_MarshalText(t *testing.T) {
	text, err := StateHalfOpen.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "half-open", string(text))
	assert.Equal(t, "unknown", CircuitBreakerState(42).String())
}
