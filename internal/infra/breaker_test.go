package infra

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time past the reset timeout without sleeping.
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg BreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreakerWithConfig(cfg)
	cb.now = clock.Now
	return cb, clock
}

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker()
	if cb == nil {
		t.Fatal("NewCircuitBreaker returned nil")
	}
	if cb.cfg.FailureThreshold != 5 {
		t.Errorf("expected FailureThreshold=5, got %d", cb.cfg.FailureThreshold)
	}
	if cb.cfg.ResetTimeout != 30*time.Second {
		t.Errorf("expected ResetTimeout=30s, got %v", cb.cfg.ResetTimeout)
	}
	if cb.cfg.HalfOpenMax != 2 {
		t.Errorf("expected HalfOpenMax=2, got %d", cb.cfg.HalfOpenMax)
	}
	if cb.state != CircuitClosed {
		t.Errorf("expected state=Closed, got %v", cb.state)
	}
}

func TestNewCircuitBreakerWithConfig_Defaults(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{FailureThreshold: 3})

	if cb.cfg.FailureThreshold != 3 {
		t.Errorf("expected FailureThreshold=3, got %d", cb.cfg.FailureThreshold)
	}
	if cb.cfg.ResetTimeout != 30*time.Second {
		t.Errorf("zero ResetTimeout should default to 30s, got %v", cb.cfg.ResetTimeout)
	}
	if cb.cfg.HalfOpenMax != 2 {
		t.Errorf("zero HalfOpenMax should default to 2, got %d", cb.cfg.HalfOpenMax)
	}
}

func TestCircuitBreaker_Allow_ClosedState(t *testing.T) {
	cb := NewCircuitBreaker()

	for range 100 {
		if !cb.Allow() {
			t.Fatal("closed circuit should allow requests")
		}
	}
}

func TestCircuitBreaker_TransitionToOpen(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != CircuitClosed {
		t.Error("circuit should still be closed after 2 failures")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("circuit should be open after 3 failures, got %v", cb.State())
	}

	if cb.Allow() {
		t.Error("open circuit should reject requests")
	}
}

func TestCircuitBreaker_TransitionToHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute, HalfOpenMax: 1})

	cb.RecordFailure()
	cb.RecordFailure()

	clock.Advance(30 * time.Second)
	if cb.Allow() {
		t.Error("circuit should still reject before the reset timeout")
	}

	clock.Advance(31 * time.Second)
	if !cb.Allow() {
		t.Error("circuit should allow a probe after the reset timeout")
	}
	if cb.State() != CircuitHalfOpen {
		t.Errorf("circuit should be half-open, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenToClosed(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("circuit should close after a successful probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("circuit should reopen after a failed probe, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenMaxRequests(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Second, HalfOpenMax: 2})

	cb.RecordFailure()
	cb.RecordFailure()
	clock.Advance(2 * time.Second)

	// The transition request does not count against HalfOpenMax.
	for i := 1; i <= 3; i++ {
		if !cb.Allow() {
			t.Errorf("request %d should be allowed", i)
		}
	}
	if cb.Allow() {
		t.Error("fourth request should be rejected")
	}
}

func TestCircuitBreaker_RecordSuccessResetsFails(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{FailureThreshold: 5})

	for range 3 {
		cb.RecordFailure()
	}
	cb.RecordSuccess()

	for range 4 {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Error("circuit should still be closed after 4 failures post-success")
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Error("circuit should be open after 5 failures")
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	stats := cb.Stats()
	if stats.State != "closed" {
		t.Errorf("expected state='closed', got %q", stats.State)
	}
	if !stats.RetryAt.IsZero() {
		t.Error("RetryAt should be zero while closed")
	}

	cb.RecordFailure()
	cb.RecordFailure()

	stats = cb.Stats()
	if stats.ConsecutiveFails != 2 {
		t.Errorf("expected 2 consecutive fails, got %d", stats.ConsecutiveFails)
	}
	if stats.LastFailure.IsZero() {
		t.Error("LastFailure should be set")
	}
	if want := stats.LastFailure.Add(time.Minute); !stats.RetryAt.Equal(want) {
		t.Errorf("RetryAt = %v, want %v", stats.RetryAt, want)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		HalfOpenMax:      1,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()
	cb.RecordSuccess()
	cb.RecordSuccess()

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if strings.Join(transitions, ",") != strings.Join(want, ",") {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := []struct {
		state    CircuitState
		expected string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestErrCircuitOpen_Error(t *testing.T) {
	err := &ErrCircuitOpen{RetryAt: time.Now().Add(30 * time.Second), Failures: 5}

	if msg := err.Error(); !strings.Contains(msg, "circuit breaker is open") {
		t.Errorf("error message should contain 'circuit breaker is open', got %q", msg)
	}
}

func TestCircuitBreaker_ConcurrencySafety(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(BreakerConfig{FailureThreshold: 10, ResetTimeout: 100 * time.Millisecond, HalfOpenMax: 5})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(3)
		go func() {
			defer wg.Done()
			cb.Allow()
		}()
		go func() {
			defer wg.Done()
			cb.RecordSuccess()
		}()
		go func() {
			defer wg.Done()
			cb.RecordFailure()
		}()
	}
	wg.Wait()

	state := cb.State()
	if state != CircuitClosed && state != CircuitOpen && state != CircuitHalfOpen {
		t.Errorf("unexpected state: %v", state)
	}
}

func TestCircuitBreaker_Allow_UnknownState(t *testing.T) {
	cb := NewCircuitBreaker()

	cb.mu.Lock()
	cb.state = CircuitState(99)
	cb.mu.Unlock()

	if cb.Allow() {
		t.Error("unknown state should return false")
	}
}

func TestCircuitBreaker_ReleaseFreesProbeSlot(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	clock.Advance(2 * time.Second)

	if !cb.Allow() || !cb.Allow() {
		t.Fatal("transition and probe requests should be allowed")
	}
	if cb.Allow() {
		t.Fatal("probe slots should be exhausted")
	}

	cb.Release()
	if !cb.Allow() {
		t.Error("released slot should admit another probe")
	}
	if cb.State() != CircuitHalfOpen {
		t.Errorf("state = %v, want half-open", cb.State())
	}
}

func TestCircuitBreaker_ReleaseIgnoredOutsideHalfOpen(t *testing.T) {
	cb, _ := newTestBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.Release()
	if cb.State() != CircuitClosed || cb.halfOpenCount != 0 {
		t.Errorf("Release changed a closed breaker: state=%v count=%d", cb.State(), cb.halfOpenCount)
	}

	cb.RecordFailure()
	cb.Release()
	if cb.State() != CircuitOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
}

func TestCircuitBreaker_StaleProbesExpire(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()
	cb.Allow()
	if cb.Allow() {
		t.Fatal("probe slots should be exhausted")
	}

	clock.Advance(2 * time.Second)
	if !cb.Allow() {
		t.Error("probe slots held past ResetTimeout should be reclaimed")
	}
}

func TestCircuitBreaker_RetryAtWhileHalfOpen(t *testing.T) {
	cb, clock := newTestBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second, HalfOpenMax: 1})

	cb.RecordFailure()
	clock.Advance(2 * time.Second)
	cb.Allow()

	if got := cb.Stats().RetryAt; !got.Equal(clock.Now()) {
		t.Errorf("RetryAt with a free probe slot = %v, want now", got)
	}

	cb.Allow()
	want := clock.Now().Add(time.Second)
	if got := cb.Stats().RetryAt; !got.Equal(want) {
		t.Errorf("RetryAt with slots exhausted = %v, want %v", got, want)
	}
}
