// Package infra provides resilience primitives shared by the Bento API client.
package infra

import (
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation
	CircuitOpen                         // Failing fast, rejecting requests
	CircuitHalfOpen                     // Probing whether the API recovered
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a CircuitBreaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	ResetTimeout     time.Duration // how long to stay open before probing
	HalfOpenMax      int           // probe requests allowed while half-open

	// OnStateChange, if set, is called with the lock released after every transition.
	OnStateChange func(from, to CircuitState)
}

// DefaultBreakerConfig opens after 5 consecutive failures and probes after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMax:      2,
	}
}

// CircuitBreaker fails fast while the Bento API is unhealthy.
type CircuitBreaker struct {
	mu  sync.Mutex
	cfg BreakerConfig
	now func() time.Time

	state            CircuitState
	consecutiveFails int
	lastFailure      time.Time
	halfOpenCount    int
	halfOpenSince    time.Time
}

// NewCircuitBreaker creates a circuit breaker with DefaultBreakerConfig.
func NewCircuitBreaker() *CircuitBreaker {
	return NewCircuitBreakerWithConfig(DefaultBreakerConfig())
}

// NewCircuitBreakerWithConfig creates a circuit breaker. Non-positive values
// fall back to the defaults.
func NewCircuitBreakerWithConfig(cfg BreakerConfig) *CircuitBreaker {
	def := DefaultBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = def.HalfOpenMax
	}
	return &CircuitBreaker{
		cfg:   cfg,
		now:   time.Now,
		state: CircuitClosed,
	}
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	from := cb.state
	allowed := false

	switch cb.state {
	case CircuitClosed:
		allowed = true

	case CircuitOpen:
		if now := cb.now(); now.Sub(cb.lastFailure) > cb.cfg.ResetTimeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenCount = 0
			cb.halfOpenSince = now
			allowed = true
		}

	case CircuitHalfOpen:
		// Probes that never reported back stop holding their slots after ResetTimeout.
		if now := cb.now(); cb.halfOpenCount >= cb.cfg.HalfOpenMax && now.Sub(cb.halfOpenSince) > cb.cfg.ResetTimeout {
			cb.halfOpenCount = 0
			cb.halfOpenSince = now
		}
		if cb.halfOpenCount < cb.cfg.HalfOpenMax {
			cb.halfOpenCount++
			allowed = true
		}
	}

	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return allowed
}

// Release returns a half-open probe slot for a request that ended without
// an outcome, such as one canceled by its caller.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitHalfOpen && cb.halfOpenCount > 0 {
		cb.halfOpenCount--
	}
}

// RecordSuccess resets the failure count and closes a half-open circuit.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	from := cb.state
	cb.consecutiveFails = 0
	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.halfOpenCount = 0
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

// RecordFailure counts a failure and opens the circuit at the threshold.
// Any failure while half-open reopens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	from := cb.state
	cb.consecutiveFails++
	cb.lastFailure = cb.now()

	switch cb.state {
	case CircuitClosed:
		if cb.consecutiveFails >= cb.cfg.FailureThreshold {
			cb.state = CircuitOpen
		}
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.halfOpenCount = 0
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns circuit breaker statistics
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return CircuitBreakerStats{
		State:            cb.state.String(),
		ConsecutiveFails: cb.consecutiveFails,
		LastFailure:      cb.lastFailure,
		RetryAt:          cb.retryAtLocked(),
	}
}

func (cb *CircuitBreaker) retryAtLocked() time.Time {
	switch cb.state {
	case CircuitOpen:
		return cb.lastFailure.Add(cb.cfg.ResetTimeout)
	case CircuitHalfOpen:
		if cb.halfOpenCount < cb.cfg.HalfOpenMax {
			return cb.now()
		}
		return cb.halfOpenSince.Add(cb.cfg.ResetTimeout)
	default:
		return time.Time{}
	}
}

func (cb *CircuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

// CircuitBreakerStats contains circuit breaker statistics
type CircuitBreakerStats struct {
	State            string    `json:"state"`
	ConsecutiveFails int       `json:"consecutive_failures"`
	LastFailure      time.Time `json:"last_failure,omitempty"`
	RetryAt          time.Time `json:"retry_at,omitempty"`
}

// ErrCircuitOpen is returned when the circuit breaker rejects a request
type ErrCircuitOpen struct {
	RetryAt  time.Time
	Failures int
}

func (e *ErrCircuitOpen) Error() string {
	return "circuit breaker is open: Bento API is failing, retry after " + e.RetryAt.Format(time.RFC3339)
}
