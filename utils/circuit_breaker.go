// ABOUTME: This file implements the circuit breaker guarding the inference API
// ABOUTME: Failures counted by the breaker open it; an open breaker fails calls without running them
package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Call while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	// StateClosed means the circuit is closed and requests are allowed
	StateClosed CircuitBreakerState = iota
	// StateOpen means the circuit is open and requests are blocked
	StateOpen
	// StateHalfOpen means the circuit is testing if the service has recovered
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	}
	return "unknown"
}

// CircuitBreakerMetrics holds metrics for the circuit breaker
type CircuitBreakerMetrics struct {
	TotalCalls     int64
	TotalFailures  int64
	TotalSuccesses int64
	State          CircuitBreakerState
	LastFailure    time.Time
}

type CircuitBreaker struct {
	failures       int64
	lastFailure    time.Time
	threshold      int
	timeout        time.Duration
	state          CircuitBreakerState
	totalCalls     int64
	totalFailures  int64
	totalSuccesses int64
	countsAsFail   func(error) bool
	now            func() time.Time
	mu             sync.RWMutex
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// failures and half-opens after timeout.
func NewCircuitBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		timeout:      timeout,
		state:        StateClosed,
		countsAsFail: func(err error) bool { return err != nil },
		now:          time.Now,
	}
}

// WithFailurePredicate sets which errors count towards opening the breaker.
// Errors the predicate rejects are returned to the caller but leave the
// failure count untouched.
func (cb *CircuitBreaker) WithFailurePredicate(fn func(error) bool) *CircuitBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.countsAsFail = fn
	return cb
}

// Call executes the provided function with circuit breaker protection
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	cb.totalCalls++

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailure) >= cb.timeout {
		cb.state = StateHalfOpen
	}

	if cb.state == StateOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}

	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.countsAsFail(err) {
		cb.failures++
		cb.totalFailures++
		cb.lastFailure = cb.now()

		if cb.failures >= int64(cb.threshold) || cb.state == StateHalfOpen {
			cb.state = StateOpen
		}
		return err
	}

	if err == nil {
		cb.totalSuccesses++
		cb.failures = 0
		cb.state = StateClosed
	}
	return err
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Healthy reports false only while the breaker is open.
func (cb *CircuitBreaker) Healthy() bool {
	return cb.State() != StateOpen
}

// Failures returns the current failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return int(cb.failures)
}

func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return CircuitBreakerMetrics{
		TotalCalls:     cb.totalCalls,
		TotalFailures:  cb.totalFailures,
		TotalSuccesses: cb.totalSuccesses,
		State:          cb.state,
		LastFailure:    cb.lastFailure,
	}
}
