package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // API called normally
	StateOpen                  // API skipped
	StateHalfOpen              // API on trial
)

type CircuitBreaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	failureThreshold int
	resetTimeout     time.Duration
	now              func() time.Time
}

// New creates a breaker that opens after threshold consecutive failures.
// A threshold below 1 disables the breaker.
func New(threshold int, resetTimeout time.Duration) *CircuitBreaker {
	return NewWithClock(threshold, resetTimeout, time.Now)
}

func NewWithClock(threshold int, resetTimeout time.Duration, now func() time.Time) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     resetTimeout,
		now:              now,
	}
}

func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.resetTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// RecordFailure counts a failed call and reports whether it opened the breaker.
func (cb *CircuitBreaker) RecordFailure() (opened bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.failureThreshold < 1 {
		return false
	}

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == StateOpen {
		return false
	}

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
		return true
	}

	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.state = StateClosed
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}
