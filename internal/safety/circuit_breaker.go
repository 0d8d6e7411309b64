package safety

import (
	"sync"
	"time"

	apperrors "github.com/ducminhle1904/trade-setup-engine/internal/errors"
)

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold uint32        // consecutive failures before opening
	SuccessThreshold uint32        // half-open successes before closing
	Timeout          time.Duration // open period before a probe is allowed
}

// DefaultCircuitBreakerConfig trips after 5 failures and probes again after 30s
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 1, Timeout: 30 * time.Second}
}

// CircuitBreaker stops calling a dependency after repeated failures
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    uint32
	successes   uint32
	nextAttempt time.Time

	onStateChange func(from, to CircuitBreakerState)
	now           func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker. Zero config fields take the defaults.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	defaults := DefaultCircuitBreakerConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}

	return &CircuitBreaker{name: name, config: config, state: StateClosed, now: time.Now}
}

// OnStateChange registers a callback run synchronously on every transition
func (cb *CircuitBreaker) OnStateChange(fn func(from, to CircuitBreakerState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Call runs fn unless the circuit is open
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.failures, cb.successes = 0, 0
	fn := cb.transition(StateClosed)
	cb.mu.Unlock()
	fn()
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.now().Before(cb.nextAttempt) {
		retryIn := cb.nextAttempt.Sub(cb.now()).Round(time.Second)
		cb.mu.Unlock()
		return apperrors.New(apperrors.ErrorCategoryExchange, "safety", cb.name, "circuit breaker is open").
			WithRetryable(false).
			WithContext("retryIn", retryIn.String())
	}
	cb.successes = 0
	fn := cb.transition(StateHalfOpen)
	cb.mu.Unlock()
	fn()
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	fn := func() {}

	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.nextAttempt = cb.now().Add(cb.config.Timeout)
			fn = cb.transition(StateOpen)
		}
	} else {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				fn = cb.transition(StateClosed)
			}
		}
	}

	cb.mu.Unlock()
	fn()
}

// transition must be called with mu held; the returned func fires the callback after unlock
func (cb *CircuitBreaker) transition(to CircuitBreakerState) func() {
	from := cb.state
	cb.state = to
	callback := cb.onStateChange
	if callback == nil || from == to {
		return func() {}
	}
	return func() { callback(from, to) }
}
