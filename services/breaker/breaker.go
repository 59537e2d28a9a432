package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrOpen is returned when the breaker rejects a call without invoking the
// wrapped operation (Open state, recovery timeout not yet elapsed, or a
// half-open probe already in flight).
var ErrOpen = errors.New("circuit breaker is open")

// State represents the breaker state machine position.
type State int

const (
	// StateClosed is normal operation; calls pass through.
	StateClosed State = iota
	// StateOpen blocks calls until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen allows exactly one probe call before deciding.
	StateHalfOpen
)

// String returns the canonical name of the state.
func (s State) String() string {
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

// StateChangeFunc observes breaker transitions. It is invoked synchronously
// in transition order for a given breaker and must not block. Panics are
// isolated and never affect the committed transition.
type StateChangeFunc func(service string, from, to State)

// CircuitBreaker guards calls to a single unreliable remote service.
// Thresholds and timeout are fixed at construction. Time is evaluated
// lazily, at the moment Execute is called; there is no background timer.
type CircuitBreaker struct {
	mu sync.Mutex

	service          string
	state            State
	failures         int
	lastFailure      time.Time
	failureThreshold int
	recoveryTimeout  time.Duration

	// probing serializes the Open -> HalfOpen transition so at most one
	// probe call is in flight.
	probing bool

	onStateChange StateChangeFunc
	logger        *zap.Logger
	now           func() time.Time
}

// New creates a circuit breaker for the named service.
func New(service string, failureThreshold int, recoveryTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		service:          service,
		state:            StateClosed,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// OnStateChange registers the transition observer. At most one observer is
// supported; registering replaces the previous one.
func (cb *CircuitBreaker) OnStateChange(fn StateChangeFunc) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Service returns the service key this breaker guards.
func (cb *CircuitBreaker) Service() string {
	return cb.service
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive-failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Execute runs op under breaker protection. While Open and inside the
// recovery window it fails fast with ErrOpen without invoking op. A
// cancelled or timed-out operation counts as a failure.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterCall(err)
	return err
}

// beforeCall admits or rejects the call, committing any Open -> HalfOpen
// transition before the operation runs.
func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) <= cb.recoveryTimeout {
			return fmt.Errorf("%w: service %q rejecting calls", ErrOpen, cb.service)
		}
		cb.transition(StateHalfOpen)
		cb.probing = true
		return nil
	case StateHalfOpen:
		// A probe is already in flight; concurrent callers fail fast.
		return fmt.Errorf("%w: service %q probe in flight", ErrOpen, cb.service)
	default:
		return nil
	}
}

// afterCall records the operation outcome and commits the resulting
// transition, if any.
func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen {
			cb.probing = false
			cb.transition(StateClosed)
		}
		cb.failures = 0
		return
	}

	switch cb.state {
	case StateHalfOpen:
		// Failed probe: reopen with a fresh recovery window. The failure
		// count stays at/above the threshold; it is not incremented.
		cb.probing = false
		cb.lastFailure = cb.now()
		cb.transition(StateOpen)
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.lastFailure = cb.now()
			cb.transition(StateOpen)
		}
	}
}

// Reset forces the breaker Closed, zeroing the failure count and the last
// failure timestamp. The observer fires only when the state actually
// changed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.lastFailure = time.Time{}
	cb.probing = false
	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
}

// transition commits a state change and notifies the observer. Callers
// must hold cb.mu. Same-state transitions are never re-fired, and an
// observer panic cannot undo the committed change.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	if cb.logger != nil {
		cb.logger.Info("circuit breaker state change",
			zap.String("service", cb.service),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Int("failures", cb.failures))
	}

	if cb.onStateChange != nil {
		func() {
			defer func() { _ = recover() }()
			cb.onStateChange(cb.service, from, to)
		}()
	}
}

// Call runs a value-returning operation through the breaker. On rejection
// or failure the zero value of T is returned alongside the error.
func Call[T any](ctx context.Context, cb *CircuitBreaker, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := cb.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
