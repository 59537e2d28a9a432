package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrBreakerNotFound is a registry usage error: the caller asked to
// execute through a breaker that was never registered. It is distinct
// from ErrOpen, which is a runtime rejection by an existing breaker.
var ErrBreakerNotFound = errors.New("circuit breaker not found")

// Registry maps service keys to their circuit breakers, created on first
// use. It is constructed explicitly and injected from the composition
// root; there is no package-level instance. Each breaker is the sole
// mutator of its own state, so the registry lock only guards the map.
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	logger   *zap.Logger
}

// NewRegistry creates an empty breaker registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		breakers: make(map[string]*CircuitBreaker),
		logger:   logger,
	}
}

// Get returns the breaker for service, constructing it via factory and
// storing it on first use. Concurrent callers racing on the same key get
// the same instance: exactly one factory result wins.
func (r *Registry) Get(service string, factory func() *CircuitBreaker) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another goroutine may have created it.
	if cb, ok = r.breakers[service]; ok {
		return cb
	}

	cb = factory()
	r.breakers[service] = cb
	if r.logger != nil {
		r.logger.Info("circuit breaker registered", zap.String("service", service))
	}
	return cb
}

// Execute runs op through the breaker registered for service. Unknown
// keys fail with ErrBreakerNotFound rather than silently passing through.
func (r *Registry) Execute(ctx context.Context, service string, op func(context.Context) error) error {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrBreakerNotFound, service)
	}
	return cb.Execute(ctx, op)
}

// State returns the state of the breaker for service. The second return
// is false for unknown keys.
func (r *Registry) State(service string) (State, bool) {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()

	if !ok {
		return StateClosed, false
	}
	return cb.State(), true
}

// States returns a snapshot of every registered breaker's state.
func (r *Registry) States() map[string]State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for service, cb := range r.breakers {
		states[service] = cb.State()
	}
	return states
}

// Reset forces the breaker for service back to Closed. Unknown keys are a
// no-op: reads and resets are forgiving, execution is strict.
func (r *Registry) Reset(service string) {
	r.mu.RLock()
	cb, ok := r.breakers[service]
	r.mu.RUnlock()

	if ok {
		cb.Reset()
	}
}
