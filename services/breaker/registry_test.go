package breaker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry() *Registry {
	return NewRegistry(zap.NewNop())
}

func geminiFactory() *CircuitBreaker {
	return New("gemini", 3, 30*time.Second, zap.NewNop())
}

func TestRegistry_GetCreatesOnFirstUse(t *testing.T) {
	r := newTestRegistry()

	first := r.Get("gemini", geminiFactory)
	second := r.Get("gemini", func() *CircuitBreaker {
		t.Fatal("factory must not run for an existing key")
		return nil
	})

	assert.Same(t, first, second)
}

func TestRegistry_GetSingleWinnerUnderRaces(t *testing.T) {
	r := newTestRegistry()

	const goroutines = 32
	results := make([]*CircuitBreaker, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = r.Get("gemini", geminiFactory)
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestRegistry_ExecuteUnknownKeyFails(t *testing.T) {
	r := newTestRegistry()

	err := r.Execute(context.Background(), "unregistered", func(context.Context) error {
		t.Fatal("operation must not run for an unknown key")
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBreakerNotFound)
	assert.NotErrorIs(t, err, ErrOpen, "registry usage error is distinct from breaker-open")
}

func TestRegistry_ExecuteThroughBreaker(t *testing.T) {
	r := newTestRegistry()
	r.Get("gemini", func() *CircuitBreaker {
		return New("gemini", 1, 30*time.Second, zap.NewNop())
	})

	require.ErrorIs(t, r.Execute(context.Background(), "gemini", func(context.Context) error {
		return errBoom
	}), errBoom)

	// Breaker opened after one failure; registry surfaces the rejection.
	err := r.Execute(context.Background(), "gemini", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrOpen)
}

func TestRegistry_StateAndResetForgiving(t *testing.T) {
	r := newTestRegistry()

	_, ok := r.State("unknown")
	assert.False(t, ok)

	assert.NotPanics(t, func() { r.Reset("unknown") })
}

func TestRegistry_StatesSnapshot(t *testing.T) {
	r := newTestRegistry()
	r.Get("gemini", func() *CircuitBreaker {
		return New("gemini", 1, 30*time.Second, zap.NewNop())
	})
	r.Get("openai", func() *CircuitBreaker {
		return New("openai", 1, 30*time.Second, zap.NewNop())
	})

	_ = r.Execute(context.Background(), "gemini", func(context.Context) error { return errBoom })

	states := r.States()
	assert.Equal(t, StateOpen, states["gemini"])
	assert.Equal(t, StateClosed, states["openai"])

	r.Reset("gemini")
	state, ok := r.State("gemini")
	require.True(t, ok)
	assert.Equal(t, StateClosed, state)
}

func TestRegistry_IndependentBreakersDoNotContend(t *testing.T) {
	r := newTestRegistry()
	r.Get("gemini", func() *CircuitBreaker {
		return New("gemini", 1, 30*time.Second, zap.NewNop())
	})
	r.Get("openai", func() *CircuitBreaker {
		return New("openai", 1, 30*time.Second, zap.NewNop())
	})

	_ = r.Execute(context.Background(), "gemini", func(context.Context) error { return errBoom })

	// Opening gemini must not affect openai.
	err := r.Execute(context.Background(), "openai", func(context.Context) error { return nil })
	assert.NoError(t, err)
}
