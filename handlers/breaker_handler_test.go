package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visionassist/ai-gateway/services/breaker"
	"go.uber.org/zap"
)

func newBreakerFixture(t *testing.T) (*BreakerHandler, *breaker.Registry) {
	t.Helper()
	logger := zap.NewNop()
	registry := breaker.NewRegistry(logger)
	registry.Get("gemini", func() *breaker.CircuitBreaker {
		return breaker.New("gemini", 1, 30*time.Second, logger)
	})
	registry.Get("openai", func() *breaker.CircuitBreaker {
		return breaker.New("openai", 1, 30*time.Second, logger)
	})
	return NewBreakerHandler(registry, logger), registry
}

func newBreakerRouter(h *BreakerHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/breakers", h.HandleStates)
	r.Get("/v1/breakers/{service}", h.HandleState)
	r.Post("/v1/breakers/{service}/reset", h.HandleReset)
	return r
}

func TestHandleStates(t *testing.T) {
	h, registry := newBreakerFixture(t)

	// Trip one breaker so states differ.
	_ = registry.Execute(context.Background(), "gemini", func(context.Context) error {
		return errors.New("down")
	})

	rec := httptest.NewRecorder()
	newBreakerRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/breakers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data BreakerStatesResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OPEN", resp.Data.Breakers["gemini"])
	assert.Equal(t, "CLOSED", resp.Data.Breakers["openai"])
}

func TestHandleState(t *testing.T) {
	h, _ := newBreakerFixture(t)
	router := newBreakerRouter(h)

	t.Run("known service", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/breakers/gemini", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "CLOSED")
	})

	t.Run("unknown service", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/breakers/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleReset(t *testing.T) {
	h, registry := newBreakerFixture(t)
	router := newBreakerRouter(h)

	_ = registry.Execute(context.Background(), "gemini", func(context.Context) error {
		return errors.New("down")
	})
	state, _ := registry.State("gemini")
	require.Equal(t, breaker.StateOpen, state)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/breakers/gemini/reset", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	state, _ = registry.State("gemini")
	assert.Equal(t, breaker.StateClosed, state)

	t.Run("unknown service is a forgiving no-op", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/breakers/nope/reset", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
