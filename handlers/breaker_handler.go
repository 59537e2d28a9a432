package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/visionassist/ai-gateway/middleware"
	"github.com/visionassist/ai-gateway/services/breaker"
	"github.com/visionassist/ai-gateway/utils"
	"go.uber.org/zap"
)

// BreakerStatesResponse maps service keys to breaker state names
type BreakerStatesResponse struct {
	Breakers map[string]string `json:"breakers"`
}

// BreakerHandler exposes circuit breaker state for operators
type BreakerHandler struct {
	registry *breaker.Registry
	logger   *zap.Logger
}

// NewBreakerHandler creates a new BreakerHandler
func NewBreakerHandler(registry *breaker.Registry, logger *zap.Logger) *BreakerHandler {
	return &BreakerHandler{
		registry: registry,
		logger:   logger,
	}
}

// HandleStates handles GET /v1/breakers
func (h *BreakerHandler) HandleStates(w http.ResponseWriter, r *http.Request) {
	states := h.registry.States()

	out := make(map[string]string, len(states))
	for service, state := range states {
		out[service] = state.String()
	}

	_ = utils.WriteOK(w, BreakerStatesResponse{Breakers: out})
}

// HandleState handles GET /v1/breakers/{service}
func (h *BreakerHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	state, ok := h.registry.State(service)
	if !ok {
		_ = utils.WriteNotFound(w, "Unknown service")
		return
	}

	_ = utils.WriteOK(w, map[string]string{
		"service": service,
		"state":   state.String(),
	})
}

// HandleReset handles POST /v1/breakers/{service}/reset.
// Resetting an unknown service is a no-op, matching the registry's
// forgiving reset semantics.
func (h *BreakerHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	h.registry.Reset(service)
	h.logger.Info("circuit breaker reset requested",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("service", service))

	_ = utils.WriteOK(w, map[string]string{
		"service": service,
		"status":  "reset",
	})
}
