package handlers

import (
	"errors"
	"net/http"

	"github.com/visionassist/ai-gateway/services"
	"github.com/visionassist/ai-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	var domainErr *services.DomainError
	var details map[string]interface{}
	if errors.As(err, &domainErr) {
		details = domainErr.Details
	}

	switch {
	case services.IsNotFound(err):
		_ = utils.WriteNotFound(w, err.Error())

	case services.IsValidation(err):
		_ = utils.WriteBadRequest(w, err.Error(), details)

	case services.IsUnauthorized(err):
		_ = utils.WriteUnauthorized(w, err.Error())

	case services.IsRateLimit(err):
		_ = utils.WriteTooManyRequests(w, err.Error(), details)

	case errors.Is(err, services.ErrServiceUnavailable):
		_ = utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse{
			Error:   "service_unavailable",
			Message: err.Error(),
			Details: details,
		})

	case errors.Is(err, services.ErrProviderFailure):
		_ = utils.WriteJSON(w, http.StatusBadGateway, utils.ErrorResponse{
			Error:   "bad_gateway",
			Message: err.Error(),
			Details: details,
		})

	default:
		// Log internal errors but return a generic message.
		logger.Error("internal server error", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")
	}
}
