package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/visionassist/ai-gateway/middleware"
	"github.com/visionassist/ai-gateway/services/fallback"
	"github.com/visionassist/ai-gateway/utils"
	"go.uber.org/zap"
)

// DescribeRequest represents an image description request
type DescribeRequest struct {
	Image  string `json:"image" validate:"required,base64"`
	Prompt string `json:"prompt,omitempty" validate:"max=500"`
}

// DescribeResponse represents an image description response
type DescribeResponse struct {
	Description string `json:"description"`
	RequestID   string `json:"request_id,omitempty"`
}

// DescribeService defines the interface for image description operations
type DescribeService interface {
	// DescribeImage produces a textual description of the image
	DescribeImage(ctx context.Context, image []byte, prompt string) (string, error)
}

// DescribeHandler handles image description HTTP requests
type DescribeHandler struct {
	service       DescribeService
	maxImageBytes int64
	logger        *zap.Logger
}

// NewDescribeHandler creates a new DescribeHandler
func NewDescribeHandler(service DescribeService, maxImageBytes int64, logger *zap.Logger) *DescribeHandler {
	return &DescribeHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
		logger:        logger,
	}
}

// HandleDescribe handles POST /v1/describe.
// Degraded results come back as 200 like any other: the response does not
// reveal which tier produced the description.
func (h *DescribeHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req DescribeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxImageBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), toDetails(utils.GetValidationFields(err)))
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		_ = utils.WriteBadRequest(w, "Image is not valid base64", nil)
		return
	}
	if len(image) == 0 {
		_ = utils.WriteBadRequest(w, "Image data cannot be empty", nil)
		return
	}

	description, err := h.service.DescribeImage(ctx, image, req.Prompt)
	if err != nil {
		if errors.Is(err, fallback.ErrAllCandidatesExhausted) {
			// Only reachable when the terminal tier violates its contract.
			h.logger.Error("all description tiers exhausted",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Description is unavailable")
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("image described",
		zap.String("request_id", requestID),
		zap.Int("image_bytes", len(image)))

	_ = utils.WriteOK(w, DescribeResponse{
		Description: description,
		RequestID:   requestID,
	})
}

// toDetails converts validation field errors for the error response body.
func toDetails(fields map[string]string) map[string]interface{} {
	if fields == nil {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}
