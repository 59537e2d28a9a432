package repositories

import (
	"context"

	"github.com/visionassist/ai-gateway/models"
)

// AuditRepository defines persistence for sanitized audit records.
type AuditRepository interface {
	// Insert writes a single audit record.
	Insert(ctx context.Context, record *models.AuditRecord) error

	// GetByRequestID retrieves all audit records for a request, oldest
	// first. Operational inspection only; the hot path never reads back.
	GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditRecord, error)
}
