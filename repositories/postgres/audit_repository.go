package postgres

import (
	"context"
	"fmt"

	"github.com/visionassist/ai-gateway/models"
	"github.com/visionassist/ai-gateway/repositories"
	"go.uber.org/zap"
)

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new audit record
func (r *AuditRepository) Insert(ctx context.Context, rec *models.AuditRecord) error {
	query := `
		INSERT INTO audit_records (
			id, event, operation, level, details, request_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Event,
		rec.Operation,
		rec.Level,
		rec.Details,
		rec.RequestID,
		rec.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	r.logger.Debug("audit record inserted",
		zap.String("id", rec.ID.String()),
		zap.String("event", rec.Event))
	return nil
}

// GetByRequestID retrieves all audit records correlated with a request,
// oldest first
func (r *AuditRepository) GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditRecord, error) {
	query := `
		SELECT id, event, operation, level, details, request_id, timestamp
		FROM audit_records
		WHERE request_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*models.AuditRecord
	for rows.Next() {
		rec := &models.AuditRecord{}
		if err := rows.Scan(
			&rec.ID,
			&rec.Event,
			&rec.Operation,
			&rec.Level,
			&rec.Details,
			&rec.RequestID,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}

	return records, nil
}
