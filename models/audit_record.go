package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditRecord is a persisted, already-sanitized audit event. Records are
// write-once from the resilience core's perspective; lookups exist only
// for operational inspection.
type AuditRecord struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Event     string          `json:"event" db:"event"`
	Operation string          `json:"operation,omitempty" db:"operation"`
	Level     string          `json:"level" db:"level"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	RequestID string          `json:"request_id,omitempty" db:"request_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditRecord model
func (AuditRecord) TableName() string {
	return "audit_records"
}

// NewAuditRecord creates a new AuditRecord instance
func NewAuditRecord(event, operation, level string) *AuditRecord {
	return &AuditRecord{
		ID:        uuid.New(),
		Event:     event,
		Operation: operation,
		Level:     level,
		Timestamp: time.Now(),
	}
}

// WithDetails sets the details mapping, silently dropping values that
// cannot be marshalled
func (a *AuditRecord) WithDetails(details interface{}) *AuditRecord {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets the originating request ID
func (a *AuditRecord) WithRequest(requestID string) *AuditRecord {
	a.RequestID = requestID
	return a
}

// WithTimestamp overrides the creation timestamp
func (a *AuditRecord) WithTimestamp(ts time.Time) *AuditRecord {
	a.Timestamp = ts
	return a
}
