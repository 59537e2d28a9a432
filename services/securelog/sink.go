package securelog

import (
	"time"

	"go.uber.org/zap"
)

// Log levels carried on emitted records.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelAudit = "audit"
)

// Record is a sanitized, structured log entry. Sanitization happens
// exactly once, in the Sink, before any transport sees the record.
type Record struct {
	Timestamp time.Time              `json:"timestamp"`
	Message   string                 `json:"message"`
	Operation string                 `json:"operation,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event,omitempty"` // set for audit-class records
}

// Transport writes sanitized records to an underlying destination.
// Implementations must not assume they are the only transport.
type Transport interface {
	Write(rec Record)
}

// Sink sanitizes messages and context mappings and fans the resulting
// record out to its transports. Emission never returns an error and never
// panics: a misbehaving transport is isolated from the caller.
type Sink struct {
	transports []Transport
	now        func() time.Time
}

// NewSink creates a sink writing to the given transports.
func NewSink(transports ...Transport) *Sink {
	return &Sink{
		transports: transports,
		now:        time.Now,
	}
}

// Emit sanitizes and writes a log record. The operation tag and context
// mapping are optional (empty string / nil).
func (s *Sink) Emit(message, operation string, context map[string]interface{}, isError bool) {
	level := LevelInfo
	if isError {
		level = LevelError
	}
	s.write(Record{
		Timestamp: s.now().UTC(),
		Message:   SanitizeMessage(message),
		Operation: operation,
		Context:   SanitizeContext(context),
		Level:     level,
	})
}

// Warn sanitizes and writes a warning-level record.
func (s *Sink) Warn(message, operation string, context map[string]interface{}) {
	s.write(Record{
		Timestamp: s.now().UTC(),
		Message:   SanitizeMessage(message),
		Operation: operation,
		Context:   SanitizeContext(context),
		Level:     LevelWarn,
	})
}

// Audit sanitizes and writes an audit-class record.
func (s *Sink) Audit(event, operation string, details map[string]interface{}) {
	s.write(Record{
		Timestamp: s.now().UTC(),
		Message:   "AUDIT: " + SanitizeMessage(event),
		Operation: operation,
		Context:   SanitizeContext(details),
		Level:     LevelAudit,
		Event:     event,
	})
}

// write fans a record out to all transports, isolating panics so a broken
// transport cannot take down the caller or skip later transports.
func (s *Sink) write(rec Record) {
	for _, t := range s.transports {
		func() {
			defer func() { _ = recover() }()
			t.Write(rec)
		}()
	}
}

// ZapTransport writes records to a zap logger.
type ZapTransport struct {
	logger *zap.Logger
}

// NewZapTransport creates a transport backed by the given logger.
func NewZapTransport(logger *zap.Logger) *ZapTransport {
	return &ZapTransport{logger: logger}
}

// Write writes a single record at its corresponding zap level.
func (t *ZapTransport) Write(rec Record) {
	fields := make([]zap.Field, 0, 4)
	if rec.Operation != "" {
		fields = append(fields, zap.String("operation", rec.Operation))
	}
	if rec.Event != "" {
		fields = append(fields, zap.String("event", rec.Event))
	}
	if rec.Context != nil {
		fields = append(fields, zap.Any("context", rec.Context))
	}
	fields = append(fields, zap.Time("record_timestamp", rec.Timestamp))

	switch rec.Level {
	case LevelError:
		t.logger.Error(rec.Message, fields...)
	case LevelWarn:
		t.logger.Warn(rec.Message, fields...)
	default:
		t.logger.Info(rec.Message, fields...)
	}
}
