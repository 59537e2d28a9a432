package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/visionassist/ai-gateway/services/securelog"
)

// Audit event names emitted by the recorder.
const (
	EventAPIKeyValidation  = "api_key_validation"
	EventAPIRequest        = "api_request"
	EventAPIResponse       = "api_response"
	EventRateLimit         = "rate_limit"
	EventCircuitBreaker    = "circuit_breaker_state_change"
	EventSecurityException = "security_exception"
	EventFallbackFailure   = "fallback_candidate_failure"
	EventFallbackResult    = "fallback_result"
)

// credentialParams flags query-string parameter names that carry
// credentials; matching is a case-insensitive substring check.
var credentialParams = []string{"key", "token", "secret", "password", "auth", "sig", "credential"}

// Recorder is a thin typed front-end over the secure log sink. Every
// helper assembles a domain-specific details mapping (always including a
// timestamp) and forwards it as an audit-class event. Helpers never
// return errors and never raise.
type Recorder struct {
	sink *securelog.Sink
	now  func() time.Time
}

// NewRecorder creates a recorder writing through the given sink.
func NewRecorder(sink *securelog.Sink) *Recorder {
	return &Recorder{
		sink: sink,
		now:  time.Now,
	}
}

// LogAPIKeyValidation records the outcome of validating a service's API
// key. The key itself is never part of the event.
func (r *Recorder) LogAPIKeyValidation(ctx context.Context, service string, valid bool) {
	r.emit(EventAPIKeyValidation, service, map[string]interface{}{
		"service": service,
		"valid":   valid,
	})
}

// LogAPIRequest records an outbound request to a remote service. The
// endpoint is stripped of query-string credential parameters first.
func (r *Recorder) LogAPIRequest(ctx context.Context, service, endpoint string) {
	r.emit(EventAPIRequest, service, map[string]interface{}{
		"service":  service,
		"endpoint": StripEndpointCredentials(endpoint),
	})
}

// LogAPIResponse records the outcome of a remote call.
func (r *Recorder) LogAPIResponse(ctx context.Context, service string, statusCode int, latency time.Duration) {
	r.emit(EventAPIResponse, service, map[string]interface{}{
		"service":     service,
		"status_code": statusCode,
		"latency_ms":  latency.Milliseconds(),
	})
}

// LogRateLimit records a rate-limit decision for a client. The client
// identifier is one-way hashed before inclusion.
func (r *Recorder) LogRateLimit(ctx context.Context, clientID string, limited bool, window string) {
	r.emit(EventRateLimit, "rate_limit", map[string]interface{}{
		"client_hash": HashUserID(clientID),
		"limited":     limited,
		"window":      window,
	})
}

// LogCircuitBreaker records a breaker state transition. States are passed
// as strings to keep the recorder decoupled from the breaker package.
func (r *Recorder) LogCircuitBreaker(ctx context.Context, service, fromState, toState string) {
	r.emit(EventCircuitBreaker, service, map[string]interface{}{
		"service":    service,
		"from_state": fromState,
		"to_state":   toState,
	})
}

// LogSecurityException records a security-relevant failure (bad token,
// rejected credentials, tampering attempts).
func (r *Recorder) LogSecurityException(ctx context.Context, operation, message string) {
	r.emit(EventSecurityException, operation, map[string]interface{}{
		"message": message,
	})
}

// LogFallbackFailure records a non-terminal candidate failure inside the
// fallback chain. Called exactly once per failed attempt, in order.
func (r *Recorder) LogFallbackFailure(ctx context.Context, operation, candidate string, err error) {
	details := map[string]interface{}{
		"operation": operation,
		"candidate": candidate,
	}
	if err != nil {
		details["error"] = err.Error()
	}
	r.emit(EventFallbackFailure, operation, details)
}

// LogFallbackResult records which tier ultimately satisfied an operation.
func (r *Recorder) LogFallbackResult(ctx context.Context, operation, candidate string, tier int) {
	r.emit(EventFallbackResult, operation, map[string]interface{}{
		"operation": operation,
		"candidate": candidate,
		"tier":      tier,
	})
}

// emit stamps the details mapping and forwards to the sink.
func (r *Recorder) emit(event, operation string, details map[string]interface{}) {
	details["timestamp"] = r.now().UTC().Format(time.RFC3339Nano)
	r.sink.Audit(event, operation, details)
}

// HashUserID one-way hashes a user or client identifier so it can be
// correlated across audit events without ever appearing in the clear.
func HashUserID(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:12])
}

// StripEndpointCredentials removes credential-bearing query parameters
// from an endpoint URL before it is logged. Unparseable endpoints fall
// back to full message sanitization.
func StripEndpointCredentials(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return securelog.SanitizeMessage(endpoint)
	}

	query := u.Query()
	changed := false
	for param := range query {
		if isCredentialParam(param) {
			query.Set(param, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// isCredentialParam reports whether a query parameter name carries a
// credential.
func isCredentialParam(param string) bool {
	lower := strings.ToLower(param)
	for _, keyword := range credentialParams {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
