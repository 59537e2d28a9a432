package securelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// captureTransport records every Record it receives.
type captureTransport struct {
	records []Record
}

func (t *captureTransport) Write(rec Record) {
	t.records = append(t.records, rec)
}

// panicTransport always panics on write.
type panicTransport struct{}

func (panicTransport) Write(Record) {
	panic("transport exploded")
}

func TestSink_Emit(t *testing.T) {
	capture := &captureTransport{}
	sink := NewSink(capture)
	sink.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	sink.Emit("request failed with api_key=AIzaSyABCDEF1234567890abcdef1234567", "describe_image",
		map[string]interface{}{"token": "abc", "service": "gemini"}, true)

	require.Len(t, capture.records, 1)
	rec := capture.records[0]

	assert.Equal(t, LevelError, rec.Level)
	assert.Equal(t, "describe_image", rec.Operation)
	assert.NotContains(t, rec.Message, "AIzaSy")
	assert.Equal(t, RedactedValue, rec.Context["token"])
	assert.Equal(t, "gemini", rec.Context["service"])
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), rec.Timestamp)
}

func TestSink_EmitInfoLevel(t *testing.T) {
	capture := &captureTransport{}
	sink := NewSink(capture)

	sink.Emit("all good", "", nil, false)

	require.Len(t, capture.records, 1)
	assert.Equal(t, LevelInfo, capture.records[0].Level)
	assert.Empty(t, capture.records[0].Operation)
	assert.Nil(t, capture.records[0].Context)
}

func TestSink_Audit(t *testing.T) {
	capture := &captureTransport{}
	sink := NewSink(capture)

	sink.Audit("circuit_breaker_state_change", "describe_image", map[string]interface{}{
		"service": "gemini",
		"state":   "OPEN",
	})

	require.Len(t, capture.records, 1)
	rec := capture.records[0]
	assert.Equal(t, LevelAudit, rec.Level)
	assert.Equal(t, "circuit_breaker_state_change", rec.Event)
	assert.Equal(t, "AUDIT: circuit_breaker_state_change", rec.Message)
}

func TestSink_TransportPanicIsolated(t *testing.T) {
	capture := &captureTransport{}
	sink := NewSink(panicTransport{}, capture)

	assert.NotPanics(t, func() {
		sink.Emit("still delivered", "", nil, false)
	})

	// The panicking transport must not prevent delivery to later transports.
	require.Len(t, capture.records, 1)
	assert.Equal(t, "still delivered", capture.records[0].Message)
}

func TestSink_SanitizedExactlyOnce(t *testing.T) {
	capture := &captureTransport{}
	sink := NewSink(capture)

	sink.Emit("token=abcdefghij1234567890", "", nil, false)
	require.Len(t, capture.records, 1)
	first := capture.records[0].Message

	// Re-emitting the sanitized message yields the identical record message.
	sink.Emit(first, "", nil, false)
	require.Len(t, capture.records, 2)
	assert.Equal(t, first, capture.records[1].Message)
}

func TestZapTransport_Write(t *testing.T) {
	logger := zap.NewNop()
	transport := NewZapTransport(logger)

	assert.NotPanics(t, func() {
		transport.Write(Record{
			Timestamp: time.Now().UTC(),
			Message:   "message",
			Operation: "op",
			Context:   map[string]interface{}{"k": "v"},
			Level:     LevelWarn,
			Event:     "evt",
		})
	})
}
