package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visionassist/ai-gateway/models"
	"github.com/visionassist/ai-gateway/services/securelog"
	"go.uber.org/zap"
)

// memoryAuditRepository is an in-memory AuditRepository for tests.
type memoryAuditRepository struct {
	mu      sync.Mutex
	records []*models.AuditRecord
}

func (r *memoryAuditRepository) Insert(_ context.Context, record *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *memoryAuditRepository) GetByRequestID(_ context.Context, requestID string) ([]*models.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditRecord
	for _, rec := range r.records {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryAuditRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func TestPersister_StartStop(t *testing.T) {
	repo := &memoryAuditRepository{}
	p := NewPersister(repo, zap.NewNop(), DefaultPersisterConfig())

	require.NoError(t, p.Start())
	assert.Error(t, p.Start(), "double start must fail")
	require.NoError(t, p.Stop(time.Second))
	assert.Error(t, p.Stop(time.Second), "double stop must fail")
}

func TestPersister_WritePersistsRecord(t *testing.T) {
	repo := &memoryAuditRepository{}
	p := NewPersister(repo, zap.NewNop(), PersisterConfig{BufferSize: 16, WorkerCount: 2})
	require.NoError(t, p.Start())

	p.Write(securelog.Record{
		Timestamp: time.Now().UTC(),
		Message:   "AUDIT: api_request",
		Operation: "describe_image",
		Context:   map[string]interface{}{"service": "gemini", "request_id": "req-1"},
		Level:     securelog.LevelAudit,
		Event:     "api_request",
	})

	require.NoError(t, p.Stop(2*time.Second))

	require.Equal(t, 1, repo.count())
	rec := repo.records[0]
	assert.Equal(t, "api_request", rec.Event)
	assert.Equal(t, "describe_image", rec.Operation)
	assert.Equal(t, "req-1", rec.RequestID)
	assert.Contains(t, string(rec.Details), "gemini")
}

func TestPersister_WriteBeforeStartDropsSilently(t *testing.T) {
	repo := &memoryAuditRepository{}
	p := NewPersister(repo, zap.NewNop(), DefaultPersisterConfig())

	assert.NotPanics(t, func() {
		p.Write(securelog.Record{Event: "api_request"})
	})
	assert.Zero(t, repo.count())
}

func TestPersister_AsTransportBehindSink(t *testing.T) {
	repo := &memoryAuditRepository{}
	p := NewPersister(repo, zap.NewNop(), PersisterConfig{BufferSize: 16, WorkerCount: 1})
	require.NoError(t, p.Start())

	sink := securelog.NewSink(p)
	recorder := NewRecorder(sink)
	recorder.LogAPIKeyValidation(context.Background(), "gemini", true)

	require.NoError(t, p.Stop(2*time.Second))
	require.Equal(t, 1, repo.count())
	assert.Equal(t, EventAPIKeyValidation, repo.records[0].Event)
}
