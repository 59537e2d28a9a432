package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/visionassist/ai-gateway/models"
	"github.com/visionassist/ai-gateway/repositories"
	"github.com/visionassist/ai-gateway/services/securelog"
	"go.uber.org/zap"
)

// PersisterConfig holds configuration for the Persister
type PersisterConfig struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultPersisterConfig returns the default configuration
func DefaultPersisterConfig() PersisterConfig {
	return PersisterConfig{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// Persister is a securelog.Transport that asynchronously persists audit
// records to a repository. Writes never block the caller: records are
// queued on a buffered channel and dropped with a warning when full.
type Persister struct {
	repo        repositories.AuditRepository
	logger      *zap.Logger
	recordChan  chan securelog.Record
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex
}

// NewPersister creates a new Persister instance
func NewPersister(repo repositories.AuditRepository, logger *zap.Logger, config PersisterConfig) *Persister {
	return &Persister{
		repo:        repo,
		logger:      logger,
		recordChan:  make(chan securelog.Record, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (p *Persister) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("audit persister already started")
	}

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	p.logger.Info("started audit persister",
		zap.Int("worker_count", p.workerCount),
		zap.Int("buffer_size", p.bufferSize))

	return nil
}

// Stop gracefully stops the persister, waiting for pending records to be
// written until the timeout expires.
func (p *Persister) Stop(timeout time.Duration) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return fmt.Errorf("audit persister not started")
	}
	p.started = false
	p.mu.Unlock()

	p.logger.Info("stopping audit persister", zap.Int("pending_records", len(p.recordChan)))

	// Close the channel; no more records will be accepted.
	close(p.recordChan)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("audit persister stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit persister stop timeout after %v", timeout)
	}
}

// Write implements securelog.Transport. It enqueues the record without
// blocking; a full buffer drops the record with a warning.
func (p *Persister) Write(rec securelog.Record) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	select {
	case p.recordChan <- rec:
	default:
		p.logger.Warn("audit record buffer full, dropping record",
			zap.String("event", rec.Event),
			zap.String("operation", rec.Operation))
	}
}

// worker drains records from the channel into the repository
func (p *Persister) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("audit persister worker started", zap.Int("worker_id", id))

	for rec := range p.recordChan {
		if err := p.persist(rec); err != nil {
			p.logger.Error("failed to persist audit record",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("event", rec.Event))
		}
	}

	p.logger.Debug("audit persister worker stopped", zap.Int("worker_id", id))
}

// persist converts a sanitized record into a model row and inserts it
func (p *Persister) persist(rec securelog.Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := models.NewAuditRecord(rec.Event, rec.Operation, rec.Level).
		WithDetails(rec.Context).
		WithTimestamp(rec.Timestamp)

	if requestID, ok := rec.Context["request_id"].(string); ok {
		record.WithRequest(requestID)
	}

	if err := p.repo.Insert(ctx, record); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}
