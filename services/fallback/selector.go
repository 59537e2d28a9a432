// Package fallback implements tiered execution of a capability across an
// ordered chain of candidate service implementations, degrading gracefully
// instead of failing.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"github.com/visionassist/ai-gateway/services/audit"
	"go.uber.org/zap"
)

// ErrAllCandidatesExhausted escapes the selector only when the terminal
// fallback candidate itself fails. The terminal candidate is required to
// be infallible by contract, so this error indicates a contract violation.
var ErrAllCandidatesExhausted = errors.New("all candidates exhausted")

// ErrNoCandidates is returned for an empty chain, a wiring error.
var ErrNoCandidates = errors.New("no candidates configured")

// Candidate is one implementation of a capability. The last candidate in a
// chain is the terminal fallback and must be a pure, deterministic,
// locally computable substitute that never fails.
type Candidate[T any] struct {
	Name string
	Call func(ctx context.Context) (T, error)
}

// Selector executes fallback chains, reporting every attempt exactly once,
// in order, through the logger and the audit recorder. It holds no
// per-operation state and is safe for concurrent use.
type Selector struct {
	logger   *zap.Logger
	recorder *audit.Recorder
}

// NewSelector creates a selector. The recorder may be nil when audit
// events are not wanted (tests).
func NewSelector(logger *zap.Logger, recorder *audit.Recorder) *Selector {
	return &Selector{
		logger:   logger,
		recorder: recorder,
	}
}

// Execute tries each candidate's call in order and returns the first
// successful result. A non-terminal candidate's failure (including a
// breaker-open rejection bubbling up from the guarded call) is absorbed:
// logged as a warning with the candidate's identity and the operation
// name, recorded as an audit event, and execution proceeds to the next
// tier. No retries within a candidate, no parallel racing. The returned
// value carries no tier information.
func Execute[T any](ctx context.Context, s *Selector, operation string, candidates []Candidate[T]) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: operation %q", ErrNoCandidates, operation)
	}

	last := len(candidates) - 1
	for tier, candidate := range candidates {
		result, err := candidate.Call(ctx)
		if err == nil {
			s.logger.Debug("candidate satisfied operation",
				zap.String("operation", operation),
				zap.String("candidate", candidate.Name),
				zap.Int("tier", tier))
			if s.recorder != nil && tier > 0 {
				s.recorder.LogFallbackResult(ctx, operation, candidate.Name, tier)
			}
			return result, nil
		}

		if tier == last {
			// The terminal fallback broke its never-fail contract; this
			// is the only path by which the selector fails overall.
			s.logger.Error("terminal fallback candidate failed",
				zap.String("operation", operation),
				zap.String("candidate", candidate.Name),
				zap.Error(err))
			return zero, fmt.Errorf("%w: terminal candidate %q failed for operation %q: %w",
				ErrAllCandidatesExhausted, candidate.Name, operation, err)
		}

		s.logger.Warn("candidate failed, trying next tier",
			zap.String("operation", operation),
			zap.String("candidate", candidate.Name),
			zap.Int("tier", tier),
			zap.Error(err))
		if s.recorder != nil {
			s.recorder.LogFallbackFailure(ctx, operation, candidate.Name, err)
		}
	}

	// Unreachable: the loop always returns from the terminal tier.
	return zero, fmt.Errorf("%w: operation %q", ErrAllCandidatesExhausted, operation)
}
