package vision

import (
	"context"
	"time"

	"github.com/visionassist/ai-gateway/services/audit"
	"github.com/visionassist/ai-gateway/services/breaker"
	"github.com/visionassist/ai-gateway/services/fallback"
	"go.uber.org/zap"
)

// OperationDescribeImage tags describe-image attempts in logs and audit
// events.
const OperationDescribeImage = "describe_image"

// Config holds breaker tuning shared by all remote describers.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultConfig returns the default resilience tuning.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

// Service orchestrates the describe-image capability: remote describers
// are guarded by per-service circuit breakers from the registry and
// chained through the fallback selector, with the local describer as the
// mandatory terminal tier.
type Service struct {
	config    Config
	registry  *breaker.Registry
	selector  *fallback.Selector
	recorder  *audit.Recorder
	primary   Describer
	secondary Describer // optional
	terminal  Describer
	logger    *zap.Logger
}

// NewService creates a vision service. primary and secondary may be nil
// (the gateway then degrades to the local tier); terminal is mandatory
// and must never fail.
func NewService(
	config Config,
	registry *breaker.Registry,
	selector *fallback.Selector,
	recorder *audit.Recorder,
	primary, secondary, terminal Describer,
	logger *zap.Logger,
) *Service {
	s := &Service{
		config:    config,
		registry:  registry,
		selector:  selector,
		recorder:  recorder,
		primary:   primary,
		secondary: secondary,
		terminal:  terminal,
		logger:    logger,
	}

	// Pre-register breakers so their transitions are auditable from the
	// first call, and route every transition into the audit trail.
	for _, d := range []Describer{primary, secondary} {
		if d == nil {
			continue
		}
		cb := s.breakerFor(d)
		cb.OnStateChange(func(service string, from, to breaker.State) {
			s.recorder.LogCircuitBreaker(context.Background(), service, from.String(), to.String())
		})
	}

	return s
}

// DescribeImage produces a description of image, degrading through the
// candidate tiers. Under normal configuration it never returns an error:
// only a terminal-tier contract violation escapes.
func (s *Service) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	candidates := make([]fallback.Candidate[string], 0, 3)
	if s.primary != nil {
		candidates = append(candidates, s.guarded(s.primary, image, prompt))
	}
	if s.secondary != nil {
		candidates = append(candidates, s.guarded(s.secondary, image, prompt))
	}
	candidates = append(candidates, fallback.Candidate[string]{
		Name: s.terminal.Name(),
		Call: func(ctx context.Context) (string, error) {
			return s.terminal.Describe(ctx, image, prompt)
		},
	})

	return fallback.Execute(ctx, s.selector, OperationDescribeImage, candidates)
}

// guarded wraps a remote describer in its circuit breaker.
func (s *Service) guarded(d Describer, image []byte, prompt string) fallback.Candidate[string] {
	cb := s.breakerFor(d)
	endpoint := ""
	if ep, ok := d.(EndpointProvider); ok {
		endpoint = ep.Endpoint()
	}
	return fallback.Candidate[string]{
		Name: d.Name(),
		Call: func(ctx context.Context) (string, error) {
			return breaker.Call(ctx, cb, func(ctx context.Context) (string, error) {
				start := time.Now()
				s.recorder.LogAPIRequest(ctx, d.Name(), endpoint)
				description, err := d.Describe(ctx, image, prompt)
				status := 200
				if err != nil {
					status = 0
				}
				s.recorder.LogAPIResponse(ctx, d.Name(), status, time.Since(start))
				return description, err
			})
		},
	}
}

// breakerFor returns the registry breaker for a describer, creating it
// with the service's tuning on first use.
func (s *Service) breakerFor(d Describer) *breaker.CircuitBreaker {
	return s.registry.Get(d.Name(), func() *breaker.CircuitBreaker {
		return breaker.New(d.Name(), s.config.FailureThreshold, s.config.RecoveryTimeout, s.logger)
	})
}
