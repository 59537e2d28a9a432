package app

import (
	"context"
	"fmt"
	"time"

	"github.com/visionassist/ai-gateway/config"
	"github.com/visionassist/ai-gateway/middleware"
	"github.com/visionassist/ai-gateway/repositories"
	"github.com/visionassist/ai-gateway/repositories/postgres"
	"github.com/visionassist/ai-gateway/services/audit"
	"github.com/visionassist/ai-gateway/services/breaker"
	"github.com/visionassist/ai-gateway/services/fallback"
	"github.com/visionassist/ai-gateway/services/securelog"
	"github.com/visionassist/ai-gateway/services/vision"
	"go.uber.org/zap"
)

// Options carries injected implementations the gateway itself does not
// provide. Provider describers plug in here; when absent the gateway
// serves local descriptions only.
type Options struct {
	PrimaryDescriber   vision.Describer
	SecondaryDescriber vision.Describer
}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger
	DB     *postgres.DB // nil when no audit database is configured

	// Audit pipeline
	AuditRecords repositories.AuditRepository
	Persister    *audit.Persister
	Sink         *securelog.Sink
	Recorder     *audit.Recorder

	// Resilience core
	Registry *breaker.Registry
	Selector *fallback.Selector

	// Capabilities
	Vision *vision.Service

	// HTTP middleware
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter // nil when rate limiting is disabled
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	transports := []securelog.Transport{securelog.NewZapTransport(logger)}

	// Audit persistence is optional: without a database, audit events are
	// log-only.
	if cfg.AuditDatabase != nil {
		if err := deps.initAuditPersistence(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize audit persistence: %w", err)
		}
		transports = append(transports, deps.Persister)
	} else {
		logger.Warn("no audit database configured, audit events are log-only")
	}

	deps.Sink = securelog.NewSink(transports...)
	deps.Recorder = audit.NewRecorder(deps.Sink)

	deps.Registry = breaker.NewRegistry(logger)
	deps.Selector = fallback.NewSelector(logger, deps.Recorder)

	deps.initVision(cfg, opts)
	deps.initMiddleware(cfg)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initAuditPersistence connects the audit database and starts the async
// persister workers.
func (d *Dependencies) initAuditPersistence(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(*cfg.AuditDatabase, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect audit database: %w", err)
	}
	d.DB = db

	if err := db.InitAuditSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	d.AuditRecords = postgres.NewAuditRepository(db, d.Logger)
	d.Persister = audit.NewPersister(d.AuditRecords, d.Logger, audit.DefaultPersisterConfig())
	if err := d.Persister.Start(); err != nil {
		return fmt.Errorf("failed to start audit persister: %w", err)
	}

	return nil
}

// initVision wires the describe-image capability over the resilience core.
func (d *Dependencies) initVision(cfg *config.Config, opts Options) {
	if opts.PrimaryDescriber == nil {
		d.Logger.Warn("no vision providers configured, serving local descriptions only")
	}

	d.Vision = vision.NewService(
		vision.Config{
			FailureThreshold: cfg.Resilience.FailureThreshold,
			RecoveryTimeout:  cfg.Resilience.RecoveryTimeout,
		},
		d.Registry,
		d.Selector,
		d.Recorder,
		opts.PrimaryDescriber,
		opts.SecondaryDescriber,
		vision.NewLocalDescriber(),
		d.Logger,
	)
}

// initMiddleware builds the auth and rate-limit middleware.
func (d *Dependencies) initMiddleware(cfg *config.Config) {
	var validator middleware.TokenValidator
	if cfg.Auth.Enabled {
		validator = middleware.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		d.Logger.Warn("auth disabled, protected routes reject all tokens")
		validator = &rejectAllValidator{}
	}
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Recorder, d.Logger)

	if cfg.RateLimit.Enabled {
		d.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, d.Recorder, d.Logger)
	}
}

// rejectAllValidator rejects all tokens (used when auth is not configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain pending audit records before closing the database.
	if d.Persister != nil {
		if err := d.Persister.Stop(10 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit persister: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
