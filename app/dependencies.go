package app

import (
	"context"
	"fmt"
	"time"

	"github.com/clearrule/policy-control-plane/auth"
	"github.com/clearrule/policy-control-plane/config"
	"github.com/clearrule/policy-control-plane/middleware"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/repositories/postgres"
	"github.com/clearrule/policy-control-plane/services/evaluator"
	"github.com/clearrule/policy-control-plane/services/execution"
	"github.com/clearrule/policy-control-plane/services/freeze"
	"github.com/clearrule/policy-control-plane/services/plans"
	"github.com/clearrule/policy-control-plane/services/quota"
	"github.com/clearrule/policy-control-plane/services/versions"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Services
	PlanResolver     *plans.Resolver
	QuotaCounter     *quota.Counter
	VersionService   *versions.Service
	ExecutionService *execution.Service
	ExecutionLogger  *execution.Logger
	Evaluator        evaluator.Evaluator

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)
	deps.initAuth(cfg)

	if err := deps.ExecutionLogger.Start(); err != nil {
		return nil, fmt.Errorf("failed to start execution logger: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, factory and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := d.DB.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Repos = factory.NewRepositories()
	d.TxManager = factory.GetTransactionManager()

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initServices wires the domain services over the repositories
func (d *Dependencies) initServices(cfg *config.Config) {
	catalog := plans.DefaultCatalog()
	d.PlanResolver = plans.NewResolver(catalog, d.Repos.Users, d.Logger)
	d.QuotaCounter = quota.NewCounter(d.Repos.Usage, d.Logger)

	d.VersionService = versions.NewService(
		d.Repos.Versions,
		d.Repos.Approvals,
		d.Repos.Policies,
		d.Repos.Teams,
		d.TxManager,
		d.Logger,
	)

	d.Evaluator = evaluator.NewHTTPClient(cfg.Evaluator, d.Logger)

	d.ExecutionLogger = execution.NewLogger(
		d.Repos.Executions,
		d.QuotaCounter,
		d.Logger,
		execution.LoggerConfig{
			BufferSize:  cfg.ExecutionLog.BufferSize,
			WorkerCount: cfg.ExecutionLog.WorkerCount,
		},
	)

	d.ExecutionService = execution.NewService(
		d.Repos.Policies,
		d.PlanResolver,
		d.QuotaCounter,
		freeze.NewCalculator(),
		d.Evaluator,
		d.ExecutionLogger,
		d.Logger,
	)

	d.Logger.Info("services initialized")
}

// initAuth wires the JWT validator into the auth middleware
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.Secret == "" {
		d.Logger.Warn("auth secret not configured, protected routes will reject all requests")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}

	validator := auth.NewValidator(cfg.Auth)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("auth middleware initialized")
}

// rejectAllValidator rejects all tokens (used when auth is not configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*auth.ParsedClaims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued execution log entries before closing the database
	if d.ExecutionLogger != nil {
		timeout := 10 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.ExecutionLogger.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop execution logger: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
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
