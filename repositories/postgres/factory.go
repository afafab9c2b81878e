package postgres

import (
	"github.com/clearrule/policy-control-plane/config"
	"github.com/clearrule/policy-control-plane/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return &repositories.Repositories{
		Policies:   NewPolicyRepository(f.db, f.logger),
		Versions:   NewVersionRepository(f.db, f.logger),
		Approvals:  NewApprovalRepository(f.db, f.logger),
		Users:      NewUserRepository(f.db, f.logger),
		Teams:      NewTeamRepository(f.db, f.logger),
		Usage:      NewUsageRepository(f.db, f.logger),
		Executions: NewExecutionRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
