package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearrule/policy-control-plane/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	dsn := cfg.DSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Users table
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			plan VARCHAR(50) NOT NULL DEFAULT 'free',
			trial_ends_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Team members table
		CREATE TABLE IF NOT EXISTS team_members (
			team_id UUID NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (team_id, user_id)
		);

		-- Policies table
		CREATE TABLE IF NOT EXISTS policies (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			team_id UUID,
			name VARCHAR(255) NOT NULL,
			is_public BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		-- Policy versions table. Versions are immutable snapshots and are
		-- never deleted, even when the owning policy is soft-deleted.
		CREATE TABLE IF NOT EXISTS policy_versions (
			id UUID PRIMARY KEY,
			policy_id UUID NOT NULL REFERENCES policies(id),
			version INTEGER NOT NULL,
			source TEXT NOT NULL,
			source_hash VARCHAR(64) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'draft',
			is_default BOOLEAN NOT NULL DEFAULT false,
			release_note TEXT NOT NULL DEFAULT '',
			created_by UUID NOT NULL REFERENCES users(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deprecated_at TIMESTAMP,
			deprecated_by UUID,
			archived_at TIMESTAMP,
			archived_by UUID,
			UNIQUE (policy_id, version)
		);

		-- At most one default version per policy, enforced by the store
		CREATE UNIQUE INDEX IF NOT EXISTS idx_policy_versions_default
			ON policy_versions(policy_id) WHERE is_default;

		-- Approval records table (append-only)
		CREATE TABLE IF NOT EXISTS approval_records (
			id UUID PRIMARY KEY,
			version_id UUID NOT NULL REFERENCES policy_versions(id),
			approver_id UUID NOT NULL REFERENCES users(id),
			decision VARCHAR(20) NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Usage records table
		CREATE TABLE IF NOT EXISTS usage_records (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			usage_type VARCHAR(20) NOT NULL,
			period VARCHAR(7) NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, usage_type, period)
		);

		-- Executions table (append-only)
		CREATE TABLE IF NOT EXISTS executions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			policy_id UUID NOT NULL REFERENCES policies(id),
			policy_version INTEGER,
			input JSONB NOT NULL,
			output JSONB,
			error TEXT,
			success BOOLEAN NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			source VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_policies_owner_id ON policies(owner_id);
		CREATE INDEX IF NOT EXISTS idx_policies_owner_ranking ON policies(owner_id, updated_at DESC, id ASC) WHERE deleted_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_policy_versions_policy_id ON policy_versions(policy_id);
		CREATE INDEX IF NOT EXISTS idx_policy_versions_status ON policy_versions(status);
		CREATE INDEX IF NOT EXISTS idx_approval_records_version_id ON approval_records(version_id);
		CREATE INDEX IF NOT EXISTS idx_executions_user_id ON executions(user_id);
		CREATE INDEX IF NOT EXISTS idx_executions_policy_id ON executions(policy_id);
		CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
