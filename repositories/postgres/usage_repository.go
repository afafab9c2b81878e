package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageRepository implements the repositories.UsageRepository interface
type UsageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *DB, logger *zap.Logger) repositories.UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves the count for a (user, type, period) key; zero if absent
func (r *UsageRepository) Get(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string) (int, error) {
	query := `
		SELECT count
		FROM usage_records
		WHERE user_id = $1 AND usage_type = $2 AND period = $3
	`

	executor := GetExecutor(ctx, r.db)

	var count int
	err := executor.QueryRowContext(ctx, query, userID, usageType, period).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query usage: %w", err)
	}

	return count, nil
}

// IncrementBy atomically adds delta to a (user, type, period) counter.
// Upsert-with-add semantics: concurrent increments never lose updates.
func (r *UsageRepository) IncrementBy(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string, delta int) error {
	query := `
		INSERT INTO usage_records (user_id, usage_type, period, count, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, usage_type, period)
		DO UPDATE SET
			count = usage_records.count + EXCLUDED.count,
			updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, userID, usageType, period, delta, time.Now()); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	return nil
}
