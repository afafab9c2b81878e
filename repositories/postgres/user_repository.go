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

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, email, plan, trial_ends_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	user := &models.User{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Plan,
		&user.TrialEndsAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// UpdatePlan writes a user's plan. Used for the lazy trial downgrade, which
// is best-effort and idempotent.
func (r *UserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	query := `
		UPDATE users SET plan = $2, trial_ends_at = NULL, updated_at = $3 WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, plan, time.Now()); err != nil {
		return fmt.Errorf("failed to update user plan: %w", err)
	}

	r.logger.Debug("user plan updated",
		zap.String("id", id.String()),
		zap.String("plan", plan))
	return nil
}
