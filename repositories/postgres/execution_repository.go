package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionRepository implements the repositories.ExecutionRepository interface
type ExecutionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *DB, logger *zap.Logger) repositories.ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends an execution record
func (r *ExecutionRepository) Insert(ctx context.Context, execution *models.Execution) error {
	query := `
		INSERT INTO executions
			(id, user_id, policy_id, policy_version, input, output, error, success, duration_ms, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		execution.ID,
		execution.UserID,
		execution.PolicyID,
		execution.PolicyVersion,
		[]byte(execution.Input),
		nullableJSON(execution.Output),
		execution.Error,
		execution.Success,
		execution.DurationMs,
		execution.Source,
		execution.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	r.logger.Debug("execution inserted",
		zap.String("id", execution.ID.String()),
		zap.Bool("success", execution.Success))
	return nil
}

// GetByID retrieves an execution by ID
func (r *ExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	query := `
		SELECT id, user_id, policy_id, policy_version, input, output, error, success, duration_ms, source, created_at
		FROM executions
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	execution := &models.Execution{}

	var output []byte
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&execution.ID,
		&execution.UserID,
		&execution.PolicyID,
		&execution.PolicyVersion,
		(*[]byte)(&execution.Input),
		&output,
		&execution.Error,
		&execution.Success,
		&execution.DurationMs,
		&execution.Source,
		&execution.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	execution.Output = output
	return execution, nil
}

// ListByUser retrieves executions for a user with pagination, newest first
func (r *ExecutionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Execution, error) {
	query := `
		SELECT id, user_id, policy_id, policy_version, input, output, error, success, duration_ms, source, created_at
		FROM executions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	executions := make([]*models.Execution, 0)
	for rows.Next() {
		execution := &models.Execution{}
		var output []byte
		if err := rows.Scan(
			&execution.ID,
			&execution.UserID,
			&execution.PolicyID,
			&execution.PolicyVersion,
			(*[]byte)(&execution.Input),
			&output,
			&execution.Error,
			&execution.Success,
			&execution.DurationMs,
			&execution.Source,
			&execution.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		execution.Output = output
		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return executions, nil
}

// nullableJSON maps an empty payload to SQL NULL
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
