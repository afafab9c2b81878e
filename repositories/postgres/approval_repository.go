package postgres

import (
	"context"
	"fmt"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalRepository implements the repositories.ApprovalRepository interface
type ApprovalRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *DB, logger *zap.Logger) repositories.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends an approval record
func (r *ApprovalRepository) Insert(ctx context.Context, record *models.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records (id, version_id, approver_id, decision, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		record.ID,
		record.VersionID,
		record.ApproverID,
		record.Decision,
		record.Comment,
		record.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert approval record: %w", err)
	}

	r.logger.Debug("approval record inserted",
		zap.String("version_id", record.VersionID.String()),
		zap.String("decision", string(record.Decision)))
	return nil
}

// ListByVersion retrieves all approval records for a version, newest first
func (r *ApprovalRepository) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.ApprovalRecord, error) {
	query := `
		SELECT id, version_id, approver_id, decision, comment, created_at
		FROM approval_records
		WHERE version_id = $1
		ORDER BY created_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval records: %w", err)
	}
	defer rows.Close()

	records := make([]*models.ApprovalRecord, 0)
	for rows.Next() {
		record := &models.ApprovalRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.VersionID,
			&record.ApproverID,
			&record.Decision,
			&record.Comment,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan approval record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
