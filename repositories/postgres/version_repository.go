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

// VersionRepository implements the repositories.VersionRepository interface
type VersionRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(db *DB, logger *zap.Logger) repositories.VersionRepository {
	return &VersionRepository{
		db:     db,
		logger: logger,
	}
}

const versionColumns = `
	id, policy_id, version, source, source_hash, status, is_default, release_note,
	created_by, created_at, deprecated_at, deprecated_by, archived_at, archived_by
`

// Create inserts a draft version. The dense per-policy version number is
// assigned inside the insert so concurrent drafts never collide; the unique
// (policy_id, version) constraint backs this up.
func (r *VersionRepository) Create(ctx context.Context, version *models.PolicyVersion) error {
	query := `
		INSERT INTO policy_versions
			(id, policy_id, version, source, source_hash, status, is_default, release_note, created_by, created_at)
		VALUES
			($1, $2,
			 (SELECT COALESCE(MAX(version), 0) + 1 FROM policy_versions WHERE policy_id = $2),
			 $3, $4, $5, false, $6, $7, $8)
		RETURNING version
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		version.ID,
		version.PolicyID,
		version.Source,
		version.SourceHash,
		version.Status,
		version.ReleaseNote,
		version.CreatedBy,
		version.CreatedAt,
	).Scan(&version.Version)

	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}

	r.logger.Debug("version created",
		zap.String("id", version.ID.String()),
		zap.String("policy_id", version.PolicyID.String()),
		zap.Int("version", version.Version))
	return nil
}

// GetByID retrieves a version by ID
func (r *VersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM policy_versions WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	return r.scanVersion(executor.QueryRowContext(ctx, query, id))
}

// GetDefault retrieves the default version for a policy, or nil if none
func (r *VersionRepository) GetDefault(ctx context.Context, policyID uuid.UUID) (*models.PolicyVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM policy_versions WHERE policy_id = $1 AND is_default`

	executor := GetExecutor(ctx, r.db)
	version, err := r.scanVersion(executor.QueryRowContext(ctx, query, policyID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return version, err
}

// ListByPolicy retrieves all versions of a policy, newest first
func (r *VersionRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*models.PolicyVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM policy_versions WHERE policy_id = $1 ORDER BY version DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, policyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	versions := make([]*models.PolicyVersion, 0)
	for rows.Next() {
		version := &models.PolicyVersion{}
		if err := scanVersionFields(rows, version); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return versions, nil
}

// UpdateStatus persists a version's status and lifecycle stamps
func (r *VersionRepository) UpdateStatus(ctx context.Context, version *models.PolicyVersion) error {
	query := `
		UPDATE policy_versions
		SET status = $2, deprecated_at = $3, deprecated_by = $4, archived_at = $5, archived_by = $6
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		version.ID,
		version.Status,
		version.DeprecatedAt,
		version.DeprecatedBy,
		version.ArchivedAt,
		version.ArchivedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update version status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.logger.Debug("version status updated",
		zap.String("id", version.ID.String()),
		zap.String("status", string(version.Status)))
	return nil
}

// DemoteDefault clears is_default on a version only if it is still the
// default. The condition makes concurrent promotions race safely: the loser
// sees zero rows affected.
func (r *VersionRepository) DemoteDefault(ctx context.Context, versionID uuid.UUID) (bool, error) {
	query := `UPDATE policy_versions SET is_default = false WHERE id = $1 AND is_default`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, versionID)
	if err != nil {
		return false, fmt.Errorf("failed to demote default version: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkDefault sets is_default on a version only if it is approved
func (r *VersionRepository) MarkDefault(ctx context.Context, versionID uuid.UUID) (bool, error) {
	query := `UPDATE policy_versions SET is_default = true WHERE id = $1 AND status = 'approved'`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, versionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark default version: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// scanVersion scans a single version row
func (r *VersionRepository) scanVersion(row *sql.Row) (*models.PolicyVersion, error) {
	version := &models.PolicyVersion{}
	err := row.Scan(
		&version.ID,
		&version.PolicyID,
		&version.Version,
		&version.Source,
		&version.SourceHash,
		&version.Status,
		&version.IsDefault,
		&version.ReleaseNote,
		&version.CreatedBy,
		&version.CreatedAt,
		&version.DeprecatedAt,
		&version.DeprecatedBy,
		&version.ArchivedAt,
		&version.ArchivedBy,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan version: %w", err)
	}
	return version, nil
}

// scanVersionFields scans a version from a multi-row result set
func scanVersionFields(rows *sql.Rows, version *models.PolicyVersion) error {
	return rows.Scan(
		&version.ID,
		&version.PolicyID,
		&version.Version,
		&version.Source,
		&version.SourceHash,
		&version.Status,
		&version.IsDefault,
		&version.ReleaseNote,
		&version.CreatedBy,
		&version.CreatedAt,
		&version.DeprecatedAt,
		&version.DeprecatedBy,
		&version.ArchivedAt,
		&version.ArchivedBy,
	)
}
