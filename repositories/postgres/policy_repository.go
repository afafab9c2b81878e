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

// PolicyRepository implements the repositories.PolicyRepository interface
type PolicyRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *DB, logger *zap.Logger) repositories.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new policy
func (r *PolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	query := `
		INSERT INTO policies (id, owner_id, team_id, name, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		policy.ID,
		policy.OwnerID,
		policy.TeamID,
		policy.Name,
		policy.IsPublic,
		policy.CreatedAt,
		policy.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	r.logger.Debug("policy created", zap.String("id", policy.ID.String()))
	return nil
}

// GetByID retrieves a non-deleted policy by ID
func (r *PolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	query := `
		SELECT id, owner_id, team_id, name, is_public, created_at, updated_at, deleted_at
		FROM policies
		WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	policy := &models.Policy{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&policy.ID,
		&policy.OwnerID,
		&policy.TeamID,
		&policy.Name,
		&policy.IsPublic,
		&policy.CreatedAt,
		&policy.UpdatedAt,
		&policy.DeletedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	return policy, nil
}

// ListByOwner retrieves all non-deleted policies owned by a user, ordered by
// the freeze ranking (most recently updated first, id as tie-break)
func (r *PolicyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Policy, error) {
	query := `
		SELECT id, owner_id, team_id, name, is_public, created_at, updated_at, deleted_at
		FROM policies
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC, id ASC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	policies := make([]*models.Policy, 0)
	for rows.Next() {
		policy := &models.Policy{}
		if err := rows.Scan(
			&policy.ID,
			&policy.OwnerID,
			&policy.TeamID,
			&policy.Name,
			&policy.IsPublic,
			&policy.CreatedAt,
			&policy.UpdatedAt,
			&policy.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return policies, nil
}

// Touch bumps a policy's updated_at
func (r *PolicyRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE policies SET updated_at = $2 WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to touch policy: %w", err)
	}

	return nil
}

// GetExecutionSnapshot fetches the policy, its default version, owner and
// caller plan state, the caller's current-period execution count and the
// caller's team role in one round trip. Returns sql.ErrNoRows when the
// policy does not exist or is deleted.
func (r *PolicyRepository) GetExecutionSnapshot(ctx context.Context, policyID, callerID uuid.UUID, period string) (*repositories.ExecutionSnapshot, error) {
	query := `
		SELECT
			p.id, p.owner_id, p.team_id, p.name, p.is_public, p.created_at, p.updated_at,
			v.id, v.version, v.source, v.source_hash, v.release_note, v.created_by, v.created_at,
			ou.plan, ou.trial_ends_at,
			cu.plan, cu.trial_ends_at,
			COALESCE(u.count, 0),
			tm.role
		FROM policies p
		JOIN users ou ON ou.id = p.owner_id
		JOIN users cu ON cu.id = $2
		LEFT JOIN policy_versions v ON v.policy_id = p.id AND v.is_default AND v.status = 'approved'
		LEFT JOIN usage_records u ON u.user_id = $2 AND u.usage_type = 'executions' AND u.period = $3
		LEFT JOIN team_members tm ON tm.team_id = p.team_id AND tm.user_id = $2
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	snap := &repositories.ExecutionSnapshot{}

	var (
		versionID   sql.Null[uuid.UUID]
		versionNum  sql.NullInt64
		source      sql.NullString
		sourceHash  sql.NullString
		releaseNote sql.NullString
		createdBy   sql.Null[uuid.UUID]
		createdAt   sql.NullTime
		ownerTrial  sql.NullTime
		callerTrial sql.NullTime
		teamRole    sql.NullString
	)

	err := executor.QueryRowContext(ctx, query, policyID, callerID, period).Scan(
		&snap.Policy.ID,
		&snap.Policy.OwnerID,
		&snap.Policy.TeamID,
		&snap.Policy.Name,
		&snap.Policy.IsPublic,
		&snap.Policy.CreatedAt,
		&snap.Policy.UpdatedAt,
		&versionID,
		&versionNum,
		&source,
		&sourceHash,
		&releaseNote,
		&createdBy,
		&createdAt,
		&snap.OwnerPlan,
		&ownerTrial,
		&snap.CallerPlan,
		&callerTrial,
		&snap.CallerUsage,
		&teamRole,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get execution snapshot: %w", err)
	}

	if versionID.Valid {
		snap.DefaultVersion = &models.PolicyVersion{
			ID:          versionID.V,
			PolicyID:    snap.Policy.ID,
			Version:     int(versionNum.Int64),
			Source:      source.String,
			SourceHash:  sourceHash.String,
			Status:      models.VersionStatusApproved,
			IsDefault:   true,
			ReleaseNote: releaseNote.String,
			CreatedBy:   createdBy.V,
			CreatedAt:   createdAt.Time,
		}
	}
	if ownerTrial.Valid {
		snap.OwnerTrialEndsAt = &ownerTrial.Time
	}
	if callerTrial.Valid {
		snap.CallerTrialEndsAt = &callerTrial.Time
	}
	if teamRole.Valid {
		role := models.TeamRole(teamRole.String)
		snap.TeamRole = &role
	}

	return snap, nil
}
