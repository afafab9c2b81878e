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

// TeamRepository implements the repositories.TeamRepository interface
type TeamRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *DB, logger *zap.Logger) repositories.TeamRepository {
	return &TeamRepository{
		db:     db,
		logger: logger,
	}
}

// GetMember retrieves a membership row, or nil if the user is not a member
func (r *TeamRepository) GetMember(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	query := `
		SELECT team_id, user_id, role, created_at
		FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	member := &models.TeamMember{}

	err := executor.QueryRowContext(ctx, query, teamID, userID).Scan(
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}

	return member, nil
}
