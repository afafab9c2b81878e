package versions

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service owns the lifecycle of a policy's versions: creation, submission,
// approval, rejection, default promotion, deprecation and archival. All
// transitions are validated against the state machine before any write; an
// invalid transition leaves state unchanged.
type Service struct {
	versions  repositories.VersionRepository
	approvals repositories.ApprovalRepository
	policies  repositories.PolicyRepository
	teams     repositories.TeamRepository
	txManager repositories.TransactionManager
	logger    *zap.Logger
}

// NewService creates a new version lifecycle service
func NewService(
	versions repositories.VersionRepository,
	approvals repositories.ApprovalRepository,
	policies repositories.PolicyRepository,
	teams repositories.TeamRepository,
	txManager repositories.TransactionManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		versions:  versions,
		approvals: approvals,
		policies:  policies,
		teams:     teams,
		txManager: txManager,
		logger:    logger,
	}
}

// CreateDraft creates a new draft version of a policy. The version number is
// assigned densely per policy by the repository.
func (s *Service) CreateDraft(ctx context.Context, policyID, authorID uuid.UUID, source, releaseNote string) (*models.PolicyVersion, error) {
	if strings.TrimSpace(source) == "" {
		return nil, services.ErrEmptySource
	}

	if _, err := s.policies.GetByID(ctx, policyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrPolicyNotFound
		}
		return nil, services.WrapInternal("failed to load policy", err)
	}

	version := models.NewDraftVersion(policyID, authorID, source, releaseNote)

	err := s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := s.versions.Create(txCtx, version); err != nil {
			return services.WrapInternal("failed to create draft version", err)
		}
		// Drafting counts as touching the policy for the freeze ranking
		if err := s.policies.Touch(txCtx, policyID, version.CreatedAt); err != nil {
			return services.WrapInternal("failed to touch policy", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("draft version created",
		zap.String("policy_id", policyID.String()),
		zap.Int("version", version.Version),
		zap.String("created_by", authorID.String()))
	return version, nil
}

// Submit moves a draft into pending approval. Only the author may submit.
func (s *Service) Submit(ctx context.Context, versionID, actorID uuid.UUID) (*models.PolicyVersion, error) {
	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusDraft {
		return nil, transitionError(version, "submit")
	}
	if version.CreatedBy != actorID {
		return nil, services.NewDomainError(services.ErrorTypeInvalidTransition,
			"only the author may submit a draft", nil).
			WithDetail("version_id", versionID.String())
	}

	version.Status = models.VersionStatusPendingApproval
	if err := s.versions.UpdateStatus(ctx, version); err != nil {
		return nil, services.WrapInternal("failed to submit version", err)
	}

	s.logger.Info("version submitted for approval",
		zap.String("version_id", versionID.String()),
		zap.String("policy_id", version.PolicyID.String()))
	return version, nil
}

// Approve moves a pending version to approved. The approver must not be the
// author (four-eyes principle). An ApprovalRecord is written in the same
// transaction as the status change.
func (s *Service) Approve(ctx context.Context, versionID, approverID uuid.UUID, comment string) (*models.PolicyVersion, error) {
	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusPendingApproval {
		return nil, transitionError(version, "approve")
	}
	if version.CreatedBy == approverID {
		return nil, services.ErrSelfApproval
	}

	record := models.NewApprovalRecord(versionID, approverID, models.DecisionApproved, comment)

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		version.Status = models.VersionStatusApproved
		if err := s.versions.UpdateStatus(txCtx, version); err != nil {
			return services.WrapInternal("failed to approve version", err)
		}
		if err := s.approvals.Insert(txCtx, record); err != nil {
			return services.WrapInternal("failed to record approval", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version approved",
		zap.String("version_id", versionID.String()),
		zap.String("approver_id", approverID.String()))
	return version, nil
}

// Reject moves a pending version to rejected. The approver must not be the
// author, and a comment is required; the comment check runs before any state
// mutation.
func (s *Service) Reject(ctx context.Context, versionID, approverID uuid.UUID, comment string) (*models.PolicyVersion, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, services.ErrCommentRequired
	}

	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusPendingApproval {
		return nil, transitionError(version, "reject")
	}
	if version.CreatedBy == approverID {
		return nil, services.ErrSelfApproval
	}

	record := models.NewApprovalRecord(versionID, approverID, models.DecisionRejected, comment)

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		version.Status = models.VersionStatusRejected
		if err := s.versions.UpdateStatus(txCtx, version); err != nil {
			return services.WrapInternal("failed to reject version", err)
		}
		if err := s.approvals.Insert(txCtx, record); err != nil {
			return services.WrapInternal("failed to record rejection", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version rejected",
		zap.String("version_id", versionID.String()),
		zap.String("approver_id", approverID.String()))
	return version, nil
}

// PromoteDefault makes an approved version the policy's default, atomically
// demoting the previous default in the same transaction. Concurrent
// promotions race on the conditioned demote; exactly one writer wins and the
// loser receives a conflict error and may retry against the updated state.
func (s *Service) PromoteDefault(ctx context.Context, versionID, actorID uuid.UUID) (*models.PolicyVersion, error) {
	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusApproved {
		return nil, transitionError(version, "promote-default")
	}
	if version.IsDefault {
		return nil, services.ErrAlreadyDefault
	}

	now := time.Now()

	err = s.txManager.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		current, err := s.versions.GetDefault(txCtx, version.PolicyID)
		if err != nil {
			return services.WrapInternal("failed to load current default", err)
		}

		if current != nil {
			if current.ID == version.ID {
				return services.ErrAlreadyDefault
			}
			demoted, err := s.versions.DemoteDefault(txCtx, current.ID)
			if err != nil {
				return services.WrapInternal("failed to demote current default", err)
			}
			if !demoted {
				// Another promotion won between our read and write
				return services.ErrPromotionConflict
			}
		}

		promoted, err := s.versions.MarkDefault(txCtx, version.ID)
		if err != nil {
			return services.WrapInternal("failed to promote version", err)
		}
		if !promoted {
			return services.ErrPromotionConflict
		}

		// Promotion changes the policy's effective content
		if err := s.policies.Touch(txCtx, version.PolicyID, now); err != nil {
			return services.WrapInternal("failed to touch policy", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	version.IsDefault = true

	s.logger.Info("version promoted to default",
		zap.String("version_id", versionID.String()),
		zap.String("policy_id", version.PolicyID.String()),
		zap.String("actor_id", actorID.String()))
	return version, nil
}

// Deprecate moves an approved, non-default version to deprecated
func (s *Service) Deprecate(ctx context.Context, versionID, actorID uuid.UUID, reason string) (*models.PolicyVersion, error) {
	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusApproved {
		return nil, transitionError(version, "deprecate")
	}
	if version.IsDefault {
		return nil, services.ErrDefaultImmutable
	}

	now := time.Now()
	version.Status = models.VersionStatusDeprecated
	version.DeprecatedAt = &now
	version.DeprecatedBy = &actorID

	if err := s.versions.UpdateStatus(ctx, version); err != nil {
		return nil, services.WrapInternal("failed to deprecate version", err)
	}

	s.logger.Info("version deprecated",
		zap.String("version_id", versionID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("reason", reason))
	return version, nil
}

// Archive moves an approved or deprecated, non-default version to archived.
// Archived is terminal.
func (s *Service) Archive(ctx context.Context, versionID, actorID uuid.UUID, reason string) (*models.PolicyVersion, error) {
	version, err := s.getVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.Status != models.VersionStatusApproved && version.Status != models.VersionStatusDeprecated {
		return nil, transitionError(version, "archive")
	}
	if version.IsDefault {
		return nil, services.ErrDefaultImmutable
	}

	now := time.Now()
	version.Status = models.VersionStatusArchived
	version.ArchivedAt = &now
	version.ArchivedBy = &actorID

	if err := s.versions.UpdateStatus(ctx, version); err != nil {
		return nil, services.WrapInternal("failed to archive version", err)
	}

	s.logger.Info("version archived",
		zap.String("version_id", versionID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("reason", reason))
	return version, nil
}

// GetVersion retrieves a single version
func (s *Service) GetVersion(ctx context.Context, versionID uuid.UUID) (*models.PolicyVersion, error) {
	return s.getVersion(ctx, versionID)
}

// ListVersions retrieves all versions of a policy, newest first. The caller
// must be able to see the policy; anything outside the caller's visibility is
// reported as not found.
func (s *Service) ListVersions(ctx context.Context, policyID, callerID uuid.UUID) ([]*models.PolicyVersion, error) {
	policy, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrPolicyNotFound
		}
		return nil, services.WrapInternal("failed to load policy", err)
	}

	if err := s.checkVisibility(ctx, policy, callerID); err != nil {
		return nil, err
	}

	versions, err := s.versions.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, services.WrapInternal("failed to list versions", err)
	}
	return versions, nil
}

// checkVisibility applies the owner/public/team-member rule. A visibility
// failure carries the same error as a missing policy.
func (s *Service) checkVisibility(ctx context.Context, policy *models.Policy, callerID uuid.UUID) error {
	if policy.OwnerID == callerID || policy.IsPublic {
		return nil
	}
	if policy.TeamID != nil {
		member, err := s.teams.GetMember(ctx, *policy.TeamID, callerID)
		if err != nil {
			return services.WrapInternal("failed to load team membership", err)
		}
		if member != nil {
			return nil
		}
	}
	return services.ErrPolicyNotFound
}

func (s *Service) getVersion(ctx context.Context, versionID uuid.UUID) (*models.PolicyVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrVersionNotFound
		}
		return nil, services.WrapInternal("failed to load version", err)
	}
	return version, nil
}

// transitionError builds an invalid-transition error carrying the state that
// made the action illegal
func transitionError(version *models.PolicyVersion, action string) error {
	return services.NewDomainError(services.ErrorTypeInvalidTransition,
		"invalid version state transition", nil).
		WithDetail("version_id", version.ID.String()).
		WithDetail("status", string(version.Status)).
		WithDetail("action", action)
}
