package versions

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockVersionRepository is a mock implementation of VersionRepository
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(ctx context.Context, version *models.PolicyVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyVersion, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.PolicyVersion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionRepository) GetDefault(ctx context.Context, policyID uuid.UUID) (*models.PolicyVersion, error) {
	args := m.Called(ctx, policyID)
	if v := args.Get(0); v != nil {
		return v.(*models.PolicyVersion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionRepository) ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*models.PolicyVersion, error) {
	args := m.Called(ctx, policyID)
	if v := args.Get(0); v != nil {
		return v.([]*models.PolicyVersion), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVersionRepository) UpdateStatus(ctx context.Context, version *models.PolicyVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionRepository) DemoteDefault(ctx context.Context, versionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, versionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVersionRepository) MarkDefault(ctx context.Context, versionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, versionID)
	return args.Bool(0), args.Error(1)
}

// MockApprovalRepository is a mock implementation of ApprovalRepository
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Insert(ctx context.Context, record *models.ApprovalRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockApprovalRepository) ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.ApprovalRecord, error) {
	args := m.Called(ctx, versionID)
	if v := args.Get(0); v != nil {
		return v.([]*models.ApprovalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPolicyRepository is a mock implementation of PolicyRepository
type MockPolicyRepository struct {
	mock.Mock
}

func (m *MockPolicyRepository) Create(ctx context.Context, policy *models.Policy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockPolicyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Policy, error) {
	args := m.Called(ctx, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]*models.Policy), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPolicyRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockPolicyRepository) GetExecutionSnapshot(ctx context.Context, policyID, callerID uuid.UUID, period string) (*repositories.ExecutionSnapshot, error) {
	args := m.Called(ctx, policyID, callerID, period)
	if v := args.Get(0); v != nil {
		return v.(*repositories.ExecutionSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTeamRepository is a mock implementation of TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) GetMember(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error) {
	args := m.Called(ctx, teamID, userID)
	if v := args.Get(0); v != nil {
		return v.(*models.TeamMember), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeTxManager runs the transaction function directly
type fakeTxManager struct{}

func (f *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, nil
}

func (f *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

func newTestService(t *testing.T) (*Service, *MockVersionRepository, *MockApprovalRepository, *MockPolicyRepository) {
	t.Helper()
	svc, versionsRepo, approvalsRepo, policiesRepo, _ := newTestServiceWithTeams(t)
	return svc, versionsRepo, approvalsRepo, policiesRepo
}

func newTestServiceWithTeams(t *testing.T) (*Service, *MockVersionRepository, *MockApprovalRepository, *MockPolicyRepository, *MockTeamRepository) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	versionsRepo := new(MockVersionRepository)
	approvalsRepo := new(MockApprovalRepository)
	policiesRepo := new(MockPolicyRepository)
	teamsRepo := new(MockTeamRepository)
	svc := NewService(versionsRepo, approvalsRepo, policiesRepo, teamsRepo, &fakeTxManager{}, logger)
	return svc, versionsRepo, approvalsRepo, policiesRepo, teamsRepo
}

func pendingVersion(author uuid.UUID) *models.PolicyVersion {
	return &models.PolicyVersion{
		ID:        uuid.New(),
		PolicyID:  uuid.New(),
		Version:   1,
		Status:    models.VersionStatusPendingApproval,
		CreatedBy: author,
		CreatedAt: time.Now(),
	}
}

func TestCreateDraft(t *testing.T) {
	ctx := context.Background()
	policyID := uuid.New()
	authorID := uuid.New()

	t.Run("empty source rejected", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.CreateDraft(ctx, policyID, authorID, "   ", "")

		assert.ErrorIs(t, err, services.ErrEmptySource)
	})

	t.Run("unknown policy", func(t *testing.T) {
		svc, _, _, policiesRepo := newTestService(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(nil, sql.ErrNoRows)

		_, err := svc.CreateDraft(ctx, policyID, authorID, "allow all", "")

		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("creates draft and touches policy", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID}, nil)
		versionsRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		policiesRepo.On("Touch", mock.Anything, policyID, mock.Anything).Return(nil)

		version, err := svc.CreateDraft(ctx, policyID, authorID, "allow all", "first cut")

		require.NoError(t, err)
		assert.Equal(t, models.VersionStatusDraft, version.Status)
		assert.Equal(t, authorID, version.CreatedBy)
		assert.False(t, version.IsDefault)
		assert.NotEmpty(t, version.SourceHash)
		policiesRepo.AssertCalled(t, "Touch", mock.Anything, policyID, mock.Anything)
	})
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()

	t.Run("author submits draft", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(authorID)
		version.Status = models.VersionStatusDraft
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("UpdateStatus", ctx, version).Return(nil)

		updated, err := svc.Submit(ctx, version.ID, authorID)

		require.NoError(t, err)
		assert.Equal(t, models.VersionStatusPendingApproval, updated.Status)
	})

	t.Run("non-author cannot submit", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(authorID)
		version.Status = models.VersionStatusDraft
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Submit(ctx, version.ID, uuid.New())

		assert.True(t, services.IsInvalidTransitionError(err))
		versionsRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
	})

	t.Run("only drafts can be submitted", func(t *testing.T) {
		for _, status := range []models.VersionStatus{
			models.VersionStatusPendingApproval,
			models.VersionStatusApproved,
			models.VersionStatusRejected,
			models.VersionStatusDeprecated,
			models.VersionStatusArchived,
		} {
			svc, versionsRepo, _, _ := newTestService(t)
			version := pendingVersion(authorID)
			version.Status = status
			versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

			_, err := svc.Submit(ctx, version.ID, authorID)

			assert.True(t, services.IsInvalidTransitionError(err), "status %s", status)
		}
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	approverID := uuid.New()

	t.Run("approves pending version and records decision", func(t *testing.T) {
		svc, versionsRepo, approvalsRepo, _ := newTestService(t)
		version := pendingVersion(authorID)
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("UpdateStatus", mock.Anything, version).Return(nil)
		approvalsRepo.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.ApprovalRecord) bool {
			return r.Decision == models.DecisionApproved && r.ApproverID == approverID
		})).Return(nil)

		updated, err := svc.Approve(ctx, version.ID, approverID, "looks good")

		require.NoError(t, err)
		assert.Equal(t, models.VersionStatusApproved, updated.Status)
		approvalsRepo.AssertExpectations(t)
	})

	t.Run("author cannot approve own version", func(t *testing.T) {
		svc, versionsRepo, approvalsRepo, _ := newTestService(t)
		version := pendingVersion(authorID)
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Approve(ctx, version.ID, authorID, "")

		assert.ErrorIs(t, err, services.ErrSelfApproval)
		assert.Equal(t, models.VersionStatusPendingApproval, version.Status)
		versionsRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
		approvalsRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("only pending versions can be approved", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(authorID)
		version.Status = models.VersionStatusDraft
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Approve(ctx, version.ID, approverID, "")

		assert.True(t, services.IsInvalidTransitionError(err))
	})

	t.Run("unknown version", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		id := uuid.New()
		versionsRepo.On("GetByID", ctx, id).Return(nil, sql.ErrNoRows)

		_, err := svc.Approve(ctx, id, approverID, "")

		assert.ErrorIs(t, err, services.ErrVersionNotFound)
	})
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New()
	approverID := uuid.New()

	t.Run("comment required before any state change", func(t *testing.T) {
		svc, versionsRepo, approvalsRepo, _ := newTestService(t)

		_, err := svc.Reject(ctx, uuid.New(), approverID, "   ")

		assert.ErrorIs(t, err, services.ErrCommentRequired)
		versionsRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		approvalsRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects with comment and records decision", func(t *testing.T) {
		svc, versionsRepo, approvalsRepo, _ := newTestService(t)
		version := pendingVersion(authorID)
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("UpdateStatus", mock.Anything, version).Return(nil)
		approvalsRepo.On("Insert", mock.Anything, mock.MatchedBy(func(r *models.ApprovalRecord) bool {
			return r.Decision == models.DecisionRejected && r.Comment == "needs a narrower scope"
		})).Return(nil)

		updated, err := svc.Reject(ctx, version.ID, approverID, "needs a narrower scope")

		require.NoError(t, err)
		assert.Equal(t, models.VersionStatusRejected, updated.Status)
	})

	t.Run("author cannot reject own version", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(authorID)
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Reject(ctx, version.ID, authorID, "some comment")

		assert.ErrorIs(t, err, services.ErrSelfApproval)
	})
}

func TestPromoteDefault(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	approvedVersion := func() *models.PolicyVersion {
		v := pendingVersion(uuid.New())
		v.Status = models.VersionStatusApproved
		return v
	}

	t.Run("promotes and demotes previous default atomically", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		version := approvedVersion()
		current := approvedVersion()
		current.PolicyID = version.PolicyID
		current.IsDefault = true

		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("GetDefault", mock.Anything, version.PolicyID).Return(current, nil)
		versionsRepo.On("DemoteDefault", mock.Anything, current.ID).Return(true, nil)
		versionsRepo.On("MarkDefault", mock.Anything, version.ID).Return(true, nil)
		policiesRepo.On("Touch", mock.Anything, version.PolicyID, mock.Anything).Return(nil)

		updated, err := svc.PromoteDefault(ctx, version.ID, actorID)

		require.NoError(t, err)
		assert.True(t, updated.IsDefault)
		versionsRepo.AssertExpectations(t)
	})

	t.Run("promotes when no current default", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		version := approvedVersion()

		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("GetDefault", mock.Anything, version.PolicyID).Return(nil, nil)
		versionsRepo.On("MarkDefault", mock.Anything, version.ID).Return(true, nil)
		policiesRepo.On("Touch", mock.Anything, version.PolicyID, mock.Anything).Return(nil)

		_, err := svc.PromoteDefault(ctx, version.ID, actorID)

		require.NoError(t, err)
		versionsRepo.AssertNotCalled(t, "DemoteDefault", mock.Anything, mock.Anything)
	})

	t.Run("concurrent promotion loses on conditioned demote", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		version := approvedVersion()
		current := approvedVersion()
		current.PolicyID = version.PolicyID
		current.IsDefault = true

		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("GetDefault", mock.Anything, version.PolicyID).Return(current, nil)
		// Another writer already demoted the row we read
		versionsRepo.On("DemoteDefault", mock.Anything, current.ID).Return(false, nil)

		_, err := svc.PromoteDefault(ctx, version.ID, actorID)

		assert.ErrorIs(t, err, services.ErrPromotionConflict)
		versionsRepo.AssertNotCalled(t, "MarkDefault", mock.Anything, mock.Anything)
		policiesRepo.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("conflict when version no longer promotable", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := approvedVersion()

		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("GetDefault", mock.Anything, version.PolicyID).Return(nil, nil)
		versionsRepo.On("MarkDefault", mock.Anything, version.ID).Return(false, nil)

		_, err := svc.PromoteDefault(ctx, version.ID, actorID)

		assert.ErrorIs(t, err, services.ErrPromotionConflict)
	})

	t.Run("only approved versions can be promoted", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(uuid.New())
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.PromoteDefault(ctx, version.ID, actorID)

		assert.True(t, services.IsInvalidTransitionError(err))
	})

	t.Run("already default is a no-op error", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := approvedVersion()
		version.IsDefault = true
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.PromoteDefault(ctx, version.ID, actorID)

		assert.ErrorIs(t, err, services.ErrAlreadyDefault)
	})
}

func TestDeprecate(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("deprecates approved non-default version", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(uuid.New())
		version.Status = models.VersionStatusApproved
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
		versionsRepo.On("UpdateStatus", ctx, version).Return(nil)

		updated, err := svc.Deprecate(ctx, version.ID, actorID, "superseded")

		require.NoError(t, err)
		assert.Equal(t, models.VersionStatusDeprecated, updated.Status)
		require.NotNil(t, updated.DeprecatedAt)
		assert.Equal(t, actorID, *updated.DeprecatedBy)
	})

	t.Run("default version cannot be deprecated", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(uuid.New())
		version.Status = models.VersionStatusApproved
		version.IsDefault = true
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Deprecate(ctx, version.ID, actorID, "")

		assert.ErrorIs(t, err, services.ErrDefaultImmutable)
	})
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	actorID := uuid.New()

	t.Run("archives approved and deprecated versions", func(t *testing.T) {
		for _, status := range []models.VersionStatus{
			models.VersionStatusApproved,
			models.VersionStatusDeprecated,
		} {
			svc, versionsRepo, _, _ := newTestService(t)
			version := pendingVersion(uuid.New())
			version.Status = status
			versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)
			versionsRepo.On("UpdateStatus", ctx, version).Return(nil)

			updated, err := svc.Archive(ctx, version.ID, actorID, "")

			require.NoError(t, err)
			assert.Equal(t, models.VersionStatusArchived, updated.Status)
			assert.True(t, updated.IsTerminal())
		}
	})

	t.Run("drafts and rejected versions cannot be archived", func(t *testing.T) {
		for _, status := range []models.VersionStatus{
			models.VersionStatusDraft,
			models.VersionStatusPendingApproval,
			models.VersionStatusRejected,
			models.VersionStatusArchived,
		} {
			svc, versionsRepo, _, _ := newTestService(t)
			version := pendingVersion(uuid.New())
			version.Status = status
			versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

			_, err := svc.Archive(ctx, version.ID, actorID, "")

			assert.True(t, services.IsInvalidTransitionError(err), "status %s", status)
		}
	})

	t.Run("default version cannot be archived", func(t *testing.T) {
		svc, versionsRepo, _, _ := newTestService(t)
		version := pendingVersion(uuid.New())
		version.Status = models.VersionStatusApproved
		version.IsDefault = true
		versionsRepo.On("GetByID", ctx, version.ID).Return(version, nil)

		_, err := svc.Archive(ctx, version.ID, actorID, "")

		assert.ErrorIs(t, err, services.ErrDefaultImmutable)
	})
}

func TestListVersions(t *testing.T) {
	ctx := context.Background()
	policyID := uuid.New()
	ownerID := uuid.New()
	callerID := uuid.New()

	history := []*models.PolicyVersion{
		{ID: uuid.New(), PolicyID: policyID, Version: 2, Status: models.VersionStatusApproved},
		{ID: uuid.New(), PolicyID: policyID, Version: 1, Status: models.VersionStatusArchived},
	}

	t.Run("owner sees the full history", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID, OwnerID: ownerID}, nil)
		versionsRepo.On("ListByPolicy", ctx, policyID).Return(history, nil)

		list, err := svc.ListVersions(ctx, policyID, ownerID)

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("non-member of a private policy gets not found", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo, teamsRepo := newTestServiceWithTeams(t)
		teamID := uuid.New()
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID, OwnerID: ownerID, TeamID: &teamID}, nil)
		teamsRepo.On("GetMember", ctx, teamID, callerID).Return(nil, nil)

		_, err := svc.ListVersions(ctx, policyID, callerID)

		// Indistinguishable from a nonexistent policy
		assert.ErrorIs(t, err, services.ErrPolicyNotFound)
		versionsRepo.AssertNotCalled(t, "ListByPolicy", mock.Anything, mock.Anything)
	})

	t.Run("stranger to a teamless private policy gets not found", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo, teamsRepo := newTestServiceWithTeams(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID, OwnerID: ownerID}, nil)

		_, err := svc.ListVersions(ctx, policyID, callerID)

		assert.ErrorIs(t, err, services.ErrPolicyNotFound)
		teamsRepo.AssertNotCalled(t, "GetMember", mock.Anything, mock.Anything, mock.Anything)
		versionsRepo.AssertNotCalled(t, "ListByPolicy", mock.Anything, mock.Anything)
	})

	t.Run("team viewer can read the history", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo, teamsRepo := newTestServiceWithTeams(t)
		teamID := uuid.New()
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID, OwnerID: ownerID, TeamID: &teamID}, nil)
		teamsRepo.On("GetMember", ctx, teamID, callerID).Return(&models.TeamMember{
			TeamID: teamID, UserID: callerID, Role: models.TeamRoleViewer,
		}, nil)
		versionsRepo.On("ListByPolicy", ctx, policyID).Return(history, nil)

		list, err := svc.ListVersions(ctx, policyID, callerID)

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("public policy is readable by anyone", func(t *testing.T) {
		svc, versionsRepo, _, policiesRepo := newTestService(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(&models.Policy{ID: policyID, OwnerID: ownerID, IsPublic: true}, nil)
		versionsRepo.On("ListByPolicy", ctx, policyID).Return(history, nil)

		list, err := svc.ListVersions(ctx, policyID, callerID)

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("deleted policy is not found", func(t *testing.T) {
		svc, _, _, policiesRepo := newTestService(t)
		policiesRepo.On("GetByID", ctx, policyID).Return(nil, sql.ErrNoRows)

		_, err := svc.ListVersions(ctx, policyID, ownerID)

		assert.ErrorIs(t, err, services.ErrPolicyNotFound)
	})
}
