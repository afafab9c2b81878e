package handlers

import (
	"context"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services/evaluator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

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

// MockExecutionRepository is a mock implementation of ExecutionRepository
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Insert(ctx context.Context, execution *models.Execution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Execution, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Execution), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockExecutionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Execution, error) {
	args := m.Called(ctx, userID, limit, offset)
	if v := args.Get(0); v != nil {
		return v.([]*models.Execution), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockUsageRepository is a mock implementation of UsageRepository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Get(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string) (int, error) {
	args := m.Called(ctx, userID, usageType, period)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageRepository) IncrementBy(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string, delta int) error {
	args := m.Called(ctx, userID, usageType, period, delta)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	args := m.Called(ctx, id, plan)
	return args.Error(0)
}

// fakeTxManager runs the transaction function directly
type fakeTxManager struct{}

func (f *fakeTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return nil, nil
}

func (f *fakeTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return fn(ctx, nil)
}

// fakeEvaluator answers every evaluation with a fixed outcome
type fakeEvaluator struct {
	result *evaluator.Result
	err    error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, req *evaluator.Request) (*evaluator.Result, error) {
	return f.result, f.err
}
