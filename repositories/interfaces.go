package repositories

import (
	"context"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/google/uuid"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// ExecutionSnapshot is the consolidated read backing an execution request:
// policy row, its approved default version, owner and caller plan state, the
// caller's current-period execution count and team membership, fetched in one
// round trip.
type ExecutionSnapshot struct {
	Policy            models.Policy
	DefaultVersion    *models.PolicyVersion // Nil when no approved default exists
	OwnerPlan         string
	OwnerTrialEndsAt  *time.Time
	CallerPlan        string
	CallerTrialEndsAt *time.Time
	CallerUsage       int              // Execution count for the current period
	TeamRole          *models.TeamRole // Nil when the caller is not a member of the policy's team
}

// PolicyRepository handles policy data operations
type PolicyRepository interface {
	// Create creates a new policy
	Create(ctx context.Context, policy *models.Policy) error

	// GetByID retrieves a non-deleted policy by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Policy, error)

	// ListByOwner retrieves all non-deleted policies owned by a user
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Policy, error)

	// Touch bumps a policy's updated_at, moving it to the front of the
	// freeze ranking
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// GetExecutionSnapshot fetches everything the execution authorizer needs
	// in a single query: policy, default version, owner/caller plan state,
	// caller usage and team membership
	GetExecutionSnapshot(ctx context.Context, policyID, callerID uuid.UUID, period string) (*ExecutionSnapshot, error)
}

// VersionRepository handles policy version data operations
type VersionRepository interface {
	// Create inserts a draft version, assigning the next dense version
	// number for the policy atomically
	Create(ctx context.Context, version *models.PolicyVersion) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.PolicyVersion, error)

	// GetDefault retrieves the default version for a policy, or nil if none
	GetDefault(ctx context.Context, policyID uuid.UUID) (*models.PolicyVersion, error)

	// ListByPolicy retrieves all versions of a policy, newest first
	ListByPolicy(ctx context.Context, policyID uuid.UUID) ([]*models.PolicyVersion, error)

	// UpdateStatus persists a version's status and lifecycle stamps
	UpdateStatus(ctx context.Context, version *models.PolicyVersion) error

	// DemoteDefault clears is_default on a version only if it is still the
	// default. Returns false when another writer got there first.
	DemoteDefault(ctx context.Context, versionID uuid.UUID) (bool, error)

	// MarkDefault sets is_default on a version only if it is approved.
	// Returns false when the version is not in a promotable state.
	MarkDefault(ctx context.Context, versionID uuid.UUID) (bool, error)
}

// ApprovalRepository handles approval record data operations
type ApprovalRepository interface {
	// Insert appends an approval record
	Insert(ctx context.Context, record *models.ApprovalRecord) error

	// ListByVersion retrieves all approval records for a version, newest first
	ListByVersion(ctx context.Context, versionID uuid.UUID) ([]*models.ApprovalRecord, error)
}

// UserRepository handles user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdatePlan writes a user's plan, used for the lazy trial downgrade
	UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error
}

// TeamRepository handles team membership data operations
type TeamRepository interface {
	// GetMember retrieves a membership row, or nil if the user is not a member
	GetMember(ctx context.Context, teamID, userID uuid.UUID) (*models.TeamMember, error)
}

// UsageRepository handles usage counter data operations
type UsageRepository interface {
	// Get retrieves the count for a (user, type, period) key; zero if absent
	Get(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string) (int, error)

	// IncrementBy atomically adds delta to a (user, type, period) counter,
	// creating the row with count=delta when absent
	IncrementBy(ctx context.Context, userID uuid.UUID, usageType models.UsageType, period string, delta int) error
}

// ExecutionRepository handles execution log data operations
type ExecutionRepository interface {
	// Insert appends an execution record
	Insert(ctx context.Context, execution *models.Execution) error

	// GetByID retrieves an execution by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Execution, error)

	// ListByUser retrieves executions for a user with pagination, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Execution, error)
}

// Repositories bundles all repository instances
type Repositories struct {
	Policies   PolicyRepository
	Versions   VersionRepository
	Approvals  ApprovalRepository
	Users      UserRepository
	Teams      TeamRepository
	Usage      UsageRepository
	Executions ExecutionRepository
}
