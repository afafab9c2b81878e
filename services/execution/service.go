package execution

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services"
	"github.com/clearrule/policy-control-plane/services/evaluator"
	"github.com/clearrule/policy-control-plane/services/freeze"
	"github.com/clearrule/policy-control-plane/services/plans"
	"github.com/clearrule/policy-control-plane/services/quota"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Result is the caller-visible outcome of an execution request. A domain
// failure of the policy itself (evaluator error, transport failure) is a
// Success=false Result, not a Go error; Go errors from Execute mean the
// request was denied before or during authorization and nothing ran to
// completion on the caller's behalf.
type Result struct {
	ExecutionID   uuid.UUID       `json:"execution_id"`
	PolicyVersion int             `json:"policy_version"`
	Success       bool            `json:"success"`
	Output        json.RawMessage `json:"output,omitempty"`
	Error         string          `json:"error,omitempty"`
	DurationMs    int             `json:"duration_ms"`
}

// Service authorizes and runs policy executions. The expensive evaluator
// call is dispatched optimistically, concurrently with the cheap
// authorization checks; a denial cancels the in-flight evaluation and its
// result is never observed.
type Service struct {
	policies repositories.PolicyRepository
	resolver *plans.Resolver
	counter  *quota.Counter
	freezer  *freeze.Calculator
	eval     evaluator.Evaluator
	execLog  *Logger
	logger   *zap.Logger
}

// NewService creates a new execution service
func NewService(
	policies repositories.PolicyRepository,
	resolver *plans.Resolver,
	counter *quota.Counter,
	freezer *freeze.Calculator,
	eval evaluator.Evaluator,
	execLog *Logger,
	logger *zap.Logger,
) *Service {
	return &Service{
		policies: policies,
		resolver: resolver,
		counter:  counter,
		freezer:  freezer,
		eval:     eval,
		execLog:  execLog,
		logger:   logger,
	}
}

type evalOutcome struct {
	result *evaluator.Result
	err    error
}

// Execute runs a policy's default version against the given input on behalf
// of the caller. The authorization pipeline is: visibility, executable
// default, quota, delegated execute permission, freeze. Denials are returned
// before any evaluation result is observed and are never logged as
// executions; only attempts that reach the evaluator produce a row and
// consume quota.
func (s *Service) Execute(ctx context.Context, policyID, callerID uuid.UUID, input json.RawMessage, source models.ExecutionSource) (*Result, error) {
	now := time.Now()

	snap, err := s.policies.GetExecutionSnapshot(ctx, policyID, callerID, quota.PeriodKey(now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrPolicyNotFound
		}
		return nil, services.WrapInternal("failed to load execution snapshot", err)
	}

	// Visibility gates everything, including error shape: a policy the
	// caller cannot see is indistinguishable from one that does not exist.
	isOwner := callerID == snap.Policy.OwnerID
	if !isOwner && !snap.Policy.IsPublic && snap.TeamRole == nil {
		return nil, services.ErrPolicyNotFound
	}

	if snap.DefaultVersion == nil {
		return nil, services.ErrNoExecutableVersion
	}

	// Optimistic dispatch: start the evaluator call now and run the
	// remaining checks while it is in flight. Any denial cancels it.
	evalCtx, cancelEval := context.WithCancel(ctx)
	defer cancelEval()

	dispatched := time.Now()
	outcomes := make(chan evalOutcome, 1)
	go func() {
		res, evalErr := s.eval.Evaluate(evalCtx, &evaluator.Request{
			Source: snap.DefaultVersion.Source,
			Input:  input,
		})
		outcomes <- evalOutcome{result: res, err: evalErr}
	}()

	callerPlan := s.resolver.EffectiveForUser(ctx, &models.User{
		ID:          callerID,
		Plan:        snap.CallerPlan,
		TrialEndsAt: snap.CallerTrialEndsAt,
	}, now)

	if limit := callerPlan.ExecutionLimit; !plans.IsUnlimited(limit) {
		check := quota.Evaluate(limit, snap.CallerUsage)
		if !check.Allowed {
			return nil, services.NewDomainError(services.ErrorTypeQuota,
				"monthly execution limit reached", nil).
				WithDetail("limit", check.Limit).
				WithDetail("used", check.Used).
				WithDetail("remaining", check.Remaining).
				WithDetail("upgrade", true)
		}
	}

	// Team members execute through an explicit permission; public policies
	// are executable by anyone who can see them.
	if !isOwner && !snap.Policy.IsPublic {
		if snap.TeamRole == nil || !snap.TeamRole.CanExecute() {
			return nil, services.ErrExecuteNotAllowed
		}
	}

	if err := s.checkFrozen(ctx, snap, now); err != nil {
		return nil, err
	}

	var outcome evalOutcome
	select {
	case outcome = <-outcomes:
	case <-ctx.Done():
		return nil, services.WrapEvaluation("execution cancelled", ctx.Err())
	}

	durationMs := int(time.Since(dispatched).Milliseconds())
	versionNum := snap.DefaultVersion.Version

	execution := &models.Execution{
		ID:            uuid.New(),
		UserID:        callerID,
		PolicyID:      policyID,
		PolicyVersion: &versionNum,
		Input:         input,
		Source:        source,
		DurationMs:    durationMs,
		CreatedAt:     time.Now(),
	}

	switch {
	case outcome.err != nil:
		execution.Success = false
		execution.Error = outcome.err.Error()
	case outcome.result.Failed():
		execution.Success = false
		execution.Error = outcome.result.ErrorMessage
	default:
		execution.Success = true
		execution.Output = outcome.result.Output
	}

	if err := s.execLog.Log(&LogEntry{Execution: execution}); err != nil {
		s.logger.Warn("execution outcome not queued for logging",
			zap.String("execution_id", execution.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("policy executed",
		zap.String("policy_id", policyID.String()),
		zap.String("caller_id", callerID.String()),
		zap.Int("version", versionNum),
		zap.Bool("success", execution.Success),
		zap.Int("duration_ms", durationMs))

	return &Result{
		ExecutionID:   execution.ID,
		PolicyVersion: versionNum,
		Success:       execution.Success,
		Output:        execution.Output,
		Error:         execution.Error,
		DurationMs:    durationMs,
	}, nil
}

// checkFrozen recomputes the owner's freeze partition and denies execution
// of a frozen policy for every caller, the owner included. The partition is
// only materialized for plans that actually meter policies.
func (s *Service) checkFrozen(ctx context.Context, snap *repositories.ExecutionSnapshot, now time.Time) error {
	ownerPlan := s.resolver.EffectiveForUser(ctx, &models.User{
		ID:          snap.Policy.OwnerID,
		Plan:        snap.OwnerPlan,
		TrialEndsAt: snap.OwnerTrialEndsAt,
	}, now)

	if plans.IsUnlimited(ownerPlan.PolicyLimit) {
		return nil
	}

	ownerPolicies, err := s.policies.ListByOwner(ctx, snap.Policy.OwnerID)
	if err != nil {
		return services.WrapInternal("failed to list owner policies", err)
	}

	partition := s.freezer.Partition(ownerPlan, ownerPolicies)
	if partition.IsFrozen(snap.Policy.ID) {
		return services.NewDomainError(services.ErrorTypeFrozen,
			"policy is frozen under the owner's current plan", nil).
			WithDetail("policy_id", snap.Policy.ID.String()).
			WithDetail("frozen", true).
			WithDetail("policy_limit", ownerPlan.PolicyLimit)
	}
	return nil
}
