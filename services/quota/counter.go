package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"github.com/clearrule/policy-control-plane/services/plans"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckResult represents the outcome of a quota check
type CheckResult struct {
	Allowed   bool
	Limit     int // plans.Unlimited when the plan does not meter this action
	Used      int
	Remaining int
}

// Counter tracks per-user, per-calendar-month counts for metered actions.
// Checks are read-only and may observe slightly stale counts relative to
// concurrent increments; quota is a soft business limit, not a security
// boundary.
type Counter struct {
	usage  repositories.UsageRepository
	logger *zap.Logger
}

// NewCounter creates a new usage counter
func NewCounter(usage repositories.UsageRepository, logger *zap.Logger) *Counter {
	return &Counter{
		usage:  usage,
		logger: logger,
	}
}

// Check compares a user's current-period usage against a plan limit
func (c *Counter) Check(ctx context.Context, userID uuid.UUID, usageType models.UsageType, plan plans.Plan) (*CheckResult, error) {
	limit := plan.LimitFor(usageType)
	if plans.IsUnlimited(limit) {
		return &CheckResult{Allowed: true, Limit: plans.Unlimited, Remaining: plans.Unlimited}, nil
	}

	used, err := c.usage.Get(ctx, userID, usageType, PeriodKey(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get usage: %w", err)
	}

	return Evaluate(limit, used), nil
}

// Evaluate computes a check result from a known limit and count
func Evaluate(limit, used int) *CheckResult {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &CheckResult{
		Allowed:   used < limit,
		Limit:     limit,
		Used:      used,
		Remaining: remaining,
	}
}

// Increment atomically adds delta to the user's counter for the current
// period. Two concurrent increments for the same user never lose an update.
func (c *Counter) Increment(ctx context.Context, userID uuid.UUID, usageType models.UsageType, delta int) error {
	period := PeriodKey(time.Now())
	if err := c.usage.IncrementBy(ctx, userID, usageType, period, delta); err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	c.logger.Debug("usage incremented",
		zap.String("user_id", userID.String()),
		zap.String("usage_type", string(usageType)),
		zap.String("period", period),
		zap.Int("delta", delta))
	return nil
}

// PeriodKey returns the calendar-month bucket for a point in time
func PeriodKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}
