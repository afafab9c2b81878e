package plans

import (
	"context"
	"time"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/repositories"
	"go.uber.org/zap"
)

// Unlimited is the sentinel for a limit that is not enforced
const Unlimited = -1

// Plan identifiers
const (
	PlanFree       = "free"
	PlanTrial      = "trial"
	PlanPro        = "pro"
	PlanTeam       = "team"
	PlanEnterprise = "enterprise"
)

// Plan holds the quota limits and capability flags for one plan tier
type Plan struct {
	ID             string
	PolicyLimit    int // Max non-deleted policies before freezing kicks in
	ExecutionLimit int // Max executions per calendar month
	APICallLimit   int // Max API calls per calendar month
	APIAccess      bool
	TeamFeatures   bool
}

// IsUnlimited reports whether a limit value is the unlimited sentinel
func IsUnlimited(limit int) bool {
	return limit == Unlimited
}

// Catalog is a read-only lookup from plan identifier to Plan. It is injected
// into the services that need it, never a package-level singleton, so tests
// can substitute arbitrary limits.
type Catalog struct {
	plans    map[string]Plan
	fallback string
}

// DefaultCatalog returns the production plan table
func DefaultCatalog() *Catalog {
	return NewCatalog([]Plan{
		{ID: PlanFree, PolicyLimit: 3, ExecutionLimit: 100, APICallLimit: 0, APIAccess: false, TeamFeatures: false},
		{ID: PlanTrial, PolicyLimit: 20, ExecutionLimit: 1000, APICallLimit: 1000, APIAccess: true, TeamFeatures: true},
		{ID: PlanPro, PolicyLimit: 20, ExecutionLimit: 5000, APICallLimit: 5000, APIAccess: true, TeamFeatures: false},
		{ID: PlanTeam, PolicyLimit: 100, ExecutionLimit: 20000, APICallLimit: 20000, APIAccess: true, TeamFeatures: true},
		{ID: PlanEnterprise, PolicyLimit: Unlimited, ExecutionLimit: Unlimited, APICallLimit: Unlimited, APIAccess: true, TeamFeatures: true},
	}, PlanFree)
}

// NewCatalog builds a catalog from a plan list. Unknown plan lookups resolve
// to the fallback plan.
func NewCatalog(plans []Plan, fallback string) *Catalog {
	m := make(map[string]Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &Catalog{plans: m, fallback: fallback}
}

// Get returns the plan for an identifier, falling back for unknown plans
func (c *Catalog) Get(planID string) Plan {
	if p, ok := c.plans[planID]; ok {
		return p
	}
	return c.plans[c.fallback]
}

// LimitFor returns a plan's limit for a usage type
func (p Plan) LimitFor(usageType models.UsageType) int {
	switch usageType {
	case models.UsageTypeExecutions:
		return p.ExecutionLimit
	case models.UsageTypeAPICalls:
		return p.APICallLimit
	default:
		return 0
	}
}

// Resolver resolves a user's effective plan, accounting for trial expiry
type Resolver struct {
	catalog *Catalog
	users   repositories.UserRepository
	logger  *zap.Logger
}

// NewResolver creates a new plan resolver
func NewResolver(catalog *Catalog, users repositories.UserRepository, logger *zap.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		users:   users,
		logger:  logger,
	}
}

// Catalog returns the underlying plan catalog
func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// Effective resolves the plan for a (plan, trial expiry) pair at a point in
// time. A trial plan past its end date degrades to free.
func (r *Resolver) Effective(planID string, trialEndsAt *time.Time, now time.Time) Plan {
	if planID == PlanTrial && trialEndsAt != nil && now.After(*trialEndsAt) {
		return r.catalog.Get(PlanFree)
	}
	return r.catalog.Get(planID)
}

// EffectiveForUser resolves a user's plan and, when a trial has lapsed,
// writes the downgrade back. The write is best-effort and idempotent; the
// resolved plan is correct regardless of whether the write lands.
func (r *Resolver) EffectiveForUser(ctx context.Context, user *models.User, now time.Time) Plan {
	plan := r.Effective(user.Plan, user.TrialEndsAt, now)
	if plan.ID == PlanFree && user.Plan == PlanTrial {
		if err := r.users.UpdatePlan(ctx, user.ID, PlanFree); err != nil {
			r.logger.Warn("trial downgrade write failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(err))
		}
	}
	return plan
}
