package freeze

import (
	"sort"

	"github.com/clearrule/policy-control-plane/models"
	"github.com/clearrule/policy-control-plane/services/plans"
	"github.com/google/uuid"
)

// Partition is the result of a freeze computation: the owner's policies
// split into active (executable, editable) and frozen (over-limit) sets.
// Freeze status is a derived view, never stored state; it is recomputed on
// every check so that editing a frozen policy can unfreeze it by pushing a
// staler one out.
type Partition struct {
	Active []uuid.UUID
	Frozen []uuid.UUID

	frozen map[uuid.UUID]bool
}

// IsFrozen reports whether a policy is in the frozen set
func (p *Partition) IsFrozen(policyID uuid.UUID) bool {
	return p.frozen[policyID]
}

// Calculator partitions an owner's policy set against their plan's policy
// limit. It is pure and stateless.
type Calculator struct{}

// NewCalculator creates a new freeze calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Partition ranks the owner's non-deleted policies by (updated_at DESC,
// id ASC) and takes the first N as active, where N is the plan's policy
// limit; the remainder is frozen. An unlimited plan freezes nothing. The
// input order does not matter; only recency and id determine membership.
func (c *Calculator) Partition(plan plans.Plan, policies []*models.Policy) *Partition {
	result := &Partition{frozen: make(map[uuid.UUID]bool)}

	if plans.IsUnlimited(plan.PolicyLimit) {
		for _, p := range policies {
			result.Active = append(result.Active, p.ID)
		}
		return result
	}

	ranked := make([]*models.Policy, len(policies))
	copy(ranked, policies)
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].UpdatedAt.Equal(ranked[j].UpdatedAt) {
			return ranked[i].UpdatedAt.After(ranked[j].UpdatedAt)
		}
		// Deterministic tie-break for equal timestamps
		return ranked[i].ID.String() < ranked[j].ID.String()
	})

	for i, p := range ranked {
		if i < plan.PolicyLimit {
			result.Active = append(result.Active, p.ID)
		} else {
			result.Frozen = append(result.Frozen, p.ID)
			result.frozen[p.ID] = true
		}
	}

	return result
}
