package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// VersionStatus represents the lifecycle state of a policy version
type VersionStatus string

const (
	VersionStatusDraft           VersionStatus = "draft"
	VersionStatusPendingApproval VersionStatus = "pending_approval"
	VersionStatusApproved        VersionStatus = "approved"
	VersionStatusRejected        VersionStatus = "rejected"
	VersionStatusDeprecated      VersionStatus = "deprecated"
	VersionStatusArchived        VersionStatus = "archived"
)

// PolicyVersion is one immutable snapshot of a policy's source. Versions are
// never deleted; they are retained for audit even after the owning policy is
// soft-deleted.
type PolicyVersion struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	PolicyID     uuid.UUID     `json:"policy_id" db:"policy_id"`
	Version      int           `json:"version" db:"version"` // Dense, increasing per policy, starts at 1
	Source       string        `json:"source" db:"source"`
	SourceHash   string        `json:"source_hash" db:"source_hash"`
	Status       VersionStatus `json:"status" db:"status"`
	IsDefault    bool          `json:"is_default" db:"is_default"`
	ReleaseNote  string        `json:"release_note" db:"release_note"`
	CreatedBy    uuid.UUID     `json:"created_by" db:"created_by"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	DeprecatedAt *time.Time    `json:"deprecated_at,omitempty" db:"deprecated_at"`
	DeprecatedBy *uuid.UUID    `json:"deprecated_by,omitempty" db:"deprecated_by"`
	ArchivedAt   *time.Time    `json:"archived_at,omitempty" db:"archived_at"`
	ArchivedBy   *uuid.UUID    `json:"archived_by,omitempty" db:"archived_by"`
}

// TableName returns the table name for the PolicyVersion model
func (PolicyVersion) TableName() string {
	return "policy_versions"
}

// NewDraftVersion creates a new draft version for a policy. The dense version
// number is assigned by the repository on insert.
func NewDraftVersion(policyID, authorID uuid.UUID, source, releaseNote string) *PolicyVersion {
	return &PolicyVersion{
		ID:          uuid.New(),
		PolicyID:    policyID,
		Source:      source,
		SourceHash:  HashSource(source),
		Status:      VersionStatusDraft,
		ReleaseNote: releaseNote,
		CreatedBy:   authorID,
		CreatedAt:   time.Now(),
	}
}

// HashSource returns the hex-encoded SHA-256 digest of a policy source
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// IsTerminal reports whether the version can no longer transition
func (v *PolicyVersion) IsTerminal() bool {
	return v.Status == VersionStatusArchived || v.Status == VersionStatusRejected
}
