package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalDecision represents the outcome of an approval review
type ApprovalDecision string

const (
	DecisionApproved         ApprovalDecision = "approved"
	DecisionRejected         ApprovalDecision = "rejected"
	DecisionRequestedChanges ApprovalDecision = "requested_changes"
)

// ApprovalRecord is one decision event against a policy version. Records are
// append-only; they are never mutated or deleted.
type ApprovalRecord struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	VersionID  uuid.UUID        `json:"version_id" db:"version_id"`
	ApproverID uuid.UUID        `json:"approver_id" db:"approver_id"`
	Decision   ApprovalDecision `json:"decision" db:"decision"`
	Comment    string           `json:"comment" db:"comment"` // Required when decision is rejected
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the ApprovalRecord model
func (ApprovalRecord) TableName() string {
	return "approval_records"
}

// NewApprovalRecord creates a new ApprovalRecord instance
func NewApprovalRecord(versionID, approverID uuid.UUID, decision ApprovalDecision, comment string) *ApprovalRecord {
	return &ApprovalRecord{
		ID:         uuid.New(),
		VersionID:  versionID,
		ApproverID: approverID,
		Decision:   decision,
		Comment:    comment,
		CreatedAt:  time.Now(),
	}
}
