package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExecutionSource identifies where an execution request originated
type ExecutionSource string

const (
	SourceWeb       ExecutionSource = "web"
	SourceAPI       ExecutionSource = "api"
	SourceScheduled ExecutionSource = "scheduled"
)

// Execution records one attempt that reached the evaluator, successful or
// not. Rows are append-only. Denied authorizations never produce a row.
type Execution struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	PolicyID      uuid.UUID       `json:"policy_id" db:"policy_id"`
	PolicyVersion *int            `json:"policy_version,omitempty" db:"policy_version"` // Version actually run
	Input         json.RawMessage `json:"input" db:"input"`
	Output        json.RawMessage `json:"output,omitempty" db:"output"`
	Error         string          `json:"error,omitempty" db:"error"`
	Success       bool            `json:"success" db:"success"`
	DurationMs    int             `json:"duration_ms" db:"duration_ms"`
	Source        ExecutionSource `json:"source" db:"source"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Execution model
func (Execution) TableName() string {
	return "executions"
}
