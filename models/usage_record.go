package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageType represents a metered action
type UsageType string

const (
	UsageTypeExecutions UsageType = "executions"
	UsageTypeAPICalls   UsageType = "api_calls"
)

// UsageRecord tracks a per-user, per-calendar-period count for a metered
// action. Rows are created lazily on first use in a period, incremented
// atomically, and never decremented.
type UsageRecord struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	UsageType UsageType `json:"usage_type" db:"usage_type"`
	Period    string    `json:"period" db:"period"` // Calendar month, "2006-01"
	Count     int       `json:"count" db:"count"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the UsageRecord model
func (UsageRecord) TableName() string {
	return "usage_records"
}
