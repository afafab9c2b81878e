package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns policies and consumes execution quota
type User struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Plan        string     `json:"plan" db:"plan"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty" db:"trial_ends_at"` // Null unless on trial
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
