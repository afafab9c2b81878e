package models

import (
	"time"

	"github.com/google/uuid"
)

// Policy represents an authored decision-rule document. The mutable content
// lives in PolicyVersion rows; the policy row only carries ownership,
// visibility and recency metadata.
type Policy struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OwnerID   uuid.UUID  `json:"owner_id" db:"owner_id"`
	TeamID    *uuid.UUID `json:"team_id,omitempty" db:"team_id"` // Null if personal
	Name      string     `json:"name" db:"name"`
	IsPublic  bool       `json:"is_public" db:"is_public"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// TableName returns the table name for the Policy model
func (Policy) TableName() string {
	return "policies"
}

// NewPolicy creates a new Policy instance
func NewPolicy(ownerID uuid.UUID, name string) *Policy {
	now := time.Now()
	return &Policy{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
