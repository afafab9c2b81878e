package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamRole represents a member's role within a team
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
	TeamRoleViewer TeamRole = "viewer"
)

// CanExecute reports whether the role grants execute permission on team
// policies. Viewers have read-only access.
func (r TeamRole) CanExecute() bool {
	return r == TeamRoleOwner || r == TeamRoleAdmin || r == TeamRoleMember
}

// TeamMember represents a user's membership in a team
type TeamMember struct {
	TeamID    uuid.UUID `json:"team_id" db:"team_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      TeamRole  `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the TeamMember model
func (TeamMember) TableName() string {
	return "team_members"
}
