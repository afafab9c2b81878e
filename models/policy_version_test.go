package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewDraftVersion(t *testing.T) {
	policyID := uuid.New()
	authorID := uuid.New()

	v := NewDraftVersion(policyID, authorID, "deny when amount > 1000", "initial rules")

	assert.Equal(t, policyID, v.PolicyID)
	assert.Equal(t, authorID, v.CreatedBy)
	assert.Equal(t, VersionStatusDraft, v.Status)
	assert.False(t, v.IsDefault)
	assert.Zero(t, v.Version, "the dense version number is assigned on insert")
	assert.Equal(t, HashSource("deny when amount > 1000"), v.SourceHash)
	assert.Equal(t, "initial rules", v.ReleaseNote)
	assert.False(t, v.CreatedAt.IsZero())
}

func TestHashSource(t *testing.T) {
	a := HashSource("allow all")
	b := HashSource("allow all")
	c := HashSource("deny all")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestIsTerminal(t *testing.T) {
	cases := []struct {
		status   VersionStatus
		terminal bool
	}{
		{VersionStatusDraft, false},
		{VersionStatusPendingApproval, false},
		{VersionStatusApproved, false},
		{VersionStatusDeprecated, false},
		{VersionStatusRejected, true},
		{VersionStatusArchived, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			v := &PolicyVersion{Status: tc.status}
			assert.Equal(t, tc.terminal, v.IsTerminal())
		})
	}
}
