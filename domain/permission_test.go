package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCan(t *testing.T) {
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleOwner, PermEnvironmentsManage, true},
		{RoleAdmin, PermAuditView, true},
		{RolePublisher, PermStudioPublish, true},
		{RolePublisher, PermAuditView, false},
		{RoleReviewer, PermDashboardsManage, true},
		{RoleReviewer, PermWorkflowPublish, false},
		{RoleEditor, PermPagesManage, true},
		{RoleEditor, PermDashboardsManage, false},
		{RoleSupport, PermContentManage, false},
		{Role("ghost"), PermDashboardView, false},
		{Role("ghost"), "", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.role.Can(tc.perm), "%s can %s", tc.role, tc.perm)
	}
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Publisher ")
	assert.True(t, ok)
	assert.Equal(t, RolePublisher, role)

	_, ok = ParseRole("  ")
	assert.False(t, ok, "a missing role grants nothing")

	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestKindsGuardedByGrantedPermissions(t *testing.T) {
	for _, kind := range []Kind{PageKind, DashboardKind, ServiceKind, PostKind, IndustryKind, ThemeKind, ContentTypeKind, ContentEntryKind} {
		assert.True(t, RoleAdmin.Can(kind.Manage), kind.Name)
		assert.True(t, RoleAdmin.Can(kind.Publish), kind.Name)
		assert.Equal(t, kind.Workflow, kind.Publish != "", kind.Name)
	}
}
