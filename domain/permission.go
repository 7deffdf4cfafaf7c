package domain

import "strings"

// Role is an operator role carried in the access token.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RolePublisher Role = "publisher"
	RoleReviewer  Role = "reviewer"
	RoleEditor    Role = "editor"
	RoleSupport   Role = "support"
)

// Permission is a capability checked at the HTTP boundary.
type Permission string

const (
	PermDashboardView       Permission = "dashboard:view"
	PermContentManage       Permission = "content:manage"
	PermWorkflowReview      Permission = "workflow:review"
	PermWorkflowPublish     Permission = "workflow:publish"
	PermSupportManage       Permission = "support:manage"
	PermSecurityView        Permission = "security:view"
	PermSettingsManage      Permission = "settings:manage"
	PermUsersManage         Permission = "users:manage"
	PermStudioView          Permission = "acp:studio:view"
	PermPagesManage         Permission = "acp:pages:manage"
	PermDashboardsManage    Permission = "acp:dashboards:manage"
	PermRegistryManage      Permission = "acp:registry:manage"
	PermStudioContentManage Permission = "acp:content:manage"
	PermThemeManage         Permission = "acp:theme:manage"
	PermStudioPublish       Permission = "acp:publish"
	PermAuditView           Permission = "acp:audit:view"
	PermEnvironmentsManage  Permission = "acp:environments:manage"
)

var (
	editorPermissions = []Permission{
		PermDashboardView,
		PermContentManage,
		PermStudioView,
		PermPagesManage,
		PermStudioContentManage,
		PermThemeManage,
	}
	reviewerPermissions  = append(append([]Permission{}, editorPermissions...), PermWorkflowReview, PermDashboardsManage)
	publisherPermissions = append(append([]Permission{}, reviewerPermissions...), PermWorkflowPublish, PermStudioPublish)
	adminPermissions     = append(append([]Permission{}, publisherPermissions...),
		PermSupportManage,
		PermSecurityView,
		PermSettingsManage,
		PermUsersManage,
		PermRegistryManage,
		PermAuditView,
		PermEnvironmentsManage,
	)
)

var rolePermissions = map[Role]map[Permission]struct{}{
	RoleOwner:     permissionSet(adminPermissions),
	RoleAdmin:     permissionSet(adminPermissions),
	RolePublisher: permissionSet(publisherPermissions),
	RoleReviewer:  permissionSet(reviewerPermissions),
	RoleEditor:    permissionSet(editorPermissions),
	RoleSupport:   permissionSet([]Permission{PermDashboardView, PermSupportManage, PermStudioView}),
}

func permissionSet(perms []Permission) map[Permission]struct{} {
	set := make(map[Permission]struct{}, len(perms))
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return set
}

// ParseRole maps token input to a known role. Empty input is not a role.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := rolePermissions[role]
	return role, ok
}

// Can reports whether the role grants perm. An empty permission is always granted.
func (r Role) Can(perm Permission) bool {
	if perm == "" {
		return true
	}
	set, ok := rolePermissions[r]
	if !ok {
		return false
	}
	_, granted := set[perm]
	return granted
}
