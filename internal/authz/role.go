package authz

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Role is a project-scoped role.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
	RoleViewer  Role = "VIEWER"

	// RoleAdmin is reported for global administrators. It is never stored on a membership.
	RoleAdmin Role = "ADMIN"
	// RoleNone is reported when a user holds no membership in the project.
	RoleNone Role = ""
)

var roleDefaults = map[Role]PermissionSet{
	RoleOwner: FullPermissionSet(),
	RoleManager: NewPermissionSet(
		PermViewTransactions,
		PermCreateIncome,
		PermCreateExpense,
		PermApproveTransactions,
		PermManageAccounts,
		PermViewReports,
	),
	RoleMember: NewPermissionSet(
		PermViewTransactions,
		PermCreateIncome,
		PermCreateExpense,
	),
	RoleViewer: NewPermissionSet(
		PermViewTransactions,
		PermViewReports,
	),
}

// Valid reports whether r is a role that can be assigned to a member.
func (r Role) Valid() bool {
	_, ok := roleDefaults[r]
	return ok
}

// DefaultPermissions returns the canonical permission set of the role.
func (r Role) DefaultPermissions() PermissionSet {
	return roleDefaults[r]
}

// ParseRole converts s into an assignable Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Member is a user's membership in one project: a role plus the permission set
// actually granted, which may diverge from the role default.
type Member struct {
	UserID      uuid.UUID
	Role        Role
	Permissions PermissionSet
	JoinedAt    time.Time
}

// NewMember creates a membership holding the role's canonical permissions.
func NewMember(userID uuid.UUID, role Role, joinedAt time.Time) (Member, error) {
	if !role.Valid() {
		return Member{}, fmt.Errorf("unknown role %q", role)
	}
	return Member{
		UserID:      userID,
		Role:        role,
		Permissions: role.DefaultPermissions(),
		JoinedAt:    joinedAt,
	}, nil
}

// ChangeRole sets the role and resets the permission set to the role default,
// discarding any custom overrides.
func (m *Member) ChangeRole(role Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	m.Role = role
	m.Permissions = role.DefaultPermissions()
	return nil
}

// TogglePermission adds p when absent or removes it when present. It returns
// whether the member holds p afterwards.
func (m *Member) TogglePermission(p Permission) (bool, error) {
	if !p.Valid() {
		return false, fmt.Errorf("unknown permission %q", p)
	}
	if m.Permissions.Has(p) {
		m.Permissions = m.Permissions.Without(p)
		return false, nil
	}
	m.Permissions = m.Permissions.With(p)
	return true, nil
}

// IsCustomized reports whether the permission set diverges from the role default.
func (m Member) IsCustomized() bool {
	return m.Permissions != m.Role.DefaultPermissions()
}
