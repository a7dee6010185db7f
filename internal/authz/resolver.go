// Package authz resolves what a user may do on a project.
//
// Every function here is total: missing membership yields RoleNone, an empty
// PermissionSet or false, never an error. Callers check the result before
// invoking a ledger mutation.
package authz

import "github.com/gofrs/uuid/v5"

// Principal is the caller identity the resolver works with.
type Principal struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// Scope is anything that carries a project membership list. A nil Scope stands
// for "no project", where only administrators hold permissions.
type Scope interface {
	ProjectMembers() []Member
}

func findMember(userID uuid.UUID, scope Scope) (Member, bool) {
	if scope == nil {
		return Member{}, false
	}
	for _, m := range scope.ProjectMembers() {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}

// ResolveRole returns RoleAdmin for administrators, the member role for
// members, and RoleNone otherwise.
func ResolveRole(p Principal, scope Scope) Role {
	if p.IsAdmin {
		return RoleAdmin
	}
	if m, ok := findMember(p.UserID, scope); ok {
		return m.Role
	}
	return RoleNone
}

// EffectivePermissions returns the full universe for administrators and the
// stored member permission set otherwise.
func EffectivePermissions(p Principal, scope Scope) PermissionSet {
	if p.IsAdmin {
		return FullPermissionSet()
	}
	if m, ok := findMember(p.UserID, scope); ok {
		return m.Permissions & FullPermissionSet()
	}
	return 0
}

// HasPermission reports whether p may exercise perm on scope.
func HasPermission(p Principal, scope Scope, perm Permission) bool {
	if p.IsAdmin {
		return true
	}
	return EffectivePermissions(p, scope).Has(perm)
}

// IsMember reports whether p appears in the scope membership.
func IsMember(p Principal, scope Scope) bool {
	_, ok := findMember(p.UserID, scope)
	return ok
}

// AccessibleProjects returns all projects for administrators and the projects
// listing p as a member otherwise. Input order is preserved.
func AccessibleProjects[P Scope](p Principal, all []P) []P {
	out := make([]P, 0, len(all))
	for _, project := range all {
		if p.IsAdmin || IsMember(p, project) {
			out = append(out, project)
		}
	}
	return out
}

// ProjectsWithPermission narrows all to the projects where p holds perm.
func ProjectsWithPermission[P Scope](p Principal, all []P, perm Permission) []P {
	out := make([]P, 0, len(all))
	for _, project := range all {
		if HasPermission(p, project, perm) {
			out = append(out, project)
		}
	}
	return out
}
