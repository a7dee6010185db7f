package authz

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// Permission is a single capability a project member may hold.
type Permission string

const (
	PermViewTransactions    Permission = "view_transactions"
	PermCreateIncome        Permission = "create_income"
	PermCreateExpense       Permission = "create_expense"
	PermApproveTransactions Permission = "approve_transactions"
	PermManageAccounts      Permission = "manage_accounts"
	PermManageMembers       Permission = "manage_members"
	PermViewReports         Permission = "view_reports"
	PermEditProject         Permission = "edit_project"
)

// universe is the fixed permission universe. The position of a permission in
// this slice is its bit in a PermissionSet.
var universe = []Permission{
	PermViewTransactions,
	PermCreateIncome,
	PermCreateExpense,
	PermApproveTransactions,
	PermManageAccounts,
	PermManageMembers,
	PermViewReports,
	PermEditProject,
}

// Universe returns every known permission in canonical order.
func Universe() []Permission {
	out := make([]Permission, len(universe))
	copy(out, universe)
	return out
}

func (p Permission) bit() (PermissionSet, bool) {
	for i, known := range universe {
		if known == p {
			return PermissionSet(1) << i, true
		}
	}
	return 0, false
}

// Valid reports whether p belongs to the permission universe.
func (p Permission) Valid() bool {
	_, ok := p.bit()
	return ok
}

// ParsePermission converts s into a Permission, rejecting anything outside the universe.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// PermissionSet is a bit set over the permission universe. It cannot represent
// a permission outside the universe.
type PermissionSet uint16

var fullSet = func() PermissionSet {
	var s PermissionSet
	for _, p := range universe {
		b, _ := p.bit()
		s |= b
	}
	return s
}()

// FullPermissionSet returns the set holding every permission.
func FullPermissionSet() PermissionSet {
	return fullSet
}

// NewPermissionSet builds a set from perms. Unknown permissions are ignored.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s = s.With(p)
	}
	return s
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p Permission) bool {
	b, ok := p.bit()
	return ok && s&b != 0
}

// With returns a copy of the set including p.
func (s PermissionSet) With(p Permission) PermissionSet {
	b, ok := p.bit()
	if !ok {
		return s
	}
	return s | b
}

// Without returns a copy of the set excluding p.
func (s PermissionSet) Without(p Permission) PermissionSet {
	b, ok := p.bit()
	if !ok {
		return s
	}
	return s &^ b
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	return bits.OnesCount16(uint16(s & fullSet))
}

// IsEmpty reports whether the set holds no permission.
func (s PermissionSet) IsEmpty() bool {
	return s&fullSet == 0
}

// List returns the permissions of the set in canonical order.
func (s PermissionSet) List() []Permission {
	out := make([]Permission, 0, s.Len())
	for _, p := range universe {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Strings returns the permission names of the set in canonical order.
func (s PermissionSet) Strings() []string {
	perms := s.List()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func (s PermissionSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// ParsePermissionSet parses names into a set, failing on the first unknown name.
func ParsePermissionSet(names []string) (PermissionSet, error) {
	var s PermissionSet
	for _, name := range names {
		p, err := ParsePermission(name)
		if err != nil {
			return 0, err
		}
		s = s.With(p)
	}
	return s, nil
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParsePermissionSet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
