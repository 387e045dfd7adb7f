package authzkit

import (
	"sort"
)

// Hierarchy orders roles by authority and decides whether one role may
// manage another. All methods are pure: no side effects, no errors.
type Hierarchy struct{}

// NewHierarchy creates a new Hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{}
}

// SortRolesByPosition returns the roles in descending authority order:
// higher position first, ties broken by earliest CreatedAt. The sort is
// stable and the input slice is not modified.
func (h *Hierarchy) SortRolesByPosition(roles []Role) []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position > out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// HighestRole returns the role with the greatest authority among the given
// roles, using the same ordering as SortRolesByPosition. The second return
// is false for an empty input.
func (h *Hierarchy) HighestRole(roles []Role) (Role, bool) {
	if len(roles) == 0 {
		return Role{}, false
	}
	highest := roles[0]
	for _, r := range roles[1:] {
		if r.Position > highest.Position {
			highest = r
			continue
		}
		if r.Position == highest.Position && r.CreatedAt.Before(highest.CreatedAt) {
			highest = r
		}
	}
	return highest, true
}

// CanManageRole reports whether an actor whose highest role is actorHighest
// may manage the target role.
//
// Rules:
//   - The designated top-authority built-in role can only be managed by
//     another holder of that same role. No administrator grant escalates
//     past the platform's ultimate authority.
//   - Otherwise, a role granting administrator may manage any role.
//   - Otherwise, strictly greater position is required. A role never
//     manages itself or a role of equal or greater authority.
//
// Example:
//
//	if authzkit.CanManageRole(actorHighest, target) {
//	    // actor may edit, delete or assign target
//	}
func (h *Hierarchy) CanManageRole(actorHighest, target Role) bool {
	if target.IsTopAuthority() {
		return actorHighest.IsTopAuthority()
	}
	if actorHighest.HasAdministrator() {
		return true
	}
	return actorHighest.Position > target.Position
}

// ManageableRoles filters allRoles down to those the actor may manage.
func (h *Hierarchy) ManageableRoles(actorHighest Role, allRoles []Role) []Role {
	var out []Role
	for _, r := range allRoles {
		if h.CanManageRole(actorHighest, r) {
			out = append(out, r)
		}
	}
	return out
}

// DefaultHierarchy is the default hierarchy instance.
var DefaultHierarchy = NewHierarchy()

// SortRolesByPosition is a convenience function using the default hierarchy.
func SortRolesByPosition(roles []Role) []Role {
	return DefaultHierarchy.SortRolesByPosition(roles)
}

// CanManageRole is a convenience function using the default hierarchy.
func CanManageRole(actorHighest, target Role) bool {
	return DefaultHierarchy.CanManageRole(actorHighest, target)
}

// ManageableRoles is a convenience function using the default hierarchy.
func ManageableRoles(actorHighest Role, allRoles []Role) []Role {
	return DefaultHierarchy.ManageableRoles(actorHighest, allRoles)
}
