package authzkit

import (
	"fmt"
	"strings"
)

// ConflictType classifies a detected permission conflict.
type ConflictType string

const (
	// ConflictDangerous flags exposure of a permission the catalog marks
	// as dangerous.
	ConflictDangerous ConflictType = "dangerous"

	// ConflictEscalation flags a role combination that grants authority
	// beyond intended hierarchy bounds.
	ConflictEscalation ConflictType = "escalation"
)

// PermissionConflict describes one detected risk in an assigned role set.
// The output is purely advisory; callers decide whether to block on it.
type PermissionConflict struct {
	Permission string
	Type       ConflictType
	Roles      []string // names of the roles involved
	Message    string
}

// Detector scans an assigned role set for escalation risk and
// dangerous-permission exposure. It never errors: empty input yields an
// empty result.
type Detector struct {
	catalog *Catalog
}

// NewDetector creates a Detector over a permission catalog.
func NewDetector(catalog *Catalog) *Detector {
	return &Detector{catalog: catalog}
}

// DetectPermissionConflicts returns the conflicts in an assigned role set,
// in deterministic order: dangerous exposures in catalog order, then
// escalations by descending position of the offending role, then the
// combinatorial coverage check.
func (d *Detector) DetectPermissionConflicts(assigned []Role) []PermissionConflict {
	if len(assigned) == 0 {
		return nil
	}

	var conflicts []PermissionConflict
	conflicts = append(conflicts, d.dangerousConflicts(assigned)...)
	conflicts = append(conflicts, d.escalationConflicts(assigned)...)
	if c, ok := d.combinatorialConflict(assigned); ok {
		conflicts = append(conflicts, c)
	}
	return conflicts
}

// dangerousConflicts emits one record per dangerous permission in the
// explicit union, listing every role contributing it. Administrator is a
// dangerous catalog entry itself, so an administrator grant surfaces here
// without expanding to every permission it implies.
func (d *Detector) dangerousConflicts(assigned []Role) []PermissionConflict {
	var out []PermissionConflict
	for _, id := range d.catalog.IDs() {
		if !d.catalog.IsDangerous(id) {
			continue
		}
		var contributors []string
		for _, role := range assigned {
			if role.HasPermission(id) {
				contributors = append(contributors, role.Name)
			}
		}
		if len(contributors) == 0 {
			continue
		}
		out = append(out, PermissionConflict{
			Permission: id,
			Type:       ConflictDangerous,
			Roles:      contributors,
			Message: fmt.Sprintf("dangerous permission %q is granted by %s",
				id, quoteJoin(contributors)),
		})
	}
	return out
}

// escalationConflicts flags every role that carries role-management power
// while another assigned role outranks it without carrying that power: the
// holder's effective rank then exceeds the rank that sourced the power,
// letting them manage roles above the granting role's own position.
func (d *Detector) escalationConflicts(assigned []Role) []PermissionConflict {
	ordered := DefaultHierarchy.SortRolesByPosition(assigned)

	var out []PermissionConflict
	for _, granting := range ordered {
		if !granting.GrantsRoleManagement() {
			continue
		}
		var above []string
		for _, other := range ordered {
			if other.ID == granting.ID || other.GrantsRoleManagement() {
				continue
			}
			if other.Position > granting.Position {
				above = append(above, other.Name)
			}
		}
		if len(above) == 0 {
			continue
		}
		permission := PermissionManageRoles
		if granting.HasAdministrator() {
			permission = PermissionAdministrator
		}
		out = append(out, PermissionConflict{
			Permission: permission,
			Type:       ConflictEscalation,
			Roles:      []string{granting.Name},
			Message: fmt.Sprintf("role %q (position %d) grants role management while the holder's rank comes from %s without it",
				granting.Name, granting.Position, quoteJoin(above)),
		})
	}
	return out
}

// combinatorialConflict flags a role set whose explicit union covers every
// catalog permission (administrator aside) while no single role carries
// administrator itself.
func (d *Detector) combinatorialConflict(assigned []Role) (PermissionConflict, bool) {
	union := make(map[string]struct{})
	for _, role := range assigned {
		if role.HasAdministrator() {
			return PermissionConflict{}, false
		}
		for _, p := range role.Permissions {
			union[p] = struct{}{}
		}
	}

	for _, id := range d.catalog.IDs() {
		if id == PermissionAdministrator {
			continue
		}
		if _, ok := union[id]; !ok {
			return PermissionConflict{}, false
		}
	}

	names := make([]string, len(assigned))
	for i, role := range assigned {
		names[i] = role.Name
	}
	return PermissionConflict{
		Permission: PermissionAdministrator,
		Type:       ConflictEscalation,
		Roles:      names,
		Message:    "combined roles cover every catalog permission without an explicit administrator grant",
	}, true
}

func quoteJoin(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
