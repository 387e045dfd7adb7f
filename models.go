package authzkit

import (
	"time"

	"github.com/uptrace/bun"
)

// Built-in role names. Built-in role names are immutable after creation,
// so they double as stable identifiers for the system roles.
const (
	BuiltInOwner     = "owner"
	BuiltInAdmin     = "admin"
	BuiltInModerator = "moderator"
	BuiltInMember    = "member"
)

// Role is a named, ordered bundle of permissions assignable to users.
// Position is the authority rank: higher value means more authority.
//
// Built-in roles (IsBuiltIn) have immutable name, position and built-in
// flag after creation. Permissions must be a subset of the catalog;
// RoleStore enforces both invariants on every write.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID            string    `bun:"id,pk,type:uuid"`
	Name          string    `bun:"name,notnull"`
	Description   string    `bun:"description,notnull,default:''"`
	Color         string    `bun:"color"`
	Icon          string    `bun:"icon"`
	Position      int       `bun:"position,notnull"`
	IsDefault     bool      `bun:"is_default,notnull,default:false"`
	IsMentionable bool      `bun:"is_mentionable,notnull,default:true"`
	IsBuiltIn     bool      `bun:"is_built_in,notnull,default:false"`
	Permissions   []string  `bun:"permissions,type:text[]"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,notnull,default:current_timestamp"`
	Version       int64     `bun:"version,notnull,default:1"`
	CreatedBy     string    `bun:"created_by"`
}

// HasPermission reports whether this role explicitly grants a permission.
// It does not expand administrator; that is the resolver's job.
func (r *Role) HasPermission(id string) bool {
	for _, p := range r.Permissions {
		if p == id {
			return true
		}
	}
	return false
}

// HasAdministrator reports whether this role grants administrator.
func (r *Role) HasAdministrator() bool {
	return r.HasPermission(PermissionAdministrator)
}

// GrantsRoleManagement reports whether this role carries role-management
// power, either through manage_roles or administrator.
func (r *Role) GrantsRoleManagement() bool {
	return r.HasPermission(PermissionManageRoles) || r.HasAdministrator()
}

// IsTopAuthority reports whether this is the platform's designated
// top-authority built-in role. It can only ever be managed by another
// holder of the same role, regardless of administrator grants.
func (r *Role) IsTopAuthority() bool {
	return r.IsBuiltIn && r.Name == BuiltInOwner
}

// Clone returns a deep copy of the role.
func (r *Role) Clone() Role {
	c := *r
	c.Permissions = make([]string, len(r.Permissions))
	copy(c.Permissions, r.Permissions)
	return c
}

// RoleAssignment links a user to a role. The (UserID, RoleID) pair is
// unique. Assignments are created and destroyed exclusively through the
// AssignmentCoordinator.
type RoleAssignment struct {
	bun.BaseModel `bun:"table:role_assignments,alias:ra"`

	ID         string    `bun:"id,pk,type:uuid"`
	UserID     string    `bun:"user_id,notnull"`
	RoleID     string    `bun:"role_id,notnull,type:uuid"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
	AssignedBy string    `bun:"assigned_by"`
}

// EffectivePermissions is the computed view of a user's authority: the
// union of permissions across the assigned roles, the roles ordered by
// descending authority, and the highest role used for hierarchy checks.
// It has no storage of its own; it is recomputed on demand.
type EffectivePermissions struct {
	UserID      string
	Permissions []string // sorted permission IDs
	Roles       []Role   // ordered by descending authority
	HighestRole Role

	set map[string]struct{}
}

// Has reports whether the effective set contains a permission.
func (e *EffectivePermissions) Has(id string) bool {
	_, ok := e.set[id]
	return ok
}

// HasAny reports whether the effective set contains any of the permissions.
func (e *EffectivePermissions) HasAny(ids ...string) bool {
	for _, id := range ids {
		if e.Has(id) {
			return true
		}
	}
	return false
}

// HasAll reports whether the effective set contains all of the permissions.
func (e *EffectivePermissions) HasAll(ids ...string) bool {
	for _, id := range ids {
		if !e.Has(id) {
			return false
		}
	}
	return true
}

// IsAdministrator reports whether the effective set includes administrator.
func (e *EffectivePermissions) IsAdministrator() bool {
	return e.Has(PermissionAdministrator)
}

// AuditAction identifies the kind of change recorded in the audit log.
type AuditAction string

const (
	AuditRoleCreated       AuditAction = "role.created"
	AuditRoleUpdated       AuditAction = "role.updated"
	AuditRoleDeleted       AuditAction = "role.deleted"
	AuditAssignmentAdded   AuditAction = "assignment.added"
	AuditAssignmentRemoved AuditAction = "assignment.removed"
)

// AuditRecord records a role or assignment change for compliance and
// debugging. Audit writes are best-effort; they never fail the change
// they describe.
type AuditRecord struct {
	bun.BaseModel `bun:"table:role_audit_log,alias:al"`

	ID        string    `bun:"id,pk,type:uuid"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	ActorID      string `bun:"actor_id,notnull"`
	Action       string `bun:"action,notnull"`
	RoleID       string `bun:"role_id"`
	RoleName     string `bun:"role_name"`
	TargetUserID string `bun:"target_user_id"`

	// Role state around the change, for forensics.
	PreviousPermissions []string `bun:"previous_permissions,type:text[]"`
	NewPermissions      []string `bun:"new_permissions,type:text[]"`

	// Request metadata pulled from context.
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	Metadata map[string]any `bun:"metadata,type:jsonb"`
}
