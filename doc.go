// Package authzkit provides a role-based authorization engine for team chat
// and collaboration platforms.
//
// AuthzKit manages a fixed catalog of permissions, custom and built-in roles
// arranged in a position-based hierarchy, role assignments per user, and the
// computation of a user's effective permission set from everything assigned
// to them.
//
// # Core Concepts
//
// Permission: A fixed catalog entry identified by a snake_case ID like
// "send_messages" or "ban_members". The catalog is closed: roles may only
// reference IDs it contains. "administrator" is special and expands to every
// permission in the catalog.
//
// Role: A named bundle of permission IDs with display metadata (color, icon),
// a hierarchy position, and an optimistic-concurrency version. Built-in roles
// (owner, admin, moderator, member) have protected fields.
//
// Hierarchy: Roles with a higher position outrank roles with a lower one.
// An actor manages a role only when the actor's highest role strictly
// outranks it, with carve-outs for administrators and the owner role.
//
// Effective Permissions: The union of permissions across all of a user's
// assigned roles, cached per role set and invalidated on any role change.
//
// # Key Features
//
//   - Closed permission catalog with categories and dangerous-permission flags
//   - Position-based hierarchy with deterministic tie-breaking
//   - Administrator expansion: one grant, the whole catalog
//   - Optimistic concurrency on role updates via a version column
//   - Built-in role seeding with protected fields
//   - Advisory conflict detection: dangerous grants, escalation paths,
//     combinatorial full-catalog coverage
//   - Batched assignment changes with per-change error reporting
//   - Detailed audit logging: who, what, when, previous state, new state
//   - DBKit integration: uses your existing database connection
//
// # Basic Usage
//
//	// 1. Create the service (at application startup)
//	catalog := authzkit.DefaultCatalog()
//	service := authzkit.NewService(catalog, db)
//
//	// 2. Run migrations and seed built-in roles
//	db.Migrate(ctx, service.Migrations())
//	service.Store().SeedBuiltInRoles(ctx)
//
//	// 3. Create a custom role
//	role, err := service.Store().Create(ctx, authzkit.RoleInput{
//	    Name:        "Helper",
//	    Color:       "#1ABC9C",
//	    Permissions: []string{authzkit.PermissionManageMessages},
//	})
//
//	// 4. Assign it
//	result, err := service.Coordinator().Apply(ctx, userID, actorHighest,
//	    []authzkit.AssignmentChange{{Action: authzkit.ChangeAdd, RoleID: role.ID}})
//
//	// 5. Check permissions
//	if service.HasPermission(ctx, userID, authzkit.PermissionBanMembers) {
//	    // user may ban members
//	}
//
// # Middleware Usage
//
//	mw := authzkit.NewMiddleware(service)
//
//	router.Use(mw.InjectAuditContext())
//
//	router.With(mw.RequirePermission(authzkit.PermissionManageChannels)).
//	    Post("/channels", createChannelHandler)
//
//	router.With(mw.RequireRoleManagement()).
//	    Post("/roles", createRoleHandler)
//
// # Conflict Detection
//
// Conflict detection is advisory: it never blocks an assignment, it surfaces
// risk for an admin UI to display.
//
//	conflicts, err := service.ConflictsFor(ctx, userID)
//	for _, c := range conflicts {
//	    fmt.Println(c.Message)
//	}
//
// # Audit Log
//
// Every role and assignment mutation is logged with:
//   - Actor (who made the change)
//   - Target user and role
//   - Action (role.created, role.updated, role.deleted, assignment.added, assignment.removed)
//   - Previous and new permission sets for role updates
//   - Timestamp
//   - Request metadata (IP, user agent, request ID)
package authzkit
