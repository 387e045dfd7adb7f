package authzkit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// RoleInput carries the fields for creating a role.
// A zero Position means "assign the next free position on top".
type RoleInput struct {
	Name          string
	Description   string
	Color         string
	Icon          string
	Position      int
	IsDefault     bool
	IsMentionable bool
	Permissions   []string
	CreatedBy     string
}

// RolePatch carries a partial update for a role. Nil fields are left
// unchanged. The built-in flag is deliberately absent: it is immutable
// after creation.
type RolePatch struct {
	Name          *string
	Description   *string
	Color         *string
	Icon          *string
	Position      *int
	IsDefault     *bool
	IsMentionable *bool
	Permissions   *[]string
}

// Store owns the Role lifecycle: every create, update and delete goes
// through it and is validated against the catalog. Deleting a role
// cascades removal of its assignments in a single transaction.
type Store struct {
	db         dbkit.IDB
	catalog    *Catalog
	validator  *RoleValidator
	logger     logrus.FieldLogger
	invalidate func(roleID string)
}

// StoreOption configures the Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger for role mutations.
func WithStoreLogger(logger logrus.FieldLogger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithInvalidation sets the hook the store calls synchronously after
// committing a change to a role's permissions or position. Wire it to
// Resolver.InvalidateRole so cached effective permissions can never
// outlive the role state they were computed from.
func WithInvalidation(fn func(roleID string)) StoreOption {
	return func(s *Store) {
		s.invalidate = fn
	}
}

// NewStore creates a role store over a database and a permission catalog.
func NewStore(db dbkit.IDB, catalog *Catalog, opts ...StoreOption) *Store {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		db:         db,
		catalog:    catalog,
		validator:  NewRoleValidator(catalog),
		logger:     discard,
		invalidate: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validator returns the role validator, for callers that want to surface
// violations and warnings without attempting a write.
func (s *Store) Validator() *RoleValidator {
	return s.validator
}

// Create validates and persists a new role. A validation failure lists
// every violated field. A duplicate name (case-insensitive) fails with
// Conflict. When no position is given the role is placed on top of the
// existing ones.
func (s *Store) Create(ctx context.Context, input RoleInput) (*Role, error) {
	now := time.Now()
	role := &Role{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		Color:         input.Color,
		Icon:          input.Icon,
		Position:      input.Position,
		IsDefault:     input.IsDefault,
		IsMentionable: input.IsMentionable,
		Permissions:   append([]string(nil), input.Permissions...),
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		CreatedBy:     input.CreatedBy,
	}

	if role.Position == 0 {
		pos, err := s.nextPosition(ctx)
		if err != nil {
			return nil, err
		}
		role.Position = pos
	}

	if violations, _ := s.validator.ValidateRole(role); len(violations) > 0 {
		return nil, NewValidationError(violations).WithRole(role.ID, role.Name)
	}

	if err := s.checkNameFree(ctx, role.Name, ""); err != nil {
		return nil, err
	}

	result, err := s.db.NewInsert().Model(role).Exec(ctx)
	if err := dbkit.WithErr(result, err, "CreateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, fmt.Sprintf("role name %q already exists", role.Name)).
				WithRole(role.ID, role.Name)
		}
		return nil, err
	}

	writeAudit(ctx, s.db, s.logger, &AuditRecord{
		Action:         string(AuditRoleCreated),
		RoleID:         role.ID,
		RoleName:       role.Name,
		NewPermissions: role.Permissions,
	})
	s.logger.WithFields(logrus.Fields{
		"role_id":  role.ID,
		"name":     role.Name,
		"position": role.Position,
	}).Info("role created")

	return role, nil
}

// Get fetches a role by ID.
func (s *Store) Get(ctx context.Context, id string) (*Role, error) {
	var role Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&role).Where("id = ?", id).Scan(ctx), "GetRole").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, fmt.Sprintf("role %q does not exist", id)).WithRole(id, "")
		}
		return nil, err
	}
	return &role, nil
}

// GetByName fetches a role by name, case-insensitively.
func (s *Store) GetByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&role).Where("lower(name) = lower(?)", name).Scan(ctx), "GetRoleByName").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return nil, NewError(ErrNotFound, fmt.Sprintf("role named %q does not exist", name)).WithRole("", name)
		}
		return nil, err
	}
	return &role, nil
}

// List returns all roles, unordered. Ordering by authority is the
// hierarchy's job.
func (s *Store) List(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).Scan(ctx), "ListRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Update applies a partial update under optimistic concurrency: the caller
// supplies the version it read, and a mismatch fails with Conflict rather
// than silently overwriting a concurrent edit. Touching a protected field
// of a built-in role fails with Forbidden.
func (s *Store) Update(ctx context.Context, id string, patch RolePatch, expectedVersion int64) (*Role, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Version != expectedVersion {
		return nil, NewError(ErrConflict, fmt.Sprintf("role was modified concurrently: expected version %d, current is %d",
			expectedVersion, current.Version)).WithRole(current.ID, current.Name)
	}

	updated := current.Clone()
	applyPatch(&updated, patch)

	if protected := s.validator.ProtectedFields(current, &updated); len(protected) > 0 {
		return nil, NewError(ErrForbidden, fmt.Sprintf("built-in role %q: protected fields are immutable: %s",
			current.Name, strings.Join(protected, ", "))).WithRole(current.ID, current.Name)
	}
	if violations, _ := s.validator.ValidateRole(&updated); len(violations) > 0 {
		return nil, NewValidationError(violations).WithRole(current.ID, current.Name)
	}
	if updated.Name != current.Name {
		if err := s.checkNameFree(ctx, updated.Name, current.ID); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = time.Now()
	result, err := s.db.NewUpdate().Model(&updated).
		Column("name", "description", "color", "icon", "position",
			"is_default", "is_mentionable", "permissions", "updated_at").
		Set("version = version + 1").
		Where("id = ? AND version = ?", id, expectedVersion).
		Exec(ctx)
	if err := dbkit.WithErr(result, err, "UpdateRole").Err(); err != nil {
		if dbkit.IsDuplicate(err) {
			return nil, NewError(ErrConflict, fmt.Sprintf("role name %q already exists", updated.Name)).
				WithRole(current.ID, updated.Name)
		}
		return nil, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, NewError(ErrConflict, fmt.Sprintf("role was modified concurrently: expected version %d",
			expectedVersion)).WithRole(current.ID, current.Name)
	}
	updated.Version = expectedVersion + 1

	s.invalidate(id)
	writeAudit(ctx, s.db, s.logger, &AuditRecord{
		Action:              string(AuditRoleUpdated),
		RoleID:              updated.ID,
		RoleName:            updated.Name,
		PreviousPermissions: current.Permissions,
		NewPermissions:      updated.Permissions,
	})
	s.logger.WithFields(logrus.Fields{
		"role_id": updated.ID,
		"name":    updated.Name,
		"version": updated.Version,
	}).Info("role updated")

	return &updated, nil
}

// Delete removes a role and, atomically in the same transaction, every
// assignment referencing it. Built-in roles cannot be deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.IsBuiltIn {
		return NewError(ErrForbidden, fmt.Sprintf("built-in role %q cannot be deleted", current.Name)).
			WithRole(current.ID, current.Name)
	}

	err = s.transaction(ctx, func(db dbkit.IDB) error {
		result, err := db.NewDelete().Table("role_assignments").Where("role_id = ?", id).Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRoleAssignments").Err(); err != nil {
			return err
		}
		result, err = db.NewDelete().Table("roles").Where("id = ?", id).Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return NewError(ErrNotFound, fmt.Sprintf("role %q does not exist", id)).WithRole(id, current.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(id)
	writeAudit(ctx, s.db, s.logger, &AuditRecord{
		Action:              string(AuditRoleDeleted),
		RoleID:              current.ID,
		RoleName:            current.Name,
		PreviousPermissions: current.Permissions,
	})
	s.logger.WithFields(logrus.Fields{
		"role_id": current.ID,
		"name":    current.Name,
	}).Info("role deleted")

	return nil
}

// AssignmentsFor returns the role assignments of a user.
func (s *Store) AssignmentsFor(ctx context.Context, userID string) ([]RoleAssignment, error) {
	var assignments []RoleAssignment
	err := dbkit.WithErr1(s.db.NewSelect().Model(&assignments).Where("user_id = ?", userID).Scan(ctx), "AssignmentsFor").Err()
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// RolesFor returns the roles assigned to a user.
func (s *Store) RolesFor(ctx context.Context, userID string) ([]Role, error) {
	assignments, err := s.AssignmentsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.RoleID
	}
	var roles []Role
	err = dbkit.WithErr1(s.db.NewSelect().Model(&roles).Where("id IN (?)", bun.In(ids)).Scan(ctx), "RolesFor").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// DefaultRoles returns the roles auto-granted to new users.
func (s *Store) DefaultRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.db.NewSelect().Model(&roles).Where("is_default = TRUE").Scan(ctx), "DefaultRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Store) nextPosition(ctx context.Context) (int, error) {
	var pos int
	err := dbkit.WithErr1(s.db.NewRaw("SELECT COALESCE(MAX(position), 0) + 1 FROM roles").Scan(ctx, &pos), "NextPosition").Err()
	if err != nil {
		return 0, err
	}
	return pos, nil
}

// checkNameFree fails with Conflict when another role already uses the
// name. The unique index enforces this at the database too; checking first
// produces the friendlier error.
func (s *Store) checkNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.GetByName(ctx, name)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return NewError(ErrConflict, fmt.Sprintf("role name %q already exists", name)).
		WithRole(existing.ID, existing.Name)
}

// transaction runs fn inside a database transaction when the underlying
// handle supports one, falling back to direct execution otherwise.
func (s *Store) transaction(ctx context.Context, fn func(db dbkit.IDB) error) error {
	switch db := s.db.(type) {
	case *dbkit.DBKit:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	case *dbkit.Tx:
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(tx)
		})
	default:
		return fn(s.db)
	}
}

func applyPatch(role *Role, patch RolePatch) {
	if patch.Name != nil {
		role.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		role.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Color != nil {
		role.Color = *patch.Color
	}
	if patch.Icon != nil {
		role.Icon = *patch.Icon
	}
	if patch.Position != nil {
		role.Position = *patch.Position
	}
	if patch.IsDefault != nil {
		role.IsDefault = *patch.IsDefault
	}
	if patch.IsMentionable != nil {
		role.IsMentionable = *patch.IsMentionable
	}
	if patch.Permissions != nil {
		role.Permissions = append([]string(nil), (*patch.Permissions)...)
	}
}
