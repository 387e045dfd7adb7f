package authzkit

import (
	"context"
	"io"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
)

// Service wires the engine together: catalog, store, hierarchy, resolver,
// detector and coordinator are constructed explicitly and passed where
// needed, with no hidden global state. One Service per process is the
// expected lifetime, enforced by construction rather than a singleton.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping; engine
// errors carry the authzkit taxonomy (ErrValidation, ErrConflict,
// ErrNotFound, ErrForbidden, ErrInvariant) and classify with the Is*
// helpers.
//
// Example:
//
//	catalog := authzkit.DefaultCatalog()
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := authzkit.NewService(catalog, db)
//	db.Migrate(ctx, service.Migrations())
//	service.Store().SeedBuiltInRoles(ctx)
type Service struct {
	db          dbkit.IDB
	catalog     *Catalog
	hierarchy   *Hierarchy
	resolver    *Resolver
	detector    *Detector
	store       *Store
	coordinator *Coordinator
	logger      logrus.FieldLogger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger used for role and assignment
// mutations. Without one the service stays silent.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithResolverCacheSize sets the LRU capacity of the effective-permission
// cache. Zero disables caching.
func WithResolverCacheSize(size int) Option {
	return func(s *Service) {
		s.resolver = NewResolver(s.catalog, WithCacheSize(size))
	}
}

// NewService creates a new authzkit service.
func NewService(catalog *Catalog, db dbkit.IDB, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Service{
		db:        db,
		catalog:   catalog,
		hierarchy: NewHierarchy(),
		resolver:  NewResolver(catalog),
		detector:  NewDetector(catalog),
		logger:    discard,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.store = NewStore(db, catalog,
		WithStoreLogger(s.logger),
		WithInvalidation(s.resolver.InvalidateRole),
	)
	s.coordinator = NewCoordinator(db, s.store,
		WithCoordinatorLogger(s.logger),
	)
	return s
}

// Catalog returns the permission catalog.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Store returns the role store.
func (s *Service) Store() *Store {
	return s.store
}

// Hierarchy returns the hierarchy resolver.
func (s *Service) Hierarchy() *Hierarchy {
	return s.hierarchy
}

// Resolver returns the permission resolver.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// Detector returns the conflict detector.
func (s *Service) Detector() *Detector {
	return s.detector
}

// Coordinator returns the assignment coordinator.
func (s *Service) Coordinator() *Coordinator {
	return s.coordinator
}

// ============================================================================
// PERMISSION CHECKING
// ============================================================================

// EffectivePermissionsFor loads a user's assigned roles and computes the
// effective permission set. This is the entry point for the authorization
// gate.
//
// Example:
//
//	eff, err := service.EffectivePermissionsFor(ctx, userID)
//	if err == nil && eff.Has(authzkit.PermissionBanMembers) {
//	    // user may ban members
//	}
func (s *Service) EffectivePermissionsFor(ctx context.Context, userID string) (*EffectivePermissions, error) {
	roles, err := s.store.RolesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolver.ComputeEffectivePermissions(userID, roles)
}

// HasPermission checks if a user holds a permission. Errors resolve to a
// denied check.
func (s *Service) HasPermission(ctx context.Context, userID, permission string) bool {
	eff, err := s.EffectivePermissionsFor(ctx, userID)
	if err != nil {
		return false
	}
	return eff.Has(permission)
}

// HighestRoleFor returns a user's highest-authority role.
func (s *Service) HighestRoleFor(ctx context.Context, userID string) (Role, error) {
	eff, err := s.EffectivePermissionsFor(ctx, userID)
	if err != nil {
		return Role{}, err
	}
	return eff.HighestRole, nil
}

// CanManage checks if an actor may manage a target role, using the actor's
// highest role.
func (s *Service) CanManage(ctx context.Context, actorID string, target Role) (bool, error) {
	highest, err := s.HighestRoleFor(ctx, actorID)
	if err != nil {
		return false, err
	}
	return s.hierarchy.CanManageRole(highest, target), nil
}

// ConflictsFor scans a user's assigned role set for escalation risk and
// dangerous-permission exposure. The result is advisory.
func (s *Service) ConflictsFor(ctx context.Context, userID string) ([]PermissionConflict, error) {
	roles, err := s.store.RolesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.detector.DetectPermissionConflicts(roles), nil
}
