package authzkit

import (
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResolverCacheSize bounds the effective-permission cache.
const DefaultResolverCacheSize = 1024

// Resolver computes a user's effective permission set and highest-authority
// role from the assigned roles. Computation is pure; results are cached
// keyed by the sorted (roleID, version) pairs, so a role update (which
// bumps the version) can never serve a stale entry. RoleStore additionally
// calls InvalidateRole synchronously on every commit to reclaim dead
// entries; staleness on an authorization surface is a correctness risk,
// never a cache-expiry tradeoff.
type Resolver struct {
	catalog   *Catalog
	hierarchy *Hierarchy
	cache     *lru.Cache[string, *effectiveEntry]
}

// effectiveEntry is the user-independent part of an EffectivePermissions,
// shared between users holding the identical role set.
type effectiveEntry struct {
	permissions []string
	set         map[string]struct{}
	roles       []Role
	highest     Role
}

// ResolverOption configures the Resolver.
type ResolverOption func(*Resolver)

// WithCacheSize sets the LRU capacity of the effective-permission cache.
// A size of zero disables caching.
func WithCacheSize(size int) ResolverOption {
	return func(r *Resolver) {
		r.cache = nil
		if size > 0 {
			cache, err := lru.New[string, *effectiveEntry](size)
			if err == nil {
				r.cache = cache
			}
		}
	}
}

// NewResolver creates a Resolver over a permission catalog.
func NewResolver(catalog *Catalog, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		catalog:   catalog,
		hierarchy: NewHierarchy(),
	}
	WithCacheSize(DefaultResolverCacheSize)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ComputeEffectivePermissions computes the effective permission set for a
// user from the assigned roles.
//
// The permission set is the union over every assigned role. If the union
// contains administrator, the effective set is the whole catalog. The
// highest role is the one with maximum position, ties broken by earliest
// CreatedAt.
//
// Every user must carry at least one role (the platform's configured
// default role); an empty set reaching the resolver signals a bug upstream
// and fails with an invariant violation rather than resolving to nothing.
func (r *Resolver) ComputeEffectivePermissions(userID string, assigned []Role) (*EffectivePermissions, error) {
	if len(assigned) == 0 {
		return nil, NewError(ErrInvariant, "user has no assigned roles; every user must carry at least the default role").
			WithUser(userID)
	}

	key := roleSetKey(assigned)
	if r.cache != nil {
		if entry, ok := r.cache.Get(key); ok {
			return entry.view(userID), nil
		}
	}

	entry := r.compute(assigned)
	if r.cache != nil {
		r.cache.Add(key, entry)
	}
	return entry.view(userID), nil
}

func (r *Resolver) compute(assigned []Role) *effectiveEntry {
	set := make(map[string]struct{})
	for _, role := range assigned {
		for _, p := range role.Permissions {
			set[p] = struct{}{}
		}
	}

	// Administrator resolves to the entire catalog.
	if _, admin := set[PermissionAdministrator]; admin {
		set = make(map[string]struct{}, r.catalog.Len())
		for _, id := range r.catalog.IDs() {
			set[id] = struct{}{}
		}
	}

	permissions := make([]string, 0, len(set))
	for p := range set {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)

	ordered := r.hierarchy.SortRolesByPosition(assigned)
	return &effectiveEntry{
		permissions: permissions,
		set:         set,
		roles:       ordered,
		highest:     ordered[0],
	}
}

// view wraps the shared entry into a per-user EffectivePermissions.
// The backing slices are read-only and safe to share.
func (e *effectiveEntry) view(userID string) *EffectivePermissions {
	return &EffectivePermissions{
		UserID:      userID,
		Permissions: e.permissions,
		Roles:       e.roles,
		HighestRole: e.highest,
		set:         e.set,
	}
}

// InvalidateRole synchronously evicts every cached entry involving the
// role. RoleStore calls this whenever it commits a change to a role's
// permissions or position. Position changes matter because they can
// change the highest role for every holder.
func (r *Resolver) InvalidateRole(roleID string) {
	if r.cache == nil {
		return
	}
	for _, key := range r.cache.Keys() {
		if keyContainsRole(key, roleID) {
			r.cache.Remove(key)
		}
	}
}

// InvalidateAll drops the whole cache.
func (r *Resolver) InvalidateAll() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

func (r *Resolver) cacheLen() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

// roleSetKey builds the cache key: the sorted (roleID, version) pairs.
func roleSetKey(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.ID + "@" + strconv.FormatInt(r.Version, 10)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func keyContainsRole(key, roleID string) bool {
	for _, part := range strings.Split(key, "|") {
		if id, _, ok := strings.Cut(part, "@"); ok && id == roleID {
			return true
		}
	}
	return false
}
