package authzkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCatalog tests catalog construction
func TestNewCatalog(t *testing.T) {
	t.Run("Valid catalog", func(t *testing.T) {
		c, err := NewCatalog(
			Permission{ID: "first", Name: "First"},
			Permission{ID: "second", Name: "Second"},
		)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
		assert.Equal(t, []string{"first", "second"}, c.IDs())
	})

	t.Run("Empty permission ID rejected", func(t *testing.T) {
		_, err := NewCatalog(Permission{ID: ""})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("Duplicate permission ID rejected", func(t *testing.T) {
		_, err := NewCatalog(
			Permission{ID: "dup"},
			Permission{ID: "dup"},
		)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("MustNewCatalog panics on error", func(t *testing.T) {
		assert.Panics(t, func() {
			MustNewCatalog(Permission{ID: ""})
		})
	})
}

// TestCatalogLookups tests catalog lookup methods
func TestCatalogLookups(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("Get known permission", func(t *testing.T) {
		p, err := catalog.Get(PermissionBanMembers)
		require.NoError(t, err)
		assert.Equal(t, PermissionBanMembers, p.ID)
		assert.Equal(t, CategoryMembers, p.Category)
		assert.True(t, p.Dangerous)
	})

	t.Run("Get unknown permission", func(t *testing.T) {
		_, err := catalog.Get("fly_helicopters")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Has", func(t *testing.T) {
		assert.True(t, catalog.Has(PermissionSendMessages))
		assert.False(t, catalog.Has("fly_helicopters"))
	})

	t.Run("IsDangerous", func(t *testing.T) {
		assert.True(t, catalog.IsDangerous(PermissionAdministrator))
		assert.True(t, catalog.IsDangerous(PermissionMentionEveryone))
		assert.False(t, catalog.IsDangerous(PermissionSendMessages))
		assert.False(t, catalog.IsDangerous("unknown"))
	})

	t.Run("RequiresAdmin", func(t *testing.T) {
		assert.True(t, catalog.RequiresAdmin(PermissionManageRoles))
		assert.False(t, catalog.RequiresAdmin(PermissionAddReactions))
	})
}

// TestDefaultCatalog tests the built-in permission set
func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	t.Run("Contains administrator", func(t *testing.T) {
		assert.True(t, catalog.Has(PermissionAdministrator))
	})

	t.Run("List preserves catalog order", func(t *testing.T) {
		list := catalog.List()
		require.Equal(t, catalog.Len(), len(list))
		assert.Equal(t, PermissionViewChannels, list[0].ID)
		assert.Equal(t, PermissionAdministrator, list[len(list)-1].ID)
	})

	t.Run("ListByCategory", func(t *testing.T) {
		members := catalog.ListByCategory(CategoryMembers)
		require.Len(t, members, 3)
		for _, p := range members {
			assert.Equal(t, CategoryMembers, p.Category)
		}
	})

	t.Run("Every permission has a category", func(t *testing.T) {
		for _, p := range catalog.List() {
			assert.NotEmpty(t, p.Category, "permission %s", p.ID)
			assert.NotEmpty(t, p.Name, "permission %s", p.ID)
		}
	})

	t.Run("IDs returns a copy", func(t *testing.T) {
		ids := catalog.IDs()
		ids[0] = "tampered"
		assert.Equal(t, PermissionViewChannels, catalog.IDs()[0])
	})
}
