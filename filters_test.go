package authzkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAuditFilter tests the audit filter builder
func TestAuditFilter(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		f := NewAuditFilter()
		assert.Equal(t, 100, f.Limit)
		assert.Equal(t, 0, f.Offset)
		assert.Empty(t, f.ActorID)
	})

	t.Run("Builder chain", func(t *testing.T) {
		since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		f := NewAuditFilter().
			WithActor("admin-1").
			WithTargetUser("user-1").
			WithRole("role-1").
			WithAction(AuditRoleUpdated).
			WithTimeRange(since, until).
			WithPagination(25, 50)

		assert.Equal(t, "admin-1", f.ActorID)
		assert.Equal(t, "user-1", f.TargetUserID)
		assert.Equal(t, "role-1", f.RoleID)
		assert.Equal(t, AuditRoleUpdated, f.Action)
		assert.Equal(t, since, f.Since)
		assert.Equal(t, until, f.Until)
		assert.Equal(t, 25, f.Limit)
		assert.Equal(t, 50, f.Offset)
	})

	t.Run("Builder is value-based", func(t *testing.T) {
		base := NewAuditFilter()
		derived := base.WithActor("admin-1")

		assert.Empty(t, base.ActorID)
		assert.Equal(t, "admin-1", derived.ActorID)
	})

	t.Run("Since and Until individually", func(t *testing.T) {
		since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		until := since.Add(24 * time.Hour)

		f := NewAuditFilter().WithSince(since).WithUntil(until)
		assert.Equal(t, since, f.Since)
		assert.Equal(t, until, f.Until)
	})

	t.Run("Limit and Offset individually", func(t *testing.T) {
		f := NewAuditFilter().WithLimit(10).WithOffset(30)
		assert.Equal(t, 10, f.Limit)
		assert.Equal(t, 30, f.Offset)
	})
}
