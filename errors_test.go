package authzkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorWrapping tests sentinel wrapping and classification
func TestErrorWrapping(t *testing.T) {
	t.Run("NewError wraps sentinel", func(t *testing.T) {
		err := NewError(ErrNotFound, "role does not exist")

		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, IsNotFound(err))
		assert.False(t, IsConflict(err))
		assert.Contains(t, err.Error(), "role does not exist")
	})

	t.Run("Classification helpers", func(t *testing.T) {
		assert.True(t, IsValidation(NewError(ErrValidation, "")))
		assert.True(t, IsConflict(NewError(ErrConflict, "")))
		assert.True(t, IsForbidden(NewError(ErrForbidden, "")))
		assert.True(t, IsInvariant(NewError(ErrInvariant, "")))
	})

	t.Run("Helpers reject unrelated errors", func(t *testing.T) {
		plain := errors.New("boom")
		assert.False(t, IsValidation(plain))
		assert.False(t, IsNotFound(plain))
		assert.False(t, IsNotFound(nil))
	})

	t.Run("Survives further wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading role: %w", NewError(ErrConflict, "version mismatch"))
		assert.True(t, IsConflict(err))
	})
}

// TestErrorContext tests the With* context setters
func TestErrorContext(t *testing.T) {
	t.Run("WithRole and WithUser", func(t *testing.T) {
		err := NewError(ErrForbidden, "cannot manage role").
			WithRole("role-1", "Moderator").
			WithUser("user-1").
			WithActor("actor-1")

		assert.Equal(t, "role-1", err.RoleID)
		assert.Equal(t, "Moderator", err.RoleName)
		assert.Equal(t, "user-1", err.UserID)
		assert.Equal(t, "actor-1", err.ActorID)
	})
}

// TestNewValidationError tests the multi-violation error
func TestNewValidationError(t *testing.T) {
	violations := []string{"name: is required", "position: must be at least 1"}
	err := NewValidationError(violations)

	assert.True(t, IsValidation(err))
	assert.Equal(t, violations, err.Fields)
	assert.Contains(t, err.Error(), "name: is required")
	assert.Contains(t, err.Error(), "position: must be at least 1")
}

// TestNewHierarchyError tests the hierarchy failure error
func TestNewHierarchyError(t *testing.T) {
	actor := Role{ID: "a", Name: "Moderator", Position: 10}
	target := Role{ID: "t", Name: "Admin", Position: 50}

	err := NewHierarchyError(actor, target)

	assert.True(t, IsForbidden(err))
	assert.Equal(t, "t", err.RoleID)
	assert.Equal(t, 10, err.ActorPosition)
	assert.Equal(t, 50, err.TargetPosition)
	assert.Contains(t, err.Error(), `"Admin" (position 50)`)
	assert.Contains(t, err.Error(), `"Moderator" (position 10)`)
}
