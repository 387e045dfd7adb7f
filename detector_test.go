package authzkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectPermissionConflicts tests the advisory conflict scan
func TestDetectPermissionConflicts(t *testing.T) {
	catalog := DefaultCatalog()
	detector := NewDetector(catalog)

	t.Run("Empty role set yields nothing", func(t *testing.T) {
		assert.Empty(t, detector.DetectPermissionConflicts(nil))
		assert.Empty(t, detector.DetectPermissionConflicts([]Role{}))
	})

	t.Run("Harmless roles yield nothing", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Member", Position: 1, Permissions: []string{PermissionViewChannels, PermissionSendMessages}},
			{ID: "r2", Name: "Uploader", Position: 2, Permissions: []string{PermissionAttachFiles}},
		})
		assert.Empty(t, conflicts)
	})

	t.Run("Dangerous permission is reported once with all contributors", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Moderator", Position: 10, Permissions: []string{PermissionBanMembers}},
			{ID: "r2", Name: "Bouncer", Position: 5, Permissions: []string{PermissionBanMembers}},
		})

		require.Len(t, conflicts, 1)
		c := conflicts[0]
		assert.Equal(t, ConflictDangerous, c.Type)
		assert.Equal(t, PermissionBanMembers, c.Permission)
		assert.ElementsMatch(t, []string{"Moderator", "Bouncer"}, c.Roles)
		assert.Contains(t, c.Message, `"Moderator"`)
		assert.Contains(t, c.Message, `"Bouncer"`)
	})

	t.Run("Escalation through a low-ranked managing role", func(t *testing.T) {
		// Support carries manage_roles at position 5; Trainee outranks it
		// at position 20 without it. Exactly one escalation, citing Support.
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Support", Position: 5, Permissions: []string{PermissionManageRoles}},
			{ID: "r2", Name: "Trainee", Position: 20, Permissions: []string{PermissionViewChannels}},
		})

		var escalations []PermissionConflict
		for _, c := range conflicts {
			if c.Type == ConflictEscalation {
				escalations = append(escalations, c)
			}
		}
		require.Len(t, escalations, 1)
		assert.Equal(t, PermissionManageRoles, escalations[0].Permission)
		assert.Equal(t, []string{"Support"}, escalations[0].Roles)
		assert.Contains(t, escalations[0].Message, `"Trainee"`)
	})

	t.Run("No escalation when the managing role is on top", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Lead", Position: 50, Permissions: []string{PermissionManageRoles}},
			{ID: "r2", Name: "Member", Position: 1, Permissions: []string{PermissionViewChannels}},
		})

		for _, c := range conflicts {
			assert.NotEqual(t, ConflictEscalation, c.Type)
		}
	})

	t.Run("Administrator escalation names administrator", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Bot", Position: 2, Permissions: []string{PermissionAdministrator}},
			{ID: "r2", Name: "VIP", Position: 30, Permissions: []string{PermissionViewChannels}},
		})

		var escalations []PermissionConflict
		for _, c := range conflicts {
			if c.Type == ConflictEscalation {
				escalations = append(escalations, c)
			}
		}
		require.Len(t, escalations, 1)
		assert.Equal(t, PermissionAdministrator, escalations[0].Permission)
		assert.Equal(t, []string{"Bot"}, escalations[0].Roles)
	})

	t.Run("Combinatorial full-catalog coverage", func(t *testing.T) {
		var everything []string
		for _, id := range catalog.IDs() {
			if id != PermissionAdministrator {
				everything = append(everything, id)
			}
		}
		half := len(everything) / 2

		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "FirstHalf", Position: 2, Permissions: everything[:half]},
			{ID: "r2", Name: "SecondHalf", Position: 1, Permissions: everything[half:]},
		})

		var found *PermissionConflict
		for i, c := range conflicts {
			if c.Type == ConflictEscalation && c.Permission == PermissionAdministrator {
				found = &conflicts[i]
			}
		}
		require.NotNil(t, found, "expected a combinatorial coverage conflict")
		assert.ElementsMatch(t, []string{"FirstHalf", "SecondHalf"}, found.Roles)
	})

	t.Run("No combinatorial conflict when administrator is explicit", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Admin", Position: 50, Permissions: []string{PermissionAdministrator}},
		})

		for _, c := range conflicts {
			assert.NotEqual(t, "combined roles cover every catalog permission without an explicit administrator grant", c.Message)
		}
	})

	t.Run("No combinatorial conflict when coverage is partial", func(t *testing.T) {
		conflicts := detector.DetectPermissionConflicts([]Role{
			{ID: "r1", Name: "Member", Position: 1, Permissions: []string{PermissionViewChannels}},
		})
		assert.Empty(t, conflicts)
	})

	t.Run("Deterministic ordering", func(t *testing.T) {
		roles := []Role{
			{ID: "r1", Name: "Support", Position: 5, Permissions: []string{PermissionManageRoles, PermissionBanMembers}},
			{ID: "r2", Name: "Trainee", Position: 20, Permissions: []string{PermissionKickMembers}},
		}

		first := detector.DetectPermissionConflicts(roles)
		second := detector.DetectPermissionConflicts([]Role{roles[1], roles[0]})

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].Type, second[i].Type)
			assert.Equal(t, first[i].Permission, second[i].Permission)
		}

		// dangerous records come first, in catalog order
		assert.Equal(t, ConflictDangerous, first[0].Type)
		assert.Equal(t, PermissionKickMembers, first[0].Permission)
		assert.Equal(t, PermissionBanMembers, first[1].Permission)
		assert.Equal(t, PermissionManageRoles, first[2].Permission)
		assert.Equal(t, ConflictEscalation, first[3].Type)
	})
}
