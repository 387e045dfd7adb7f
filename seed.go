package authzkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Built-in role positions. They leave room below, between and above for
// custom roles.
const (
	positionOwner     = 400
	positionAdmin     = 300
	positionModerator = 200
	positionMember    = 100
)

// BuiltInRoles returns the platform's system role definitions. Owner is
// the designated top-authority role; Member is the default role granted
// to every new user.
func BuiltInRoles() []Role {
	return []Role{
		{
			Name:          BuiltInOwner,
			Description:   "The platform's ultimate authority. Cannot be managed by anyone but another owner.",
			Position:      positionOwner,
			IsBuiltIn:     true,
			IsMentionable: false,
			Permissions:   []string{PermissionAdministrator},
		},
		{
			Name:          BuiltInAdmin,
			Description:   "Full administrative access below the owner.",
			Position:      positionAdmin,
			IsBuiltIn:     true,
			IsMentionable: false,
			Permissions:   []string{PermissionAdministrator},
		},
		{
			Name:          BuiltInModerator,
			Description:   "Moderates messages and members.",
			Position:      positionModerator,
			IsBuiltIn:     true,
			IsMentionable: true,
			Permissions: []string{
				PermissionViewChannels,
				PermissionSendMessages,
				PermissionEmbedLinks,
				PermissionAttachFiles,
				PermissionAddReactions,
				PermissionMentionEveryone,
				PermissionManageMessages,
				PermissionManageNicknames,
				PermissionKickMembers,
				PermissionBanMembers,
				PermissionViewAuditLog,
			},
		},
		{
			Name:          BuiltInMember,
			Description:   "Granted automatically to every new user.",
			Position:      positionMember,
			IsBuiltIn:     true,
			IsDefault:     true,
			IsMentionable: true,
			Permissions: []string{
				PermissionViewChannels,
				PermissionSendMessages,
				PermissionEmbedLinks,
				PermissionAttachFiles,
				PermissionAddReactions,
				PermissionChangeNickname,
				PermissionCreateInvites,
			},
		},
	}
}

// SeedBuiltInRoles creates the system roles if they do not exist yet.
// Idempotent: existing roles are left untouched, so customized
// descriptions or permission sets survive re-seeding.
func (s *Store) SeedBuiltInRoles(ctx context.Context) error {
	now := time.Now()
	for _, role := range BuiltInRoles() {
		role.ID = uuid.NewString()
		role.CreatedAt = now
		role.UpdatedAt = now
		role.Version = 1

		result, err := s.db.NewInsert().Model(&role).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "SeedBuiltInRoles").Err(); err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			s.logger.WithFields(logrus.Fields{
				"role_id": role.ID,
				"name":    role.Name,
			}).Info("built-in role created")
		}
	}
	return nil
}
