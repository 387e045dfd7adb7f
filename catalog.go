package authzkit

import (
	"fmt"
)

// Permission identifiers known to the default catalog.
// These are the capabilities the chat platform gates on.
const (
	// General
	PermissionViewChannels   = "view_channels"
	PermissionCreateInvites  = "create_invites"
	PermissionChangeNickname = "change_nickname"

	// Messages
	PermissionSendMessages    = "send_messages"
	PermissionEmbedLinks      = "embed_links"
	PermissionAttachFiles     = "attach_files"
	PermissionAddReactions    = "add_reactions"
	PermissionMentionEveryone = "mention_everyone"
	PermissionManageMessages  = "manage_messages"

	// Channels
	PermissionManageChannels = "manage_channels"
	PermissionManageWebhooks = "manage_webhooks"

	// Members
	PermissionManageNicknames = "manage_nicknames"
	PermissionKickMembers     = "kick_members"
	PermissionBanMembers      = "ban_members"

	// Administration
	PermissionViewAuditLog   = "view_audit_log"
	PermissionManageRoles    = "manage_roles"
	PermissionManagePlatform = "manage_platform"

	// Administrator is a real catalog entry with special resolver semantics:
	// a role granting it resolves to every permission in the catalog.
	PermissionAdministrator = "administrator"
)

// Permission categories used by the default catalog.
const (
	CategoryGeneral  = "general"
	CategoryMessages = "messages"
	CategoryChannels = "channels"
	CategoryMembers  = "members"
	CategoryAdmin    = "administration"
)

// Permission describes a single capability in the catalog.
// Catalog entries are immutable; they are never created or destroyed at runtime.
type Permission struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Dangerous     bool
	RequiresAdmin bool
}

// Catalog is a read-only registry of all permission identifiers and their
// metadata. It is populated once at process start and never mutated, so it
// is safe for concurrent use without locking.
type Catalog struct {
	perms map[string]Permission
	order []string
}

// NewCatalog builds a catalog from the given permissions.
// Entry order is preserved for deterministic listing.
func NewCatalog(perms ...Permission) (*Catalog, error) {
	c := &Catalog{
		perms: make(map[string]Permission, len(perms)),
		order: make([]string, 0, len(perms)),
	}
	for _, p := range perms {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: permission ID cannot be empty", ErrValidation)
		}
		if _, exists := c.perms[p.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate permission ID %q", ErrValidation, p.ID)
		}
		c.perms[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// MustNewCatalog is like NewCatalog but panics on error.
// Intended for static catalog definitions at startup.
func MustNewCatalog(perms ...Permission) *Catalog {
	c, err := NewCatalog(perms...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the permission for an ID.
//
// Example:
//
//	perm, err := catalog.Get(authzkit.PermissionBanMembers)
//	if authzkit.IsNotFound(err) {
//	    // unknown permission ID
//	}
func (c *Catalog) Get(id string) (Permission, error) {
	p, ok := c.perms[id]
	if !ok {
		return Permission{}, NewError(ErrNotFound, fmt.Sprintf("permission %q is not in the catalog", id))
	}
	return p, nil
}

// Has reports whether an ID exists in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.perms[id]
	return ok
}

// IsDangerous reports whether a permission is flagged as dangerous.
// Unknown IDs report false.
func (c *Catalog) IsDangerous(id string) bool {
	return c.perms[id].Dangerous
}

// RequiresAdmin reports whether a permission is flagged as admin-only.
// Unknown IDs report false.
func (c *Catalog) RequiresAdmin(id string) bool {
	return c.perms[id].RequiresAdmin
}

// ListByCategory returns the permissions of a category in catalog order.
func (c *Catalog) ListByCategory(category string) []Permission {
	var out []Permission
	for _, id := range c.order {
		if p := c.perms[id]; p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// List returns every permission in catalog order.
func (c *Catalog) List() []Permission {
	out := make([]Permission, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.perms[id])
	}
	return out
}

// IDs returns every permission ID in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

// DefaultCatalog returns the chat platform's permission set.
func DefaultCatalog() *Catalog {
	return MustNewCatalog(
		Permission{ID: PermissionViewChannels, Name: "View Channels", Description: "See channels and read message history", Category: CategoryGeneral},
		Permission{ID: PermissionCreateInvites, Name: "Create Invites", Description: "Invite new users to the workspace", Category: CategoryGeneral},
		Permission{ID: PermissionChangeNickname, Name: "Change Nickname", Description: "Change own display name", Category: CategoryGeneral},

		Permission{ID: PermissionSendMessages, Name: "Send Messages", Description: "Post messages in channels", Category: CategoryMessages},
		Permission{ID: PermissionEmbedLinks, Name: "Embed Links", Description: "Posted links render rich previews", Category: CategoryMessages},
		Permission{ID: PermissionAttachFiles, Name: "Attach Files", Description: "Upload files and media", Category: CategoryMessages},
		Permission{ID: PermissionAddReactions, Name: "Add Reactions", Description: "React to messages", Category: CategoryMessages},
		Permission{ID: PermissionMentionEveryone, Name: "Mention Everyone", Description: "Use @everyone and @here mentions", Category: CategoryMessages, Dangerous: true},
		Permission{ID: PermissionManageMessages, Name: "Manage Messages", Description: "Delete and pin messages of other users", Category: CategoryMessages, Dangerous: true},

		Permission{ID: PermissionManageChannels, Name: "Manage Channels", Description: "Create, edit and delete channels", Category: CategoryChannels, Dangerous: true},
		Permission{ID: PermissionManageWebhooks, Name: "Manage Webhooks", Description: "Create, edit and delete webhooks", Category: CategoryChannels, Dangerous: true},

		Permission{ID: PermissionManageNicknames, Name: "Manage Nicknames", Description: "Change display names of other users", Category: CategoryMembers},
		Permission{ID: PermissionKickMembers, Name: "Kick Members", Description: "Remove users from the workspace", Category: CategoryMembers, Dangerous: true},
		Permission{ID: PermissionBanMembers, Name: "Ban Members", Description: "Permanently ban users from the workspace", Category: CategoryMembers, Dangerous: true},

		Permission{ID: PermissionViewAuditLog, Name: "View Audit Log", Description: "Read the role and moderation audit log", Category: CategoryAdmin, RequiresAdmin: true},
		Permission{ID: PermissionManageRoles, Name: "Manage Roles", Description: "Create and edit roles and role assignments", Category: CategoryAdmin, Dangerous: true, RequiresAdmin: true},
		Permission{ID: PermissionManagePlatform, Name: "Manage Platform", Description: "Edit workspace-wide settings and branding", Category: CategoryAdmin, Dangerous: true, RequiresAdmin: true},
		Permission{ID: PermissionAdministrator, Name: "Administrator", Description: "Grants every permission in the catalog", Category: CategoryAdmin, Dangerous: true, RequiresAdmin: true},
	)
}
