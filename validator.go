package authzkit

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Role field bounds.
const (
	MaxRoleNameLength        = 100
	MaxRoleDescriptionLength = 500
)

// roleFields carries the declarative field rules for a role. Catalog
// membership and protected-field checks are code, below.
type roleFields struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	Color       string `validate:"omitempty,hexcolor"`
	Position    int    `validate:"gte=1"`
}

// RoleValidator validates Role field invariants on create and update.
// It reports every violation, not just the first, and separately reports
// non-blocking warnings for soft issues.
type RoleValidator struct {
	catalog  *Catalog
	validate *validator.Validate
}

// NewRoleValidator creates a validator over a permission catalog.
func NewRoleValidator(catalog *Catalog) *RoleValidator {
	return &RoleValidator{
		catalog:  catalog,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateRole checks every field invariant of a role and returns the full
// list of violations plus non-blocking warnings. It never returns an error
// value; an empty violations list means the role is valid.
//
// Violations: name required and at most 100 characters; description at most
// 500 characters; position at least 1; color a valid hex color; every
// permission present in the catalog.
//
// Warnings: a role granting no permissions, and a dangerous permission
// granted without restricting mentionability.
func (v *RoleValidator) ValidateRole(role *Role) (violations, warnings []string) {
	err := v.validate.Struct(roleFields{
		Name:        role.Name,
		Description: role.Description,
		Color:       role.Color,
		Position:    role.Position,
	})
	if err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				violations = append(violations, fieldViolation(fe))
			}
		} else {
			violations = append(violations, err.Error())
		}
	}

	seen := make(map[string]struct{}, len(role.Permissions))
	for _, id := range role.Permissions {
		if !v.catalog.Has(id) {
			violations = append(violations, fmt.Sprintf("permissions: %q is not in the catalog", id))
			continue
		}
		if _, dup := seen[id]; dup {
			violations = append(violations, fmt.Sprintf("permissions: %q is listed more than once", id))
		}
		seen[id] = struct{}{}
	}

	if len(role.Permissions) == 0 {
		warnings = append(warnings, "role grants no permissions")
	}
	if role.IsMentionable {
		for _, id := range role.Permissions {
			if v.catalog.IsDangerous(id) {
				warnings = append(warnings, fmt.Sprintf("dangerous permission %q is granted but the role is mentionable", id))
			}
		}
	}

	return violations, warnings
}

// ProtectedFields returns the protected built-in role fields an update
// would change. Built-in roles have immutable name, position and built-in
// flag; a non-empty result must fail the update with Forbidden.
func (v *RoleValidator) ProtectedFields(current, updated *Role) []string {
	if !current.IsBuiltIn {
		return nil
	}
	var fields []string
	if updated.Name != current.Name {
		fields = append(fields, "name")
	}
	if updated.Position != current.Position {
		fields = append(fields, "position")
	}
	if updated.IsBuiltIn != current.IsBuiltIn {
		fields = append(fields, "isBuiltIn")
	}
	return fields
}

func fieldViolation(fe validator.FieldError) string {
	switch fe.Field() {
	case "Name":
		switch fe.Tag() {
		case "required":
			return "name: is required"
		case "max":
			return fmt.Sprintf("name: must be at most %d characters", MaxRoleNameLength)
		}
	case "Description":
		return fmt.Sprintf("description: must be at most %d characters", MaxRoleDescriptionLength)
	case "Color":
		return "color: must be a valid hex color"
	case "Position":
		return "position: must be at least 1"
	}
	return fmt.Sprintf("%s: invalid value", fe.Field())
}
