package authzkit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for authzkit operations.
var (
	// ErrValidation is returned when input is malformed or violates a Role
	// field invariant. The wrapping Error lists every violated field.
	ErrValidation = errors.New("authzkit: validation failed")

	// ErrConflict is returned on an optimistic-concurrency version mismatch
	// or a duplicate role name.
	ErrConflict = errors.New("authzkit: conflict")

	// ErrNotFound is returned for an unknown role or permission ID.
	ErrNotFound = errors.New("authzkit: not found")

	// ErrForbidden is returned on a hierarchy violation or an attempted
	// mutation of a protected built-in role field.
	ErrForbidden = errors.New("authzkit: forbidden")

	// ErrInvariant is returned when an action would leave a user with zero
	// roles, or when the resolver is invoked with an empty role set.
	ErrInvariant = errors.New("authzkit: invariant violation")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context

	RoleID   string   // Role involved (if applicable)
	RoleName string   // Role name involved (if applicable)
	UserID   string   // User involved (if applicable)
	ActorID  string   // Actor who triggered the error (if applicable)
	Fields   []string // Violated fields for validation errors

	// Authority positions for hierarchy failures.
	ActorPosition  int
	TargetPosition int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		b.WriteString(" (fields: ")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// NewValidationError creates a validation Error listing every violation.
// Each violation message names the offending field.
func NewValidationError(violations []string) *Error {
	return &Error{
		Err:     ErrValidation,
		Message: strings.Join(violations, "; "),
		Fields:  violations,
	}
}

// NewHierarchyError creates a Forbidden error naming the role and the
// authority gap between actor and target.
func NewHierarchyError(actor, target Role) *Error {
	return &Error{
		Err: ErrForbidden,
		Message: fmt.Sprintf("role %q (position %d) outranks or equals actor's highest role %q (position %d)",
			target.Name, target.Position, actor.Name, actor.Position),
		RoleID:         target.ID,
		RoleName:       target.Name,
		ActorPosition:  actor.Position,
		TargetPosition: target.Position,
	}
}

// WithRole adds role information to the error.
func (e *Error) WithRole(id, name string) *Error {
	e.RoleID = id
	e.RoleName = name
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict checks if an error is a version or name conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound checks if an error is due to an unknown role or permission.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden checks if an error is a hierarchy or protected-field violation.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInvariant checks if an error is an invariant violation.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}
