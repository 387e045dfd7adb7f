package authzkit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChangeAction is the kind of assignment change in a plan.
type ChangeAction string

const (
	ChangeAdd    ChangeAction = "add"
	ChangeRemove ChangeAction = "remove"
)

// AssignmentChange is one planned assignment mutation for a user.
type AssignmentChange struct {
	RoleID string
	Action ChangeAction
}

// ChangeError reports a single failed change within an apply batch.
type ChangeError struct {
	RoleID string
	Action ChangeAction
	Err    error
}

// ApplyResult reports the outcome of an apply batch: how many changes took
// effect and exactly which changes failed and why. Changes applied before
// a failure stay applied; each assignment fact is independent.
type ApplyResult struct {
	Applied int
	Errors  []ChangeError
}

// Ok reports whether every change in the batch was applied.
func (r *ApplyResult) Ok() bool {
	return len(r.Errors) == 0
}

// Coordinator owns the RoleAssignment lifecycle: it plans role-assignment
// changes as a pure diff and applies them sequentially, enforcing the
// hierarchy check per change and reporting partial failures. Batches for
// the same user are serialized; batches for different users run
// independently.
type Coordinator struct {
	db        dbkit.IDB
	store     *Store
	hierarchy *Hierarchy
	monitor   *applyMonitor
	logger    logrus.FieldLogger

	userLocks sync.Map // userID -> *sync.Mutex
}

// CoordinatorOption configures the Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the logger for assignment changes.
func WithCoordinatorLogger(logger logrus.FieldLogger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates an assignment coordinator over a database and a
// role store.
func NewCoordinator(db dbkit.IDB, store *Store, opts ...CoordinatorOption) *Coordinator {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Coordinator{
		db:        db,
		store:     store,
		hierarchy: NewHierarchy(),
		monitor:   newApplyMonitor(),
		logger:    discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Plan computes the changes turning the current role set into the desired
// one. Pure diff, no I/O. Additions come before removals so that replacing
// a user's only role never passes through a zero-role state.
func (c *Coordinator) Plan(currentRoleIDs, desiredRoleIDs []string) []AssignmentChange {
	current := make(map[string]struct{}, len(currentRoleIDs))
	for _, id := range currentRoleIDs {
		current[id] = struct{}{}
	}
	desired := make(map[string]struct{}, len(desiredRoleIDs))
	for _, id := range desiredRoleIDs {
		desired[id] = struct{}{}
	}

	var changes []AssignmentChange
	for _, id := range desiredRoleIDs {
		if _, ok := current[id]; !ok {
			changes = append(changes, AssignmentChange{RoleID: id, Action: ChangeAdd})
		}
	}
	for _, id := range currentRoleIDs {
		if _, ok := desired[id]; !ok {
			changes = append(changes, AssignmentChange{RoleID: id, Action: ChangeRemove})
		}
	}
	return changes
}

// Apply processes the changes for a user sequentially, not atomically as a
// batch. Each change is checked against the actor's highest role and the
// "at least one role remains" invariant; a failed change is recorded and
// the batch continues. Nothing is rolled back: re-running Apply with only
// the still-outstanding changes is idempotent, since re-adding a present
// assignment or re-removing an absent one is a no-op, not an error.
//
// Example:
//
//	changes := coordinator.Plan(currentIDs, desiredIDs)
//	result, err := coordinator.Apply(ctx, userID, actorHighest, changes)
//	if err == nil && !result.Ok() {
//	    // some changes were rejected; result.Errors says which and why
//	}
func (c *Coordinator) Apply(ctx context.Context, userID string, actorHighest Role, changes []AssignmentChange) (*ApplyResult, error) {
	if userID == "" {
		return nil, NewError(ErrValidation, "user ID is required")
	}

	mu := c.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()

	assignments, err := c.store.AssignmentsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		held[a.RoleID] = struct{}{}
	}

	result := &ApplyResult{}
	for _, change := range changes {
		if err := c.applyChange(ctx, userID, actorHighest, change, held); err != nil {
			result.Errors = append(result.Errors, ChangeError{
				RoleID: change.RoleID,
				Action: change.Action,
				Err:    err,
			})
			continue
		}
		result.Applied++
	}

	c.monitor.recordBatch(time.Since(start), result.Applied, len(result.Errors))
	c.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"actor_id": GetActorID(ctx),
		"applied":  result.Applied,
		"rejected": len(result.Errors),
	}).Info("assignment batch applied")

	return result, nil
}

// applyChange validates and persists a single change, updating held to
// reflect the user's assignments as the batch progresses.
func (c *Coordinator) applyChange(ctx context.Context, userID string, actorHighest Role, change AssignmentChange, held map[string]struct{}) error {
	role, err := c.store.Get(ctx, change.RoleID)
	if err != nil {
		return err
	}

	if !c.hierarchy.CanManageRole(actorHighest, *role) {
		return NewHierarchyError(actorHighest, *role).
			WithUser(userID).
			WithActor(GetActorID(ctx))
	}

	switch change.Action {
	case ChangeAdd:
		if _, ok := held[change.RoleID]; ok {
			return nil // already assigned, no-op
		}
		assignment := &RoleAssignment{
			ID:         uuid.NewString(),
			UserID:     userID,
			RoleID:     change.RoleID,
			AssignedAt: time.Now(),
			AssignedBy: GetActorID(ctx),
		}
		result, err := c.db.NewInsert().Model(assignment).
			On("CONFLICT (user_id, role_id) DO NOTHING").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "CreateRoleAssignment").Err(); err != nil {
			return err
		}
		held[change.RoleID] = struct{}{}
		writeAudit(ctx, c.db, c.logger, &AuditRecord{
			Action:       string(AuditAssignmentAdded),
			RoleID:       role.ID,
			RoleName:     role.Name,
			TargetUserID: userID,
		})
		return nil

	case ChangeRemove:
		if _, ok := held[change.RoleID]; !ok {
			return nil // not assigned, no-op
		}
		if len(held) <= 1 {
			return NewError(ErrInvariant, fmt.Sprintf("removing role %q would leave the user with zero roles", role.Name)).
				WithRole(role.ID, role.Name).
				WithUser(userID)
		}
		result, err := c.db.NewDelete().Table("role_assignments").
			Where("user_id = ? AND role_id = ?", userID, change.RoleID).
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "DeleteRoleAssignment").Err(); err != nil {
			return err
		}
		delete(held, change.RoleID)
		writeAudit(ctx, c.db, c.logger, &AuditRecord{
			Action:       string(AuditAssignmentRemoved),
			RoleID:       role.ID,
			RoleName:     role.Name,
			TargetUserID: userID,
		})
		return nil

	default:
		return NewError(ErrValidation, fmt.Sprintf("unknown change action %q", change.Action))
	}
}

// EnsureDefaultRoles assigns the platform's default roles to a user that
// has none yet. Called when a user first appears; keeps the "every user
// carries at least one role" invariant without a hierarchy check, since
// default roles are granted by the system, not an actor.
func (c *Coordinator) EnsureDefaultRoles(ctx context.Context, userID string) error {
	if userID == "" {
		return NewError(ErrValidation, "user ID is required")
	}

	mu := c.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	assignments, err := c.store.AssignmentsFor(ctx, userID)
	if err != nil {
		return err
	}
	if len(assignments) > 0 {
		return nil
	}

	defaults, err := c.store.DefaultRoles(ctx)
	if err != nil {
		return err
	}
	if len(defaults) == 0 {
		return NewError(ErrInvariant, "no default role is configured").WithUser(userID)
	}

	for _, role := range defaults {
		assignment := &RoleAssignment{
			ID:         uuid.NewString(),
			UserID:     userID,
			RoleID:     role.ID,
			AssignedAt: time.Now(),
		}
		result, err := c.db.NewInsert().Model(assignment).
			On("CONFLICT (user_id, role_id) DO NOTHING").
			Exec(ctx)
		if err := dbkit.WithErr(result, err, "EnsureDefaultRoles").Err(); err != nil {
			return err
		}
	}
	return nil
}

// Metrics returns the apply-batch metrics.
func (c *Coordinator) Metrics() ApplyMetrics {
	return c.monitor.getMetrics()
}

// ResetMetrics resets the apply-batch metrics.
func (c *Coordinator) ResetMetrics() {
	c.monitor.reset()
}

func (c *Coordinator) lockFor(userID string) *sync.Mutex {
	mu, _ := c.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
