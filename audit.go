package authzkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// writeAudit persists an audit record, filling actor and request metadata
// from context. Audit writes are best-effort: a failure is logged and never
// propagated to the change being recorded.
func writeAudit(ctx context.Context, db dbkit.IDB, logger logrus.FieldLogger, rec *AuditRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	ac := GetAuditContext(ctx)
	if rec.ActorID == "" {
		rec.ActorID = ac.ActorID
	}
	rec.IPAddress = ac.IPAddress
	rec.UserAgent = ac.UserAgent
	rec.RequestID = ac.RequestID

	result, err := db.NewInsert().Model(rec).Exec(ctx)
	if err := dbkit.WithErr(result, err, "WriteAudit").Err(); err != nil && logger != nil {
		logger.WithError(err).WithField("action", rec.Action).Warn("audit write failed")
	}
}

// AuditLog retrieves audit log entries with optional filters, newest first.
//
// Example:
//
//	records, err := service.AuditLog(ctx, authzkit.NewAuditFilter().
//	    WithTargetUser(userID).
//	    WithAction(authzkit.AuditAssignmentAdded))
func (s *Service) AuditLog(ctx context.Context, filter AuditFilter) ([]AuditRecord, error) {
	var records []AuditRecord
	q := s.db.NewSelect().Model(&records)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetUserID != "" {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.RoleID != "" {
		q = q.Where("role_id = ?", filter.RoleID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", string(filter.Action))
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	if err := dbkit.WithErr1(q.Scan(ctx), "AuditLog").Err(); err != nil {
		return nil, err
	}

	return records, nil
}
