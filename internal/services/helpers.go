package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/planvera/planvera/internal/auditctx"
	"github.com/planvera/planvera/pkg/logger"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// recordAudit writes the supplied entry. Audit failures never fail the
// mutation they describe, but a broken trail must be visible to operators,
// so they are logged rather than dropped.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.SubjectID == "" {
			entry.SubjectID = actor.SubjectID
		}
		if entry.Actor == "" {
			entry.Actor = actor.Email
		}
		entry.IPAddress = actor.IPAddress
		entry.UserAgent = actor.UserAgent
	}
	if err := audit.Record(ctx, entry); err != nil {
		logger.WithModule("audit").Error("record entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}
