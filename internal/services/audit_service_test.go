package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/planvera/planvera/internal/auditctx"
	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/pkg/logger"
)

func TestAuditRecordAndList(t *testing.T) {
	db, _ := setupServiceDB(t)

	svc, err := NewAuditService(db)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(context.Background(), AuditEntry{
			Actor:   "admin@acme.test",
			Action:  "program.create",
			Outcome: "success",
			Scope:   scope.Program("t1", "pg1"),
		}))
	}
	require.NoError(t, svc.Record(context.Background(), AuditEntry{
		Actor:   "admin@globex.test",
		Action:  "program.create",
		Outcome: "success",
		Scope:   scope.Program("t2", "pg9"),
	}))

	records, total, err := svc.List(context.Background(), AuditListOptions{
		Page:     1,
		PageSize: 2,
		Filters:  AuditFilters{TenantID: "t1"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, records, 2)

	exported, err := svc.Export(context.Background(), AuditFilters{TenantID: "t2"})
	require.NoError(t, err)
	require.Len(t, exported, 1)
	require.Equal(t, "admin@globex.test", exported[0].Actor)
}

func TestAuditRecordRequiresActionAndOutcome(t *testing.T) {
	db, _ := setupServiceDB(t)

	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Record(context.Background(), AuditEntry{Outcome: "success"}))
	require.Error(t, svc.Record(context.Background(), AuditEntry{Action: "program.create"}))
}

func TestRecordDecisionEnrichesFromActorContext(t *testing.T) {
	db, _ := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithActor(context.Background(), auditctx.Actor{
		SubjectID: user.ID,
		Email:     "pm@acme.test",
		IPAddress: "10.0.0.1",
		UserAgent: "planvera-cli",
	})

	svc.RecordDecision(ctx, authz.DecisionRecord{
		SubjectID: user.ID,
		Action:    authz.ActionProjectUpdate,
		Allowed:   false,
		Scope:     scope.Project(tenant.ID, "pg1", "pj1"),
	})

	records, err := svc.Export(context.Background(), AuditFilters{SubjectID: user.ID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "denied", records[0].Outcome)
	require.Equal(t, "pm@acme.test", records[0].Actor)
	require.Equal(t, "10.0.0.1", records[0].IPAddress)
	require.NotNil(t, records[0].ProjectID)
	require.Equal(t, "pj1", *records[0].ProjectID)
}

func TestRecordAuditLogsWriteFailures(t *testing.T) {
	_, audit := setupServiceDB(t)

	core, recorded := observer.New(zap.ErrorLevel)
	restore := logger.Replace(zap.New(core))
	t.Cleanup(restore)

	// A missing action makes the write fail. The caller's mutation must not
	// see the error, but the broken trail has to reach the operator log.
	recordAudit(audit, context.Background(), AuditEntry{Outcome: "success"})

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	require.Equal(t, "record entry", entry.Message)
	require.Equal(t, "audit", entry.ContextMap()["module"])
	require.Contains(t, entry.ContextMap()["error"], "action is required")
}
