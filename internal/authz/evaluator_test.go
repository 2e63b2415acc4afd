package authz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubAssignments struct {
	rows map[string][]models.RoleAssignment
	err  error
}

func (s *stubAssignments) ListRoleAssignments(_ context.Context, subjectID string) ([]models.RoleAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[subjectID], nil
}

type captureSink struct {
	records []DecisionRecord
}

func (c *captureSink) RecordDecision(_ context.Context, entry DecisionRecord) {
	c.records = append(c.records, entry)
}

func assignment(id string, role models.RoleKind, tenantID string, programID, projectID *string) models.RoleAssignment {
	return models.RoleAssignment{
		BaseModel: models.BaseModel{ID: id},
		SubjectID: "subject",
		Role:      role,
		TenantID:  tenantID,
		ProgramID: programID,
		ProjectID: projectID,
	}
}

func strPtr(s string) *string { return &s }

func newTestEvaluator(t *testing.T, rows []models.RoleAssignment) (*Evaluator, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	eval, err := NewEvaluator(
		&stubAssignments{rows: map[string][]models.RoleAssignment{"subject": rows}},
		sink,
		WithClock(func() time.Time { return evalNow }),
	)
	require.NoError(t, err)
	return eval, sink
}

func TestAuthorizeDenyByDefault(t *testing.T) {
	eval, sink := newTestEvaluator(t, nil)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Nil(t, decision.Basis)

	// Denials always reach the audit trail, even for read actions.
	require.Len(t, sink.records, 1)
	require.False(t, sink.records[0].Allowed)
	require.Equal(t, ActionProjectRead, sink.records[0].Action)
}

func TestAuthorizeProjectGrant(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleProjectMember, "t1", strPtr("pg1"), strPtr("pj1")),
	}
	eval, sink := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.NotNil(t, decision.Basis)
	require.Equal(t, "a1", decision.Basis.ID)

	// Allowed reads are not audited.
	require.Empty(t, sink.records)
}

func TestAuthorizeMemberCannotMutate(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleProjectMember, "t1", strPtr("pg1"), strPtr("pj1")),
	}
	eval, _ := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectUpdate, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizeGrantDoesNotCrossProjects(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleProjectMember, "t1", strPtr("pg1"), strPtr("pj2")),
	}
	eval, _ := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizeGrantDoesNotCrossTenants(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleTenantAdmin, "t2", nil, nil),
	}
	eval, _ := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectUpdate, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizeMostSpecificLevelWins(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleReadonly, "t1", nil, nil),
		assignment("a2", models.RoleProjectManager, "t1", strPtr("pg1"), strPtr("pj1")),
	}
	eval, _ := newTestEvaluator(t, rows)

	// project.update is granted only by the project-level role here.
	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectUpdate, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, "a2", decision.Basis.ID)

	// A read both levels allow is attributed to the most specific grant.
	decision, err = eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, "a2", decision.Basis.ID)
}

func TestAuthorizeTenantGrantCoversDescendants(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleTenantAdmin, "t1", nil, nil),
	}
	eval, _ := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectDelete, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
	require.Equal(t, "a1", decision.Basis.ID)
}

func TestAuthorizePlatformAdminBypassesScope(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RolePlatformAdmin, "platform", nil, nil),
	}
	eval, _ := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionTenantCreate, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)
}

func TestAuthorizeExpiredAssignment(t *testing.T) {
	expired := evalNow.Add(-time.Hour)
	row := assignment("a1", models.RoleProjectManager, "t1", strPtr("pg1"), strPtr("pj1"))
	row.ValidUntil = &expired
	eval, _ := newTestEvaluator(t, []models.RoleAssignment{row})

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizePendingAssignment(t *testing.T) {
	starts := evalNow.Add(time.Hour)
	row := assignment("a1", models.RoleProjectManager, "t1", strPtr("pg1"), strPtr("pj1"))
	row.ValidFrom = &starts
	eval, _ := newTestEvaluator(t, []models.RoleAssignment{row})

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizeRevokedAssignment(t *testing.T) {
	revoked := evalNow.Add(-time.Minute)
	row := assignment("a1", models.RoleTenantAdmin, "t1", nil, nil)
	row.RevokedAt = &revoked
	eval, _ := newTestEvaluator(t, []models.RoleAssignment{row})

	decision, err := eval.Authorize(context.Background(), "subject", ActionProgramCreate, scope.Program("t1", "pg1"))
	require.NoError(t, err)
	require.False(t, decision.Allowed)
}

func TestAuthorizeSameLevelTieIsDeterministic(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("b2", models.RoleProjectManager, "t1", strPtr("pg1"), strPtr("pj1")),
		assignment("a1", models.RoleProjectMember, "t1", strPtr("pg1"), strPtr("pj1")),
	}
	eval, _ := newTestEvaluator(t, rows)

	// Both project-level roles allow the read; the basis is stable across
	// evaluations regardless of the order the store returned the rows.
	for i := 0; i < 3; i++ {
		decision, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
		require.NoError(t, err)
		require.True(t, decision.Allowed)
		require.Equal(t, "a1", decision.Basis.ID)
	}
}

func TestAuthorizeMutationIsAudited(t *testing.T) {
	rows := []models.RoleAssignment{
		assignment("a1", models.RoleProgramManager, "t1", strPtr("pg1"), nil),
	}
	eval, sink := newTestEvaluator(t, rows)

	decision, err := eval.Authorize(context.Background(), "subject", ActionProjectCreate, scope.Project("t1", "pg1", "pj1"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	require.Len(t, sink.records, 1)
	record := sink.records[0]
	require.True(t, record.Allowed)
	require.Equal(t, "a1", record.BasisID)
	require.Equal(t, models.RoleProgramManager, record.BasisRole)
	require.Equal(t, "pj1", record.Scope.ProjectID())
}

func TestAuthorizeUnknownAction(t *testing.T) {
	eval, _ := newTestEvaluator(t, nil)

	_, err := eval.Authorize(context.Background(), "subject", "project.destroy", scope.Project("t1", "pg1", "pj1"))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestAuthorizeUnresolvedScope(t *testing.T) {
	eval, _ := newTestEvaluator(t, nil)

	_, err := eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Scope{})
	require.Error(t, err)
}

func TestAuthorizeStoreTimeout(t *testing.T) {
	eval, err := NewEvaluator(&stubAssignments{err: context.DeadlineExceeded}, nil)
	require.NoError(t, err)

	_, err = eval.Authorize(context.Background(), "subject", ActionProjectRead, scope.Project("t1", "pg1", "pj1"))
	require.ErrorIs(t, err, scope.ErrLookupTimeout)
}
