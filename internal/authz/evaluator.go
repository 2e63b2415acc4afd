package authz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/pkg/logger"
	"github.com/planvera/planvera/pkg/metrics"
)

// ErrUnknownAction indicates an action identifier missing from the catalog.
var ErrUnknownAction = errors.New("authz: unknown action")

// AssignmentStore lists the role assignments recorded for a subject. The
// read is point-in-time; the evaluator tolerates slightly stale grants
// rather than requiring coordination with concurrent assignment writes.
type AssignmentStore interface {
	ListRoleAssignments(ctx context.Context, subjectID string) ([]models.RoleAssignment, error)
}

// AuditSink receives authorization outcomes that must reach the audit trail.
type AuditSink interface {
	RecordDecision(ctx context.Context, entry DecisionRecord)
}

// DecisionRecord is the audit payload for a single authorization decision.
type DecisionRecord struct {
	SubjectID string
	Action    string
	Allowed   bool
	Scope     scope.Scope
	BasisID   string
	BasisRole models.RoleKind
}

// Decision is the evaluator outcome. Basis is the assignment that produced
// an allow, or nil for a denial.
type Decision struct {
	Allowed bool
	Basis   *models.RoleAssignment
}

// Evaluator makes deterministic allow/deny decisions for
// (subject, action, scope). It is stateless and safe for concurrent use.
type Evaluator struct {
	store AssignmentStore
	audit AuditSink
	now   func() time.Time
	log   *zap.Logger
}

// EvaluatorOption customises evaluator construction.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the evaluator's time source, for tests.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator constructs an Evaluator. The audit sink may be nil, in which
// case decisions are only logged and counted.
func NewEvaluator(store AssignmentStore, audit AuditSink, opts ...EvaluatorOption) (*Evaluator, error) {
	if store == nil {
		return nil, errors.New("authz evaluator: assignment store is required")
	}
	e := &Evaluator{
		store: store,
		audit: audit,
		now:   time.Now,
		log:   logger.WithModule("authz"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Authorize decides whether the subject may perform the action within the
// resolved scope. Denial is a valid outcome, not an error; the error return
// is reserved for unknown actions and store failures.
func (e *Evaluator) Authorize(ctx context.Context, subjectID, action string, sc scope.Scope) (Decision, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Decision{}, errors.New("authz evaluator: subject id is required")
	}
	if !KnownAction(action) {
		return Decision{}, fmt.Errorf("%w %q", ErrUnknownAction, action)
	}
	if sc.IsZero() {
		return Decision{}, errors.New("authz evaluator: scope must be resolved before evaluation")
	}

	assignments, err := e.store.ListRoleAssignments(ctx, subjectID)
	if err != nil {
		metrics.AuthzDecisions.WithLabelValues(action, "error").Inc()
		if errors.Is(err, scope.ErrLookupTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return Decision{}, fmt.Errorf("%w: listing role assignments", scope.ErrLookupTimeout)
		}
		return Decision{}, fmt.Errorf("authz evaluator: list assignments: %w", err)
	}

	decision := e.decide(assignments, action, sc)
	e.report(ctx, subjectID, action, sc, decision)
	return decision, nil
}

// decide applies the precedence walk: platform operators bypass scope
// matching, otherwise the most specific scope level carrying a grant wins
// and absence of a grant at every level is a deny.
func (e *Evaluator) decide(assignments []models.RoleAssignment, action string, sc scope.Scope) Decision {
	now := e.now()

	var candidates []models.RoleAssignment
	for _, a := range assignments {
		if !a.ActiveAt(now) {
			continue
		}
		if a.Role == models.RolePlatformAdmin {
			basis := a
			return Decision{Allowed: true, Basis: &basis}
		}
		if covers(a, sc) {
			candidates = append(candidates, a)
		}
	}

	// Deterministic basis selection when several grants tie at a level.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	for _, level := range []scope.Level{scope.LevelProject, scope.LevelProgram, scope.LevelTenant} {
		for _, a := range candidates {
			if assignmentLevel(a) != level {
				continue
			}
			if Grants(a.Role, action) {
				basis := a
				return Decision{Allowed: true, Basis: &basis}
			}
		}
	}

	return Decision{Allowed: false}
}

func (e *Evaluator) report(ctx context.Context, subjectID, action string, sc scope.Scope, d Decision) {
	result := "denied"
	if d.Allowed {
		result = "allowed"
	}
	metrics.AuthzDecisions.WithLabelValues(action, result).Inc()

	// Denials are always audited; allowed decisions only when they mutate.
	if e.audit != nil && (!d.Allowed || IsMutating(action)) {
		record := DecisionRecord{
			SubjectID: subjectID,
			Action:    action,
			Allowed:   d.Allowed,
			Scope:     sc,
		}
		if d.Basis != nil {
			record.BasisID = d.Basis.ID
			record.BasisRole = d.Basis.Role
		}
		e.audit.RecordDecision(ctx, record)
	}

	if d.Allowed && !IsMutating(action) {
		e.log.Debug("authorized read",
			zap.String("subject_id", subjectID),
			zap.String("action", action),
			zap.String("project_id", sc.ProjectID()),
		)
	}
}

// covers reports whether the assignment's scope equals, or is an ancestor
// of, the requested scope. Grants never cross tenants.
func covers(a models.RoleAssignment, sc scope.Scope) bool {
	if a.TenantID != sc.TenantID() {
		return false
	}
	switch assignmentLevel(a) {
	case scope.LevelTenant:
		return true
	case scope.LevelProgram:
		return sc.ProgramID() != "" && *a.ProgramID == sc.ProgramID()
	case scope.LevelProject:
		return sc.ProjectID() != "" && *a.ProjectID == sc.ProjectID()
	default:
		return false
	}
}

func assignmentLevel(a models.RoleAssignment) scope.Level {
	switch {
	case a.ProjectID != nil && *a.ProjectID != "":
		return scope.LevelProject
	case a.ProgramID != nil && *a.ProgramID != "":
		return scope.LevelProgram
	default:
		return scope.LevelTenant
	}
}
