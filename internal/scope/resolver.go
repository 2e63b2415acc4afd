package scope

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/pkg/logger"
	"github.com/planvera/planvera/pkg/metrics"
)

// EntityStore is the read-only lookup surface the resolver needs. Methods
// return (nil, nil) when the entity does not exist.
type EntityStore interface {
	GetProgram(ctx context.Context, id string) (*models.Program, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetDefaultProject(ctx context.Context, programID string) (*models.Project, error)
}

// Input carries the client-claimed identifiers for one resolution. TenantID
// is always required and never inferred. FallbackEnabled gates the
// transitional default-project resolution; the flag defaults to off and the
// fallback branch is scheduled for removal once no caller depends on it.
type Input struct {
	TenantID        string
	ProgramID       string
	ProjectID       string
	FallbackEnabled bool
}

// Resolver produces exactly one authoritative Scope per operation, or fails
// with a typed error. It is stateless and safe for concurrent use.
type Resolver struct {
	store EntityStore
	log   *zap.Logger
}

// NewResolver constructs a Resolver backed by the provided store.
func NewResolver(store EntityStore) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("scope resolver: store is required")
	}
	return &Resolver{store: store, log: logger.WithModule("scope")}, nil
}

// Resolve establishes the authoritative project-level scope for an
// operation. Identical inputs against unchanged store state always yield the
// identical scope; resolution never creates entities as a side effect.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Scope, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" {
		return Scope{}, fmt.Errorf("%w: tenant id is required", ErrMissingScope)
	}
	programID := strings.TrimSpace(in.ProgramID)
	projectID := strings.TrimSpace(in.ProjectID)

	switch {
	case projectID != "":
		return r.resolveExplicit(ctx, tenantID, programID, projectID)
	case programID != "":
		if !in.FallbackEnabled {
			metrics.ScopeResolutionErrors.WithLabelValues("missing").Inc()
			return Scope{}, fmt.Errorf("%w: project id is required", ErrMissingScope)
		}
		return r.resolveFallback(ctx, tenantID, programID)
	default:
		metrics.ScopeResolutionErrors.WithLabelValues("missing").Inc()
		return Scope{}, fmt.Errorf("%w: tenant alone is not sufficient for project operations", ErrMissingScope)
	}
}

// ResolveProgram establishes a program-level scope for aggregate views. This
// is a distinct request shape and deliberately bypasses the default-project
// fallback.
func (r *Resolver) ResolveProgram(ctx context.Context, tenantID, programID string) (Scope, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return Scope{}, fmt.Errorf("%w: tenant id is required", ErrMissingScope)
	}
	programID = strings.TrimSpace(programID)
	if programID == "" {
		return Scope{}, fmt.Errorf("%w: program id is required", ErrMissingScope)
	}

	program, err := r.lookupProgram(ctx, tenantID, programID)
	if err != nil {
		return Scope{}, err
	}

	return Scope{tenantID: tenantID, programID: program.ID}, nil
}

func (r *Resolver) resolveExplicit(ctx context.Context, tenantID, programID, projectID string) (Scope, error) {
	project, err := r.store.GetProject(ctx, projectID)
	if err != nil {
		return Scope{}, r.lookupFailed("project", err)
	}
	if project == nil {
		metrics.ScopeResolutionErrors.WithLabelValues("violation").Inc()
		return Scope{}, fmt.Errorf("%w: project %s does not exist", ErrScopeViolation, projectID)
	}

	if programID != "" && project.ProgramID != programID {
		metrics.ScopeResolutionErrors.WithLabelValues("violation").Inc()
		return Scope{}, fmt.Errorf("%w: project %s does not belong to program %s", ErrScopeViolation, projectID, programID)
	}

	program, err := r.lookupProgram(ctx, tenantID, project.ProgramID)
	if err != nil {
		return Scope{}, err
	}

	return Scope{tenantID: tenantID, programID: program.ID, projectID: project.ID}, nil
}

func (r *Resolver) resolveFallback(ctx context.Context, tenantID, programID string) (Scope, error) {
	program, err := r.lookupProgram(ctx, tenantID, programID)
	if err != nil {
		return Scope{}, err
	}

	project, err := r.store.GetDefaultProject(ctx, program.ID)
	if err != nil {
		return Scope{}, r.lookupFailed("default project", err)
	}
	if project == nil {
		metrics.ScopeResolutionErrors.WithLabelValues("integrity").Inc()
		return Scope{}, fmt.Errorf("%w: program %s has no default project", ErrScopeIntegrity, program.ID)
	}

	// One telemetry event per fallback use so remaining implicit callers can
	// be migrated before the flag is retired.
	metrics.ScopeFallbacks.WithLabelValues(tenantID, program.ID).Inc()
	r.log.Info("resolved project via default fallback",
		zap.String("tenant_id", tenantID),
		zap.String("program_id", program.ID),
		zap.String("project_id", project.ID),
	)

	return Scope{tenantID: tenantID, programID: program.ID, projectID: project.ID}, nil
}

// lookupProgram loads a program and verifies tenant ownership. A program from
// another tenant is indistinguishable from a missing one to the caller.
func (r *Resolver) lookupProgram(ctx context.Context, tenantID, programID string) (*models.Program, error) {
	program, err := r.store.GetProgram(ctx, programID)
	if err != nil {
		return nil, r.lookupFailed("program", err)
	}
	if program == nil || program.TenantID != tenantID {
		metrics.ScopeResolutionErrors.WithLabelValues("violation").Inc()
		return nil, fmt.Errorf("%w: program %s does not belong to tenant %s", ErrScopeViolation, programID, tenantID)
	}
	return program, nil
}

func (r *Resolver) lookupFailed(entity string, err error) error {
	if errors.Is(err, ErrLookupTimeout) || errors.Is(err, context.DeadlineExceeded) {
		metrics.ScopeResolutionErrors.WithLabelValues("timeout").Inc()
		return fmt.Errorf("%w: loading %s", ErrLookupTimeout, entity)
	}
	metrics.ScopeResolutionErrors.WithLabelValues("store").Inc()
	return fmt.Errorf("scope resolver: load %s: %w", entity, err)
}
