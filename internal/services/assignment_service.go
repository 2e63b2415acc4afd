package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

var (
	// ErrAssignmentNotFound indicates the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment service: assignment not found")
	// ErrAssignmentRevoked indicates the assignment was already revoked.
	ErrAssignmentRevoked = errors.New("assignment service: assignment already revoked")
	// ErrInvalidRoleScope indicates the role kind is not valid at the
	// requested scope level.
	ErrInvalidRoleScope = errors.New("assignment service: role is not valid at this scope level")
	// ErrInvalidValidity indicates valid_from is not before valid_until.
	ErrInvalidValidity = errors.New("assignment service: valid_from must precede valid_until")
	// ErrPlatformRoleRestricted indicates a platform_admin grant was attempted
	// by a subject that does not itself hold the platform role.
	ErrPlatformRoleRestricted = errors.New("assignment service: platform_admin grants require a platform operator")
)

// GrantInput captures a role grant request. ProgramID and ProjectID narrow
// the grant scope; both empty means a tenant-wide grant.
type GrantInput struct {
	SubjectID  string
	Role       models.RoleKind
	TenantID   string
	ProgramID  string
	ProjectID  string
	ValidFrom  *time.Time
	ValidUntil *time.Time
	GrantedBy  string
}

// AssignmentService manages the role assignment lifecycle. Assignments are
// never edited in place: a grant at an occupied scope revokes the previous
// record and inserts a new one, and revocation stamps revoked_at rather
// than deleting, so the full history stays reconstructible.
type AssignmentService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(db *gorm.DB, audit *AuditService) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	return &AssignmentService{db: db, audit: audit}, nil
}

// roleLevels restricts which scope levels each role kind may be granted at.
var roleLevels = map[models.RoleKind][]scope.Level{
	models.RolePlatformAdmin:  {scope.LevelTenant},
	models.RoleTenantAdmin:    {scope.LevelTenant},
	models.RoleProgramManager: {scope.LevelProgram},
	models.RoleProjectManager: {scope.LevelProject},
	models.RoleProjectMember:  {scope.LevelProject},
	models.RoleReadonly:       {scope.LevelTenant, scope.LevelProgram, scope.LevelProject},
}

// Grant records a new assignment, revoking any active assignment the subject
// already holds at the exact same scope.
func (s *AssignmentService) Grant(ctx context.Context, input GrantInput) (*models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	subjectID := strings.TrimSpace(input.SubjectID)
	if subjectID == "" {
		return nil, errors.New("assignment service: subject id is required")
	}
	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, errors.New("assignment service: tenant id is required")
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && !input.ValidFrom.Before(*input.ValidUntil) {
		return nil, ErrInvalidValidity
	}

	level := scope.LevelTenant
	programID := strings.TrimSpace(input.ProgramID)
	projectID := strings.TrimSpace(input.ProjectID)
	switch {
	case projectID != "":
		level = scope.LevelProject
	case programID != "":
		level = scope.LevelProgram
	}

	if !roleAllowedAt(input.Role, level) {
		return nil, fmt.Errorf("%w: %s at %s", ErrInvalidRoleScope, input.Role, level)
	}

	if input.Role == models.RolePlatformAdmin {
		if err := s.requirePlatformOperator(ctx, strings.TrimSpace(input.GrantedBy)); err != nil {
			return nil, err
		}
	}

	if err := s.verifyChain(ctx, tenantID, programID, projectID); err != nil {
		return nil, err
	}

	assignment := &models.RoleAssignment{
		SubjectID:  subjectID,
		Role:       input.Role,
		TenantID:   tenantID,
		ValidFrom:  input.ValidFrom,
		ValidUntil: input.ValidUntil,
		GrantedBy:  strings.TrimSpace(input.GrantedBy),
	}
	if programID != "" {
		assignment.ProgramID = &programID
	}
	if projectID != "" {
		assignment.ProjectID = &projectID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		query := tx.Model(&models.RoleAssignment{}).
			Where("subject_id = ? AND tenant_id = ? AND revoked_at IS NULL", subjectID, tenantID)
		query = whereScopeColumn(query, "program_id", programID)
		query = whereScopeColumn(query, "project_id", projectID)
		if err := query.Update("revoked_at", now).Error; err != nil {
			return err
		}
		return tx.Create(assignment).Error
	})
	if err != nil {
		return nil, fmt.Errorf("assignment service: grant: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "assignment.grant",
		Outcome: "success",
		Scope:   scope.Project(tenantID, programID, projectID),
		Metadata: map[string]any{
			"assignment_id": assignment.ID,
			"subject_id":    subjectID,
			"role":          string(input.Role),
		},
	})

	return assignment, nil
}

// Revoke stamps the assignment as revoked. The tenant filter keeps revocation
// inside the caller's tenant; revoking twice is an error so callers cannot
// silently mask double submissions.
func (s *AssignmentService) Revoke(ctx context.Context, tenantID, id string) (*models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	var assignment models.RoleAssignment
	err := s.db.WithContext(ctx).First(&assignment, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("assignment service: load assignment: %w", err)
	}
	if assignment.RevokedAt != nil {
		return nil, ErrAssignmentRevoked
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).
		Model(&assignment).
		Update("revoked_at", now).Error; err != nil {
		return nil, fmt.Errorf("assignment service: revoke: %w", err)
	}
	assignment.RevokedAt = &now

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "assignment.revoke",
		Outcome: "success",
		Scope:   scope.Project(assignment.TenantID, deref(assignment.ProgramID), deref(assignment.ProjectID)),
		Metadata: map[string]any{
			"assignment_id": assignment.ID,
			"subject_id":    assignment.SubjectID,
			"role":          string(assignment.Role),
		},
	})

	return &assignment, nil
}

// ListForSubject returns the subject's assignments within a tenant, newest
// first. Expired and revoked rows are included; callers read the derived
// status via StatusAt.
func (s *AssignmentService) ListForSubject(ctx context.Context, tenantID, subjectID string) ([]models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	var assignments []models.RoleAssignment
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND subject_id = ?", tenantID, subjectID).
		Order("created_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list assignments: %w", err)
	}
	return assignments, nil
}

// verifyChain checks the claimed identifiers form a valid ancestor chain
// before a grant is recorded, mirroring the resolver's ownership rules.
func (s *AssignmentService) verifyChain(ctx context.Context, tenantID, programID, projectID string) error {
	if programID != "" {
		var program models.Program
		err := s.db.WithContext(ctx).First(&program, "id = ? AND tenant_id = ?", programID, tenantID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: program %s not in tenant %s", scope.ErrScopeViolation, programID, tenantID)
		}
		if err != nil {
			return fmt.Errorf("assignment service: verify program: %w", err)
		}
	}
	if projectID != "" {
		if programID == "" {
			return fmt.Errorf("%w: project grant requires its program", scope.ErrScopeViolation)
		}
		var project models.Project
		err := s.db.WithContext(ctx).First(&project, "id = ? AND program_id = ?", projectID, programID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: project %s not in program %s", scope.ErrScopeViolation, projectID, programID)
		}
		if err != nil {
			return fmt.Errorf("assignment service: verify project: %w", err)
		}
	}
	return nil
}

// requirePlatformOperator guards the global role: only a subject that already
// holds an active platform_admin assignment may grant it, so a tenant admin
// can never mint platform-wide access for themselves or anyone else.
func (s *AssignmentService) requirePlatformOperator(ctx context.Context, granterID string) error {
	if granterID == "" {
		return ErrPlatformRoleRestricted
	}

	var rows []models.RoleAssignment
	err := s.db.WithContext(ctx).
		Where("subject_id = ? AND role = ? AND revoked_at IS NULL", granterID, models.RolePlatformAdmin).
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("assignment service: verify granter: %w", err)
	}

	now := time.Now()
	for _, row := range rows {
		if row.StatusAt(now) == models.AssignmentActive {
			return nil
		}
	}
	return ErrPlatformRoleRestricted
}

func roleAllowedAt(role models.RoleKind, level scope.Level) bool {
	levels, ok := roleLevels[role]
	if !ok {
		return false
	}
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

func whereScopeColumn(query *gorm.DB, column, value string) *gorm.DB {
	if value == "" {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
