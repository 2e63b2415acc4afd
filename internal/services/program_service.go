package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

var (
	// ErrProgramNotFound indicates the program does not exist within the tenant.
	ErrProgramNotFound = errors.New("program service: program not found")
	// ErrProgramCodeTaken indicates the code is already used within the tenant.
	ErrProgramCodeTaken = errors.New("program service: code already in use")
	// ErrProgramHasProjects prevents deleting a program that still owns projects.
	ErrProgramHasProjects = errors.New("program service: program still has projects")
)

// CreateProgramInput captures the attributes required to open a program.
// When BootstrapProject is set, a default project with that name is created
// in the same transaction so the program never exists without its default.
type CreateProgramInput struct {
	Name             string
	Code             string
	Description      string
	BootstrapProject string
}

// UpdateProgramInput represents mutable program fields.
type UpdateProgramInput struct {
	Name        *string
	Description *string
	Status      *models.ProgramStatus
}

// ProgramService manages lifecycle operations for programs inside a tenant.
// Every method takes the tenant identifier explicitly; there is no ambient
// tenant anywhere in the service layer.
type ProgramService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewProgramService constructs a ProgramService instance.
func NewProgramService(db *gorm.DB, audit *AuditService) (*ProgramService, error) {
	if db == nil {
		return nil, errors.New("program service: db is required")
	}
	return &ProgramService{db: db, audit: audit}, nil
}

// Create opens a new program under the tenant.
func (s *ProgramService) Create(ctx context.Context, tenantID string, input CreateProgramInput) (*models.Program, error) {
	ctx = ensureContext(ctx)

	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, errors.New("program service: tenant id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("program service: name is required")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, errors.New("program service: code is required")
	}

	program := &models.Program{
		TenantID:    tenantID,
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(input.Description),
		Status:      models.ProgramStatusPlanning,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(program).Error; err != nil {
			return err
		}
		if bootstrap := strings.TrimSpace(input.BootstrapProject); bootstrap != "" {
			project := &models.Project{
				ProgramID: program.ID,
				Name:      bootstrap,
				IsDefault: true,
			}
			return tx.Create(project).Error
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrProgramCodeTaken
		}
		return nil, fmt.Errorf("program service: create program: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "program.create",
		Outcome: "success",
		Scope:   scope.Program(tenantID, program.ID),
		Metadata: map[string]any{
			"code": code,
		},
	})

	return program, nil
}

// GetByID loads a program, enforcing tenant ownership.
func (s *ProgramService) GetByID(ctx context.Context, tenantID, id string) (*models.Program, error) {
	ctx = ensureContext(ctx)

	var program models.Program
	err := s.db.WithContext(ctx).
		Preload("Projects").
		First(&program, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program service: get program: %w", err)
	}
	return &program, nil
}

// List returns the tenant's programs ordered by creation date.
func (s *ProgramService) List(ctx context.Context, tenantID string) ([]models.Program, error) {
	ctx = ensureContext(ctx)

	var programs []models.Program
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&programs).Error; err != nil {
		return nil, fmt.Errorf("program service: list programs: %w", err)
	}
	return programs, nil
}

// Update modifies metadata for a program.
func (s *ProgramService) Update(ctx context.Context, tenantID, id string, input UpdateProgramInput) (*models.Program, error) {
	ctx = ensureContext(ctx)

	var program models.Program
	err := s.db.WithContext(ctx).First(&program, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("program service: load program: %w", err)
	}

	updates := map[string]any{}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		switch *input.Status {
		case models.ProgramStatusPlanning, models.ProgramStatusActive, models.ProgramStatusClosed:
			updates["status"] = *input.Status
		default:
			return nil, fmt.Errorf("program service: invalid status %q", *input.Status)
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&program).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("program service: update program: %w", err)
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "program.update",
		Outcome: "success",
		Scope:   scope.Program(tenantID, program.ID),
	})

	return &program, nil
}

// Delete removes an empty program. Programs that still own projects are
// rejected so project deletion stays an explicit, audited step.
func (s *ProgramService) Delete(ctx context.Context, tenantID, id string) error {
	ctx = ensureContext(ctx)

	var program models.Program
	err := s.db.WithContext(ctx).First(&program, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProgramNotFound
	}
	if err != nil {
		return fmt.Errorf("program service: load program: %w", err)
	}

	var projectCount int64
	if err := s.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("program_id = ?", program.ID).
		Count(&projectCount).Error; err != nil {
		return fmt.Errorf("program service: count projects: %w", err)
	}
	if projectCount > 0 {
		return ErrProgramHasProjects
	}

	if err := s.db.WithContext(ctx).Delete(&program).Error; err != nil {
		return fmt.Errorf("program service: delete program: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "program.delete",
		Outcome: "success",
		Scope:   scope.Program(tenantID, program.ID),
	})

	return nil
}
