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
	// ErrProjectNotFound indicates the project does not exist within the program.
	ErrProjectNotFound = errors.New("project service: project not found")
	// ErrDefaultProjectProtected prevents deleting the program's default project.
	ErrDefaultProjectProtected = errors.New("project service: default project cannot be deleted")
)

// CreateProjectInput captures the attributes required to open a project.
type CreateProjectInput struct {
	Name        string
	Description string
	IsDefault   bool
}

// UpdateProjectInput represents mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

// ProjectService manages lifecycle operations for projects inside a program.
type ProjectService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, audit *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db, audit: audit}, nil
}

// Create opens a new project under the program. The first project of a
// program becomes its default regardless of the flag, so a program is never
// left without one; a later explicit default demotes the previous one in the
// same transaction.
func (s *ProjectService) Create(ctx context.Context, sc scope.Scope, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if sc.ProgramID() == "" {
		return nil, errors.New("project service: program scope is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("project service: name is required")
	}

	project := &models.Project{
		ProgramID:   sc.ProgramID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Project{}).
			Where("program_id = ?", sc.ProgramID()).
			Count(&existing).Error; err != nil {
			return err
		}

		project.IsDefault = existing == 0 || input.IsDefault

		if project.IsDefault && existing > 0 {
			if err := clearDefault(tx, sc.ProgramID()); err != nil {
				return err
			}
		}

		return tx.Create(project).Error
	})
	if err != nil {
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "project.create",
		Outcome: "success",
		Scope:   scope.Project(sc.TenantID(), sc.ProgramID(), project.ID),
		Metadata: map[string]any{
			"is_default": project.IsDefault,
		},
	})

	return project, nil
}

// GetByID loads a project, enforcing program ownership.
func (s *ProjectService) GetByID(ctx context.Context, programID, id string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ? AND program_id = ?", id, programID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get project: %w", err)
	}
	return &project, nil
}

// List returns the program's projects, default first.
func (s *ProjectService) List(ctx context.Context, programID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("program_id = ?", programID).
		Order("is_default DESC, created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// Update modifies metadata for a project.
func (s *ProjectService) Update(ctx context.Context, sc scope.Scope, input UpdateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	project, err := s.GetByID(ctx, sc.ProgramID(), sc.ProjectID())
	if err != nil {
		return nil, err
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

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("project service: update project: %w", err)
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "project.update",
		Outcome: "success",
		Scope:   sc,
	})

	return project, nil
}

// SetDefault designates the project as its program's default, demoting the
// current default in the same transaction so the uniqueness invariant holds
// at every commit point.
func (s *ProjectService) SetDefault(ctx context.Context, sc scope.Scope) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&project, "id = ? AND program_id = ?", sc.ProjectID(), sc.ProgramID()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		if err != nil {
			return err
		}
		if project.IsDefault {
			return nil
		}

		if err := clearDefault(tx, sc.ProgramID()); err != nil {
			return err
		}
		project.IsDefault = true
		return tx.Model(&project).Update("is_default", true).Error
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("project service: set default: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "project.set_default",
		Outcome: "success",
		Scope:   sc,
	})

	return &project, nil
}

// Delete removes a non-default project. The default project cannot be
// deleted while siblings exist; callers must promote another project first.
func (s *ProjectService) Delete(ctx context.Context, sc scope.Scope) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.First(&project, "id = ? AND program_id = ?", sc.ProjectID(), sc.ProgramID()).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		if err != nil {
			return err
		}

		if project.IsDefault {
			var siblings int64
			if err := tx.Model(&models.Project{}).
				Where("program_id = ? AND id <> ?", sc.ProgramID(), project.ID).
				Count(&siblings).Error; err != nil {
				return err
			}
			if siblings > 0 {
				return ErrDefaultProjectProtected
			}
		}

		return tx.Delete(&project).Error
	})
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) || errors.Is(err, ErrDefaultProjectProtected) {
			return err
		}
		return fmt.Errorf("project service: delete project: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "project.delete",
		Outcome: "success",
		Scope:   sc,
	})

	return nil
}

// clearDefault demotes the current default project of the program. Runs a
// plain UPDATE so the partial unique index never sees two defaults.
func clearDefault(tx *gorm.DB, programID string) error {
	return tx.Model(&models.Project{}).
		Where("program_id = ? AND is_default = ?", programID, true).
		Update("is_default", false).Error
}
