// Package store provides the read-only persistence surface consumed by the
// scope resolver and the authorization evaluator.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

// Store exposes point-in-time reads over programs, projects and role
// assignments. Lookups that find nothing return (nil, nil); store timeouts
// surface as scope.ErrLookupTimeout so callers can classify them as
// retryable.
type Store struct {
	db *gorm.DB
}

// New constructs a Store using the provided database handle.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: db is required")
	}
	return &Store{db: db}, nil
}

// GetProgram loads a program by ID.
func (s *Store) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	err := s.db.WithContext(ctx).First(&program, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapLookup("get program", err)
	}
	return &program, nil
}

// GetProject loads a project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapLookup("get project", err)
	}
	return &project, nil
}

// GetDefaultProject loads the designated default project of a program.
func (s *Store) GetDefaultProject(ctx context.Context, programID string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Where("program_id = ? AND is_default = ?", programID, true).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapLookup("get default project", err)
	}
	return &project, nil
}

// ListRoleAssignments returns every assignment recorded for the subject,
// including revoked and expired rows. Temporal filtering happens at
// evaluation time, not here, so the evaluator's clock is the single
// authority on assignment state.
func (s *Store) ListRoleAssignments(ctx context.Context, subjectID string) ([]models.RoleAssignment, error) {
	var assignments []models.RoleAssignment
	err := s.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, wrapLookup("list role assignments", err)
	}
	return assignments, nil
}

func wrapLookup(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", scope.ErrLookupTimeout, op)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}
