package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

var (
	// ErrTenantNotFound indicates the requested tenant does not exist.
	ErrTenantNotFound = errors.New("tenant service: tenant not found")
	// ErrTenantSlugTaken indicates the slug is already registered.
	ErrTenantSlugTaken = errors.New("tenant service: slug already in use")
)

// CreateTenantInput captures the attributes required to register a tenant.
type CreateTenantInput struct {
	Name     string
	Slug     string
	Settings map[string]any
}

// UpdateTenantInput represents mutable tenant fields.
type UpdateTenantInput struct {
	Name     *string
	Settings map[string]any
}

// TenantService manages lifecycle operations for tenants.
type TenantService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewTenantService constructs a TenantService instance.
func NewTenantService(db *gorm.DB, audit *AuditService) (*TenantService, error) {
	if db == nil {
		return nil, errors.New("tenant service: db is required")
	}
	return &TenantService{db: db, audit: audit}, nil
}

// Create registers a new tenant.
func (s *TenantService) Create(ctx context.Context, input CreateTenantInput) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("tenant service: name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, errors.New("tenant service: slug is required")
	}

	tenant := &models.Tenant{
		Name: name,
		Slug: slug,
	}

	if input.Settings != nil {
		data, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fmt.Errorf("tenant service: marshal settings: %w", err)
		}
		tenant.Settings = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrTenantSlugTaken
		}
		return nil, fmt.Errorf("tenant service: create tenant: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "tenant.create",
		Outcome: "success",
		Scope:   scope.Tenant(tenant.ID),
		Metadata: map[string]any{
			"slug": slug,
		},
	})

	return tenant, nil
}

// GetByID loads a tenant.
func (s *TenantService) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant service: get tenant: %w", err)
	}
	return &tenant, nil
}

// List returns all tenants ordered by creation date.
func (s *TenantService) List(ctx context.Context) ([]models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("tenant service: list tenants: %w", err)
	}
	return tenants, nil
}

// Update modifies metadata for a tenant. The slug is immutable.
func (s *TenantService) Update(ctx context.Context, id string, input UpdateTenantInput) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant service: load tenant: %w", err)
	}

	updates := map[string]any{}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != tenant.Name {
			updates["name"] = name
		}
	}
	if input.Settings != nil {
		data, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, fmt.Errorf("tenant service: marshal settings: %w", err)
		}
		updates["settings"] = datatypes.JSON(data)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&tenant).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("tenant service: update tenant: %w", err)
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:  "tenant.update",
		Outcome: "success",
		Scope:   scope.Tenant(tenant.ID),
	})

	return &tenant, nil
}
