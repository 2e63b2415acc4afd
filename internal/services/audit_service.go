package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/auditctx"
	"github.com/planvera/planvera/internal/authz"
	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
	"github.com/planvera/planvera/pkg/logger"

	"go.uber.org/zap"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	SubjectID string
	Actor     string
	Action    string
	Outcome   string
	Scope     scope.Scope
	IPAddress string
	UserAgent string
	Metadata  map[string]any
}

// AuditFilters encapsulates optional filters when querying audit records.
type AuditFilters struct {
	SubjectID string
	TenantID  string
	Action    string
	Outcome   string
	Since     *time.Time
	Until     *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves the append-only audit trail. Records
// are never updated or deleted; there is deliberately no cleanup method.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Record stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Outcome) == "" {
		return errors.New("audit service: outcome is required")
	}

	payload := ""
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		payload = string(encoded)
	}

	record := models.AuditRecord{
		Actor:     strings.TrimSpace(entry.Actor),
		Action:    strings.TrimSpace(entry.Action),
		Outcome:   strings.TrimSpace(entry.Outcome),
		TenantID:  entry.Scope.TenantID(),
		IPAddress: strings.TrimSpace(entry.IPAddress),
		UserAgent: strings.TrimSpace(entry.UserAgent),
		Metadata:  payload,
	}

	if id := strings.TrimSpace(entry.SubjectID); id != "" {
		record.SubjectID = &id
	}
	if id := entry.Scope.ProgramID(); id != "" {
		record.ProgramID = &id
	}
	if id := entry.Scope.ProjectID(); id != "" {
		record.ProjectID = &id
	}

	return s.db.WithContext(ctx).Create(&record).Error
}

// List returns paginated audit records ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditRecord, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.AuditRecord
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AuditRecord{})
	query = applyAuditFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count records: %w", err)
	}

	if err := query.
		Preload("Subject").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list records: %w", err)
	}

	return results, total, nil
}

// Export returns audit records that match the provided filters without pagination.
func (s *AuditService) Export(ctx context.Context, filters AuditFilters) ([]models.AuditRecord, error) {
	ctx = ensureContext(ctx)

	var records []models.AuditRecord
	query := s.db.WithContext(ctx).Model(&models.AuditRecord{})
	query = applyAuditFilters(query, filters)

	if err := query.
		Preload("Subject").
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("audit service: export records: %w", err)
	}

	return records, nil
}

// RecordDecision implements authz.AuditSink so authorization outcomes land
// in the same trail as service mutations. Audit failures are logged, never
// propagated: a broken trail must not turn an allow into an error.
func (s *AuditService) RecordDecision(ctx context.Context, record authz.DecisionRecord) {
	outcome := "denied"
	if record.Allowed {
		outcome = "allowed"
	}

	entry := AuditEntry{
		SubjectID: record.SubjectID,
		Action:    record.Action,
		Outcome:   outcome,
		Scope:     record.Scope,
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		entry.Actor = actor.Email
		entry.IPAddress = actor.IPAddress
		entry.UserAgent = actor.UserAgent
	}
	if record.BasisID != "" {
		entry.Metadata = map[string]any{
			"basis_id":   record.BasisID,
			"basis_role": string(record.BasisRole),
		}
	}

	if err := s.Record(ctx, entry); err != nil {
		logger.WithModule("audit").Error("record decision", zap.Error(err))
	}
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if filters.SubjectID != "" {
		query = query.Where("subject_id = ?", filters.SubjectID)
	}
	if filters.TenantID != "" {
		query = query.Where("tenant_id = ?", filters.TenantID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.Outcome != "" {
		query = query.Where("outcome = ?", filters.Outcome)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
