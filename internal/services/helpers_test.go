package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/database/testutil"
	"github.com/planvera/planvera/internal/models"
)

func setupServiceDB(t *testing.T) (*gorm.DB, *AuditService) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	return db, audit
}

func createTenant(t *testing.T, db *gorm.DB, slug string) models.Tenant {
	t.Helper()

	tenant := models.Tenant{Name: slug, Slug: slug}
	require.NoError(t, db.Create(&tenant).Error)
	return tenant
}

func createProgram(t *testing.T, db *gorm.DB, tenantID, code string) models.Program {
	t.Helper()

	program := models.Program{TenantID: tenantID, Name: code, Code: code, Status: models.ProgramStatusActive}
	require.NoError(t, db.Create(&program).Error)
	return program
}

func createProject(t *testing.T, db *gorm.DB, programID, name string, isDefault bool) models.Project {
	t.Helper()

	project := models.Project{ProgramID: programID, Name: name, IsDefault: isDefault}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func countDefaults(t *testing.T, db *gorm.DB, programID string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.Project{}).
		Where("program_id = ? AND is_default = ?", programID, true).
		Count(&n).Error)
	return n
}

func auditActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()

	var records []models.AuditRecord
	require.NoError(t, db.Order("created_at ASC").Find(&records).Error)
	actions := make([]string, len(records))
	for i, r := range records {
		actions[i] = r.Action
	}
	return actions
}
