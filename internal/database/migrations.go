package database

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Program{},
		&models.Project{},
		&models.RoleAssignment{},
		&models.AuditRecord{},
	); err != nil {
		return err
	}

	return ensureDefaultProjectIndex(db)
}

// ensureDefaultProjectIndex enforces the single-default-project invariant at
// the storage layer. MySQL has no partial indexes; there the invariant is
// carried by the project service's transactional check alone.
func ensureDefaultProjectIndex(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "sqlite", "postgres":
		return db.Exec(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_program_default ON projects (program_id) WHERE is_default",
		).Error
	default:
		return nil
	}
}

// SeedData provisions the bootstrap tenant and platform operator on first
// start. Subsequent starts are no-ops.
func SeedData(db *gorm.DB) error {
	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	password := strings.TrimSpace(os.Getenv("PLANVERA_BOOTSTRAP_PASSWORD"))
	if password == "" {
		password = "changeme"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		tenant := models.Tenant{
			Name: "Platform",
			Slug: "platform",
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		admin := models.User{
			TenantID:     tenant.ID,
			Email:        "admin@planvera.local",
			DisplayName:  "Platform Operator",
			PasswordHash: string(hash),
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		assignment := models.RoleAssignment{
			SubjectID: admin.ID,
			Role:      models.RolePlatformAdmin,
			TenantID:  tenant.ID,
			GrantedBy: admin.ID,
		}
		return tx.Create(&assignment).Error
	})
}
