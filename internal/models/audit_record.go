package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRecord is an append-only trail entry. Records are never updated or
// deleted; the service layer exposes no mutation beyond Create.
type AuditRecord struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	SubjectID *string `gorm:"type:uuid;index" json:"subject_id"`
	Subject   *User   `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Actor     string  `json:"actor"`

	Action  string `gorm:"not null;index" json:"action"`
	Outcome string `gorm:"not null;index" json:"outcome"`

	TenantID  string  `gorm:"type:uuid;index" json:"tenant_id"`
	ProgramID *string `gorm:"type:uuid" json:"program_id,omitempty"`
	ProjectID *string `gorm:"type:uuid" json:"project_id,omitempty"`

	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Metadata  string    `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
