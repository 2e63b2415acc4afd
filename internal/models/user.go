package models

// User is a subject that can hold role assignments. Platform operators are
// not flagged on the user record; they hold a platform_admin assignment like
// any other grant so the audit trail stays uniform.
type User struct {
	BaseModel

	TenantID     string  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Tenant       *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string  `json:"display_name"`
	PasswordHash string  `gorm:"not null" json:"-"`
	IsActive     bool    `gorm:"not null;default:true" json:"is_active"`

	Assignments []RoleAssignment `gorm:"foreignKey:SubjectID" json:"assignments,omitempty"`
}
