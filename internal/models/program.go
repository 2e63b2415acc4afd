package models

// ProgramStatus enumerates lifecycle phases of a transformation program.
type ProgramStatus string

const (
	ProgramStatusPlanning ProgramStatus = "planning"
	ProgramStatusActive   ProgramStatus = "active"
	ProgramStatusClosed   ProgramStatus = "closed"
)

// Program is a transformation initiative owned by a tenant.
type Program struct {
	BaseModel

	TenantID    string        `gorm:"type:uuid;not null;index;uniqueIndex:idx_programs_tenant_code" json:"tenant_id"`
	Tenant      *Tenant       `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Name        string        `gorm:"not null" json:"name"`
	Code        string        `gorm:"not null;uniqueIndex:idx_programs_tenant_code" json:"code"`
	Description string        `json:"description"`
	Status      ProgramStatus `gorm:"not null;default:planning" json:"status"`

	Projects []Project `gorm:"foreignKey:ProgramID" json:"projects,omitempty"`
}
