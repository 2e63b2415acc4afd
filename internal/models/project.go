package models

// Project is an execution unit owned by a program. Exactly one project per
// program carries the default flag; the uniqueness is enforced by a partial
// index created during migration and re-checked transactionally in the
// project service.
type Project struct {
	BaseModel

	ProgramID   string   `gorm:"type:uuid;not null;index" json:"program_id"`
	Program     *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	Name        string   `gorm:"not null" json:"name"`
	Description string   `json:"description"`
	IsDefault   bool     `gorm:"not null;default:false;index" json:"is_default"`
}
