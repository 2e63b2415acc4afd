package models

import "gorm.io/datatypes"

// Tenant is the top-level isolation boundary. No data or grant ever crosses
// tenants.
type Tenant struct {
	BaseModel

	Name     string         `gorm:"not null" json:"name"`
	Slug     string         `gorm:"uniqueIndex;not null" json:"slug"`
	Settings datatypes.JSON `json:"settings"`

	Programs []Program `gorm:"foreignKey:TenantID" json:"programs,omitempty"`
	Users    []User    `gorm:"foreignKey:TenantID" json:"users,omitempty"`
}
