package models

import "time"

// RoleKind identifies one of the fixed platform roles. The capability table
// mapping each kind to its allowed actions lives in the authz package.
type RoleKind string

const (
	RolePlatformAdmin  RoleKind = "platform_admin"
	RoleTenantAdmin    RoleKind = "tenant_admin"
	RoleProgramManager RoleKind = "program_manager"
	RoleProjectManager RoleKind = "project_manager"
	RoleProjectMember  RoleKind = "project_member"
	RoleReadonly       RoleKind = "readonly"
)

// AssignmentStatus is derived from the clock at read time, never stored, so
// writer and evaluator cannot disagree through a stale status column.
type AssignmentStatus string

const (
	AssignmentPending AssignmentStatus = "pending"
	AssignmentActive  AssignmentStatus = "active"
	AssignmentExpired AssignmentStatus = "expired"
	AssignmentRevoked AssignmentStatus = "revoked"
)

// RoleAssignment grants a role to a subject within a scope. Records are never
// edited in place: re-assignment creates a new row and revokes the old one,
// preserving the audit trail.
type RoleAssignment struct {
	BaseModel

	SubjectID string `gorm:"type:uuid;not null;index" json:"subject_id"`
	Subject   *User  `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`

	Role RoleKind `gorm:"not null;index" json:"role"`

	TenantID  string  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ProgramID *string `gorm:"type:uuid;index" json:"program_id,omitempty"`
	ProjectID *string `gorm:"type:uuid;index" json:"project_id,omitempty"`

	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`

	GrantedBy string `gorm:"type:uuid" json:"granted_by"`
}

// StatusAt derives the assignment state at the given instant.
func (a *RoleAssignment) StatusAt(now time.Time) AssignmentStatus {
	if a.RevokedAt != nil && !now.Before(*a.RevokedAt) {
		return AssignmentRevoked
	}
	if a.ValidFrom != nil && now.Before(*a.ValidFrom) {
		return AssignmentPending
	}
	if a.ValidUntil != nil && now.After(*a.ValidUntil) {
		return AssignmentExpired
	}
	return AssignmentActive
}

// ActiveAt reports whether the assignment contributes to authorization
// decisions at the given instant.
func (a *RoleAssignment) ActiveAt(now time.Time) bool {
	return a.StatusAt(now) == AssignmentActive
}
