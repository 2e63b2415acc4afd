package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/internal/scope"
)

func createUser(t *testing.T, db *gorm.DB, tenantID, email string) models.User {
	t.Helper()

	user := models.User{TenantID: tenantID, Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestAssignmentGrantAndRevoke(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	granted, err := svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleTenantAdmin,
		TenantID:  tenant.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentActive, granted.StatusAt(time.Now()))

	revoked, err := svc.Revoke(context.Background(), tenant.ID, granted.ID)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	require.Equal(t, models.AssignmentRevoked, revoked.StatusAt(time.Now()))

	_, err = svc.Revoke(context.Background(), tenant.ID, granted.ID)
	require.ErrorIs(t, err, ErrAssignmentRevoked)
}

func TestAssignmentRevokeStaysInsideTenant(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	other := createTenant(t, db, "globex")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	granted, err := svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleTenantAdmin,
		TenantID:  tenant.ID,
	})
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), other.ID, granted.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentRegrantRevokesPrevious(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	project := createProject(t, db, program.ID, "Wave One", true)
	user := createUser(t, db, tenant.ID, "member@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	grant := GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleProjectMember,
		TenantID:  tenant.ID,
		ProgramID: program.ID,
		ProjectID: project.ID,
	}
	first, err := svc.Grant(context.Background(), grant)
	require.NoError(t, err)

	grant.Role = models.RoleProjectManager
	second, err := svc.Grant(context.Background(), grant)
	require.NoError(t, err)

	rows, err := svc.ListForSubject(context.Background(), tenant.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "re-granting keeps the old row for the audit trail")

	now := time.Now()
	for _, row := range rows {
		switch row.ID {
		case first.ID:
			require.Equal(t, models.AssignmentRevoked, row.StatusAt(now))
		case second.ID:
			require.Equal(t, models.AssignmentActive, row.StatusAt(now))
		}
	}
}

func TestAssignmentPlatformRoleRequiresOperator(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	admin := createUser(t, db, tenant.ID, "admin@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	// A tenant admin of acme must not be able to hand out the global role,
	// to themselves or anyone else.
	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: admin.ID,
		Role:      models.RoleTenantAdmin,
		TenantID:  tenant.ID,
	})
	require.NoError(t, err)

	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: admin.ID,
		Role:      models.RolePlatformAdmin,
		TenantID:  tenant.ID,
		GrantedBy: admin.ID,
	})
	require.ErrorIs(t, err, ErrPlatformRoleRestricted)

	// An anonymous granter is rejected too.
	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: admin.ID,
		Role:      models.RolePlatformAdmin,
		TenantID:  tenant.ID,
	})
	require.ErrorIs(t, err, ErrPlatformRoleRestricted)

	var count int64
	require.NoError(t, db.Model(&models.RoleAssignment{}).
		Where("role = ?", models.RolePlatformAdmin).
		Count(&count).Error)
	require.Zero(t, count, "no platform_admin row may be created")
}

func TestAssignmentPlatformRoleGrantedByOperator(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "platform")
	operator := createUser(t, db, tenant.ID, "operator@planvera.local")
	recruit := createUser(t, db, tenant.ID, "recruit@planvera.local")

	// Seed-style operator row, the only way the first platform_admin exists.
	require.NoError(t, db.Create(&models.RoleAssignment{
		SubjectID: operator.ID,
		Role:      models.RolePlatformAdmin,
		TenantID:  tenant.ID,
	}).Error)

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	granted, err := svc.Grant(context.Background(), GrantInput{
		SubjectID: recruit.ID,
		Role:      models.RolePlatformAdmin,
		TenantID:  tenant.ID,
		GrantedBy: operator.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.RolePlatformAdmin, granted.Role)

	// An expired operator assignment no longer qualifies.
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.RoleAssignment{}).
		Where("subject_id = ?", operator.ID).
		Update("valid_until", expired).Error)

	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: operator.ID,
		Role:      models.RolePlatformAdmin,
		TenantID:  tenant.ID,
		GrantedBy: operator.ID,
	})
	require.ErrorIs(t, err, ErrPlatformRoleRestricted)
}

func TestAssignmentRoleLevelRestrictions(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	project := createProject(t, db, program.ID, "Wave One", true)
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	// program_manager only makes sense at program level.
	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleProgramManager,
		TenantID:  tenant.ID,
	})
	require.ErrorIs(t, err, ErrInvalidRoleScope)

	// readonly is valid at any level.
	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleReadonly,
		TenantID:  tenant.ID,
		ProgramID: program.ID,
		ProjectID: project.ID,
	})
	require.NoError(t, err)
}

func TestAssignmentGrantVerifiesChain(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	other := createTenant(t, db, "globex")
	program := createProgram(t, db, other.ID, "S4M")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleProgramManager,
		TenantID:  tenant.ID,
		ProgramID: program.ID,
	})
	require.ErrorIs(t, err, scope.ErrScopeViolation)
}

func TestAssignmentValidityWindow(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	user := createUser(t, db, tenant.ID, "temp@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	from := time.Now().Add(time.Hour)
	until := time.Now().Add(2 * time.Hour)
	granted, err := svc.Grant(context.Background(), GrantInput{
		SubjectID:  user.ID,
		Role:       models.RoleTenantAdmin,
		TenantID:   tenant.ID,
		ValidFrom:  &from,
		ValidUntil: &until,
	})
	require.NoError(t, err)
	require.Equal(t, models.AssignmentPending, granted.StatusAt(time.Now()))
	require.Equal(t, models.AssignmentActive, granted.StatusAt(from.Add(time.Minute)))
	require.Equal(t, models.AssignmentExpired, granted.StatusAt(until.Add(time.Minute)))

	_, err = svc.Grant(context.Background(), GrantInput{
		SubjectID:  user.ID,
		Role:       models.RoleTenantAdmin,
		TenantID:   tenant.ID,
		ValidFrom:  &until,
		ValidUntil: &from,
	})
	require.ErrorIs(t, err, ErrInvalidValidity)
}

func TestAssignmentMutationsAreAudited(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	svc, err := NewAssignmentService(db, audit)
	require.NoError(t, err)

	granted, err := svc.Grant(context.Background(), GrantInput{
		SubjectID: user.ID,
		Role:      models.RoleTenantAdmin,
		TenantID:  tenant.ID,
	})
	require.NoError(t, err)

	_, err = svc.Revoke(context.Background(), tenant.ID, granted.ID)
	require.NoError(t, err)

	actions := auditActions(t, db)
	require.Contains(t, actions, "assignment.grant")
	require.Contains(t, actions, "assignment.revoke")
}
