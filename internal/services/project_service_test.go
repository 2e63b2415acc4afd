package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/planvera/planvera/internal/scope"
)

func TestProjectCreateFirstBecomesDefault(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	sc := scope.Program(tenant.ID, program.ID)

	first, err := svc.Create(context.Background(), sc, CreateProjectInput{Name: "Wave One"})
	require.NoError(t, err)
	require.True(t, first.IsDefault, "first project of a program is always the default")

	second, err := svc.Create(context.Background(), sc, CreateProjectInput{Name: "Wave Two"})
	require.NoError(t, err)
	require.False(t, second.IsDefault)

	require.EqualValues(t, 1, countDefaults(t, db, program.ID))
}

func TestProjectCreateExplicitDefaultDemotesPrevious(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	sc := scope.Program(tenant.ID, program.ID)

	first, err := svc.Create(context.Background(), sc, CreateProjectInput{Name: "Wave One"})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), sc, CreateProjectInput{Name: "Wave Two", IsDefault: true})
	require.NoError(t, err)
	require.True(t, second.IsDefault)

	reloaded, err := svc.GetByID(context.Background(), program.ID, first.ID)
	require.NoError(t, err)
	require.False(t, reloaded.IsDefault)
	require.EqualValues(t, 1, countDefaults(t, db, program.ID))
}

func TestProjectSetDefault(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	first := createProject(t, db, program.ID, "Wave One", true)
	second := createProject(t, db, program.ID, "Wave Two", false)

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	promoted, err := svc.SetDefault(context.Background(), scope.Project(tenant.ID, program.ID, second.ID))
	require.NoError(t, err)
	require.True(t, promoted.IsDefault)

	demoted, err := svc.GetByID(context.Background(), program.ID, first.ID)
	require.NoError(t, err)
	require.False(t, demoted.IsDefault)
	require.EqualValues(t, 1, countDefaults(t, db, program.ID))

	// Promoting the current default is a no-op, not an error.
	_, err = svc.SetDefault(context.Background(), scope.Project(tenant.ID, program.ID, second.ID))
	require.NoError(t, err)
	require.EqualValues(t, 1, countDefaults(t, db, program.ID))
}

func TestProjectDeleteDefaultProtected(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	def := createProject(t, db, program.ID, "Wave One", true)
	other := createProject(t, db, program.ID, "Wave Two", false)

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), scope.Project(tenant.ID, program.ID, def.ID))
	require.ErrorIs(t, err, ErrDefaultProjectProtected)

	require.NoError(t, svc.Delete(context.Background(), scope.Project(tenant.ID, program.ID, other.ID)))

	// Once the default is the last project it can be removed.
	require.NoError(t, svc.Delete(context.Background(), scope.Project(tenant.ID, program.ID, def.ID)))
}

func TestProjectGetEnforcesProgramOwnership(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	sibling := createProgram(t, db, tenant.ID, "ECC")
	project := createProject(t, db, program.ID, "Wave One", true)

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), sibling.ID, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectListDefaultFirst(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	createProject(t, db, program.ID, "Wave One", false)
	def := createProject(t, db, program.ID, "Wave Two", true)

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	projects, err := svc.List(context.Background(), program.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, def.ID, projects[0].ID)
}

func TestProjectMutationsAreAudited(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")

	svc, err := NewProjectService(db, audit)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), scope.Program(tenant.ID, program.ID), CreateProjectInput{Name: "Wave One"})
	require.NoError(t, err)

	require.Contains(t, auditActions(t, db), "project.create")
}
