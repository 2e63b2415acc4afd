package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/planvera/planvera/internal/models"
)

func TestProgramCreateWithBootstrapProject(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")

	svc, err := NewProgramService(db, audit)
	require.NoError(t, err)

	program, err := svc.Create(context.Background(), tenant.ID, CreateProgramInput{
		Name:             "S/4HANA Migration",
		Code:             "s4m",
		BootstrapProject: "Wave One",
	})
	require.NoError(t, err)
	require.Equal(t, "S4M", program.Code, "codes are stored uppercase")

	require.EqualValues(t, 1, countDefaults(t, db, program.ID))
}

func TestProgramCodeUniquePerTenant(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	other := createTenant(t, db, "globex")

	svc, err := NewProgramService(db, audit)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tenant.ID, CreateProgramInput{Name: "First", Code: "S4M"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), tenant.ID, CreateProgramInput{Name: "Second", Code: "S4M"})
	require.ErrorIs(t, err, ErrProgramCodeTaken)

	// The same code is free in another tenant.
	_, err = svc.Create(context.Background(), other.ID, CreateProgramInput{Name: "Third", Code: "S4M"})
	require.NoError(t, err)
}

func TestProgramGetEnforcesTenantOwnership(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	other := createTenant(t, db, "globex")
	program := createProgram(t, db, tenant.ID, "S4M")

	svc, err := NewProgramService(db, audit)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), other.ID, program.ID)
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestProgramUpdateStatus(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")

	svc, err := NewProgramService(db, audit)
	require.NoError(t, err)

	status := models.ProgramStatusClosed
	updated, err := svc.Update(context.Background(), tenant.ID, program.ID, UpdateProgramInput{Status: &status})
	require.NoError(t, err)

	reloaded, err := svc.GetByID(context.Background(), tenant.ID, updated.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProgramStatusClosed, reloaded.Status)

	bogus := models.ProgramStatus("archived")
	_, err = svc.Update(context.Background(), tenant.ID, program.ID, UpdateProgramInput{Status: &bogus})
	require.Error(t, err)
}

func TestProgramDeleteRejectsNonEmpty(t *testing.T) {
	db, audit := setupServiceDB(t)
	tenant := createTenant(t, db, "acme")
	program := createProgram(t, db, tenant.ID, "S4M")
	createProject(t, db, program.ID, "Wave One", true)

	svc, err := NewProgramService(db, audit)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), tenant.ID, program.ID)
	require.ErrorIs(t, err, ErrProgramHasProjects)

	empty := createProgram(t, db, tenant.ID, "ECC")
	require.NoError(t, svc.Delete(context.Background(), tenant.ID, empty.ID))
}
