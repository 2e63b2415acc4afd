package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/database/testutil"
	"github.com/planvera/planvera/internal/models"
)

func setupLoginService(t *testing.T) (*LoginService, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "planvera"})
	require.NoError(t, err)

	svc, err := NewLoginService(db, jwtSvc)
	require.NoError(t, err)
	return svc, db
}

func seedLoginUser(t *testing.T, db *gorm.DB, email, password string, active bool) models.User {
	t.Helper()

	tenant := models.Tenant{Name: "Acme", Slug: "acme-" + email}
	require.NoError(t, db.Create(&tenant).Error)

	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := models.User{TenantID: tenant.ID, Email: email, PasswordHash: hash, IsActive: active}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestLoginSuccess(t *testing.T) {
	svc, db := setupLoginService(t)
	user := seedLoginUser(t, db, "pm@acme.test", "correct horse", true)

	result, err := svc.Login(context.Background(), "PM@acme.test", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)
}

func TestLoginUniformFailures(t *testing.T) {
	svc, db := setupLoginService(t)
	seedLoginUser(t, db, "pm@acme.test", "correct horse", true)
	seedLoginUser(t, db, "gone@acme.test", "correct horse", false)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@acme.test", "correct horse"},
		{"wrong password", "pm@acme.test", "battery staple"},
		{"inactive account", "gone@acme.test", "correct horse"},
		{"empty password", "pm@acme.test", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}
