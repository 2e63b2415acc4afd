package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/planvera/planvera/internal/models"
	"github.com/planvera/planvera/pkg/metrics"
)

// ErrInvalidCredentials covers unknown emails, wrong passwords and disabled
// accounts alike, so responses never reveal which check failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// LoginService authenticates local users against stored bcrypt hashes.
type LoginService struct {
	db  *gorm.DB
	jwt *JWTService
}

// NewLoginService constructs a LoginService.
func NewLoginService(db *gorm.DB, jwt *JWTService) (*LoginService, error) {
	if db == nil {
		return nil, errors.New("auth: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth: jwt service is required")
	}
	return &LoginService{db: db, jwt: jwt}, nil
}

// LoginResult bundles the issued token with the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// Login verifies the credentials and issues an access token.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &LoginResult{Token: token, User: &user}, nil
}

// HashPassword produces a bcrypt hash for storage on a user record.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("auth: password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
