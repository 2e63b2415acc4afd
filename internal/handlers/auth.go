package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	iauth "github.com/planvera/planvera/internal/auth"
	"github.com/planvera/planvera/internal/middleware"
	"github.com/planvera/planvera/internal/models"
	appErrors "github.com/planvera/planvera/pkg/errors"
	"github.com/planvera/planvera/pkg/response"
)

type AuthHandler struct {
	db    *gorm.DB
	login *iauth.LoginService
}

func NewAuthHandler(db *gorm.DB, jwt *iauth.JWTService) (*AuthHandler, error) {
	login, err := iauth.NewLoginService(db, jwt)
	if err != nil {
		return nil, err
	}
	return &AuthHandler{db: db, login: login}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if !bindAndValidate(c, &body) {
		return
	}

	result, err := h.login.Login(requestContext(c), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, iauth.ErrInvalidCredentials) {
			response.Error(c, appErrors.ErrInvalidCredentials)
			return
		}
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": result.Token,
		"user":  result.User,
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var user models.User
	if err := h.db.WithContext(requestContext(c)).
		Preload("Assignments", "revoked_at IS NULL").
		First(&user, "id = ?", userID).Error; err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, user)
}
