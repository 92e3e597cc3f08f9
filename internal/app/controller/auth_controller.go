package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/app/model"
	"github.com/ikkim/shopfront-backend/internal/app/service"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

func userPayload(user *model.User) gin.H {
	payload := gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"email_confirmed_at": user.EmailConfirmedAt,
		"role":               model.RoleUser,
	}
	if user.Profile != nil {
		payload["name"] = user.Profile.Name
		payload["role"] = user.Profile.Role
	}
	return payload
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	apperrors.Success(c, http.StatusCreated, gin.H{
		"message": "회원가입이 완료되었습니다",
		"user":    userPayload(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req service.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	respondOK(c, gin.H{
		"user":   userPayload(user),
		"tokens": tokens,
	})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	user, err := ctrl.authService.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"user": userPayload(user)})
}

// Logout revokes the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	err := ctrl.authService.Logout(c.Request.Context(), middleware.GetIdentity(c), middleware.GetAccessToken(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "로그아웃되었습니다"})
}
