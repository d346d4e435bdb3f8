package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/internal/services"
	"github.com/botswanaservices/directory-backend/internal/utils"
)

// AuthHandler handles signup, login and token refresh requests
type AuthHandler struct {
	authService *services.AuthService
	auditSvc    *services.AuditService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, auditSvc *services.AuditService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auditSvc:    auditSvc,
	}
}

// SignupRequest is the account creation request body
type SignupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse is returned on successful signup and login
type AuthResponse struct {
	User   *models.User        `json:"user"`
	Tokens *services.TokenPair `json:"tokens"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user, tokens, err := h.authService.Signup(req.Email, req.Password, req.Name, role)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.auditSvc.LogSignup(user.ID, user.Email, user.Role, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		log.Printf("WARN: failed to log signup audit event: %v", err)
	}

	c.JSON(http.StatusCreated, AuthResponse{User: user, Tokens: tokens})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, tokens, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if logErr := h.auditSvc.LogLogin(nil, req.Email, false, utils.GetRealIP(c), utils.GetUserAgent(c)); logErr != nil {
			log.Printf("WARN: failed to log login audit event: %v", logErr)
		}
		respondError(c, err)
		return
	}

	if err := h.auditSvc.LogLogin(&user.ID, user.Email, true, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		log.Printf("WARN: failed to log login audit event: %v", err)
	}

	c.JSON(http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tokens, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}
