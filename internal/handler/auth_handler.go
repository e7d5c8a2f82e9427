package handler

import (
	"github.com/gin-gonic/gin"

	"facturaia/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var input service.RefreshInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}

	tokenPair, err := h.authService.RefreshToken(c.Request.Context(), input.RefreshToken)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, tokenPair)
}

// Profile handles GET /api/v1/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), actor)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, user)
}
