package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/internal/handler/dto"
	"github.com/yourusername/quizhost-api/internal/middleware"
	apperrors "github.com/yourusername/quizhost-api/internal/pkg/errors"
	"github.com/yourusername/quizhost-api/internal/service"
	"github.com/yourusername/quizhost-api/pkg/auth/manager"
)

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	authService  *service.AuthService
	tokenManager *manager.TokenManager
	expiresInSec int
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService, tokenManager *manager.TokenManager, expirationHrs int) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenManager: tokenManager,
		expiresInSec: expirationHrs * 3600,
	}
}

// RegisterRequest представляет запрос на регистрацию
type RegisterRequest struct {
	Name     string         `json:"name" binding:"required,min=3,max=50"`
	Password string         `json:"password" binding:"required,min=3,max=50"`
	Props    entity.JSONMap `json:"props" binding:"omitempty"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse структура для ответа с пользовательскими данными и токеном
type AuthResponse struct {
	User        *dto.UserResponse `json:"user"`
	AccessToken string            `json:"accessToken"`
	TokenType   string            `json:"tokenType"`
	ExpiresIn   int               `json:"expiresIn"`
}

// Register обрабатывает запрос на регистрацию
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Register(req.Name, req.Password, req.Props)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	log.Printf("[AuthHandler] Пользователь id=%s (%s) успешно зарегистрирован", user.ID, user.Name)

	h.tokenManager.SetAccessTokenCookie(c.Writer, token)
	c.JSON(http.StatusCreated, AuthResponse{
		User:        dto.NewUserResponse(user),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.expiresInSec,
	})
}

// Login обрабатывает запрос на вход
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Login(req.Name, req.Password)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	h.tokenManager.SetAccessTokenCookie(c.Writer, token)
	c.JSON(http.StatusOK, AuthResponse{
		User:        dto.NewUserResponse(user),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.expiresInSec,
	})
}

// Logout обрабатывает запрос на выход: достаточно сбросить куку
func (h *AuthHandler) Logout(c *gin.Context) {
	h.tokenManager.ClearAccessTokenCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me возвращает идентичность текущего посетителя
func (h *AuthHandler) Me(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer.IsAnonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(viewer))
}

// handleAuthError обрабатывает ошибки аутентификации и возвращает соответствующие HTTP-ответы
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	log.Printf("[AuthHandler] Auth Error: %v", err)

	switch {
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Name is already taken", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Bad credential", "error_type": "invalid_credentials"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}
