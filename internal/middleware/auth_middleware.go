package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quizhost-api/internal/domain/entity"
	"github.com/yourusername/quizhost-api/pkg/auth"
	"github.com/yourusername/quizhost-api/pkg/auth/manager"
)

// ViewerKey - ключ контекста Gin с идентичностью посетителя (*entity.User)
const ViewerKey = "viewer"

// UserResolver загружает идентичность по id из claims
type UserResolver interface {
	GetUserByID(id string) (*entity.User, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService   *auth.JWTService
	tokenManager *manager.TokenManager
	users        UserResolver
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService, tokenManager *manager.TokenManager, users UserResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:   jwtService,
		tokenManager: tokenManager,
		users:        users,
	}
}

// extractToken достает токен из куки, с фолбэком на заголовок Bearer
func (m *AuthMiddleware) extractToken(c *gin.Context) (string, bool) {
	if token, err := m.tokenManager.GetAccessTokenFromCookie(c.Request); err == nil {
		return token, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// resolveViewer превращает токен в загруженную идентичность
func (m *AuthMiddleware) resolveViewer(token string) (*entity.User, error) {
	claims, err := m.jwtService.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return m.users.GetUserByID(claims.UserID)
}

// RequireAuth пропускает только аутентифицированных посетителей
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.extractToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}

		viewer, err := m.resolveViewer(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		c.Set(ViewerKey, viewer)
		c.Set("user_id", viewer.ID)
		c.Next()
	}
}

// OptionalAuth разрешает идентичность, если токен предъявлен и валиден;
// иначе запрос продолжается анонимно. Невалидный токен не отклоняет
// запрос: анонимный доступ — легитимный режим для открытых викторин.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.extractToken(c)
		if !ok {
			c.Next()
			return
		}

		viewer, err := m.resolveViewer(token)
		if err != nil {
			log.Printf("[AuthMiddleware] Токен предъявлен, но не разрешился, запрос продолжается анонимно: %v", err)
			c.Next()
			return
		}

		c.Set(ViewerKey, viewer)
		c.Set("user_id", viewer.ID)
		c.Next()
	}
}

// Viewer возвращает идентичность посетителя из контекста; nil для анонима
func Viewer(c *gin.Context) *entity.User {
	if v, exists := c.Get(ViewerKey); exists {
		if user, ok := v.(*entity.User); ok {
			return user
		}
	}
	return nil
}
