package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/jwt"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer"

	EmailKey = "email"
)

type AuthMiddleware struct {
	tokenManager *jwt.TokenManager
}

func NewAuthMiddleware(tokenManager *jwt.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tokenManager}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse("unauthorized", err.Error()))
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse("unauthorized", "invalid or expired token"))
			return
		}

		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != BearerSchema || parts[1] == "" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

func GetEmail(c *gin.Context) string {
	val, exists := c.Get(EmailKey)
	if !exists {
		return ""
	}
	email, _ := val.(string)
	return email
}

var (
	ErrMissingAuthHeader = &AuthError{Message: "authorization header is required"}
	ErrInvalidAuthHeader = &AuthError{Message: "invalid authorization header format"}
)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
