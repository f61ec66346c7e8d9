package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/middleware"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/service"
)

type UserHandler struct {
	authService *service.AuthService
}

func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// GetMe godoc
// @Summary Get current user profile
// @Tags users
// @Security BearerAuth
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	email := middleware.GetEmail(c)
	if email == "" {
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse("unauthorized", ""))
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), email)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user.ToPublic())
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
