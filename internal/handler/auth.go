package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/middleware"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/service"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register godoc
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Credentials"
// @Success 201 {object} dto.AuthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("validation_error", "Invalid request body"))
		return
	}

	if errs := validator.ValidateRegisterRequest(req.Email, req.Password); errs.HasErrors() {
		writeValidationError(c, errs)
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("validation_error", "Invalid request body"))
		return
	}

	if errs := validator.ValidateLoginRequest(req.Email, req.Password); errs.HasErrors() {
		writeValidationError(c, errs)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VerifyEmail godoc
// @Summary Consume an email verification link
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} dto.AuthResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse
// @Router /api/v1/auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if errs := validator.ValidateVerificationToken(token); errs.HasErrors() {
		writeValidationError(c, errs)
		return
	}

	resp, err := h.authService.VerifyAccount(c.Request.Context(), token)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func writeValidationError(c *gin.Context, errs validator.ValidationErrors) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: errs.Error(),
		Fields:  errs,
	})
}

func writeServiceError(c *gin.Context, err error) {
	var pending *service.VerificationPendingError

	switch {
	case errors.As(err, &pending):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:            "verification_pending",
			Message:          pending.Error(),
			RemainingMinutes: pending.RemainingMinutes,
		})
	case errors.Is(err, service.ErrVerificationResent):
		c.JSON(http.StatusForbidden, dto.NewErrorResponse("verification_resent", err.Error()))
	case errors.Is(err, service.ErrDuplicateAccount):
		c.JSON(http.StatusConflict, dto.NewErrorResponse("duplicate_account", err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse("invalid_credentials", err.Error()))
	case errors.Is(err, service.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("token_not_found", err.Error()))
	case errors.Is(err, service.ErrTokenAlreadyUsed):
		c.JSON(http.StatusConflict, dto.NewErrorResponse("token_already_used", err.Error()))
	case errors.Is(err, service.ErrTokenExpired):
		c.JSON(http.StatusGone, dto.NewErrorResponse("token_expired", err.Error()))
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("user_not_found", "User not found"))
	default:
		middleware.GetLogger(c).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("internal_error", "Something went wrong, please try again later"))
	}
}
