package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/dto"
	"github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// RequestLogger logs one line per request. The verification token query is never logged.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		reqLogger := logger.Log.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		reqLogger.Debug("request_started")

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
			zap.Int("response_size", c.Writer.Size()),
			zap.String("email", GetEmail(c)),
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case statusCode >= 500:
			reqLogger.Error("request_completed", fields...)
		case statusCode >= 400:
			reqLogger.Warn("request_completed", fields...)
		case duration > time.Second:
			reqLogger.Warn("slow_request", fields...)
		default:
			reqLogger.Info("request_completed", fields...)
		}
	}
}

func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// GetLogger returns a logger carrying the request id.
func GetLogger(c *gin.Context) *zap.Logger {
	return logger.Log.With(
		zap.String("request_id", GetRequestID(c)),
		zap.String("email", GetEmail(c)),
	)
}

func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := GetRequestID(c)

				logger.Log.Error("panic_recovered",
					zap.String("request_id", requestID),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponse("internal_error", "An unexpected error occurred"))
			}
		}()

		c.Next()
	}
}
