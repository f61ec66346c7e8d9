package dto

import "github.com/zhanserikAmangeldi/apex-be/auth-service/pkg/validator"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Email   string `json:"email,omitempty"`
}

type ErrorResponse struct {
	Error            string                     `json:"error"`
	Message          string                     `json:"message,omitempty"`
	RemainingMinutes int                        `json:"remaining_minutes,omitempty"`
	Fields           []validator.ValidationError `json:"fields,omitempty"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: code, Message: message}
}
