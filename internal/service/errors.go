package service

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccount    = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrVerificationPending = errors.New("account not verified")
	ErrVerificationResent  = errors.New("account not verified. A new verification email has been sent to your email address")
	ErrTokenNotFound       = errors.New("invalid or expired verification token. Please request a new one by attempting to login")
	ErrTokenAlreadyUsed    = errors.New("this verification link has already been used or replaced by a newer one. Please use the link from your latest email, or login to receive a new one")
	ErrTokenExpired        = errors.New("verification link expired. Please login to receive a new verification email")
	ErrUserNotFound        = errors.New("user not found")
)

// VerificationPendingError is returned by Login while the resend cooldown is running.
type VerificationPendingError struct {
	RemainingMinutes int
}

func (e *VerificationPendingError) Error() string {
	return fmt.Sprintf("account not verified. Please wait %d more minute(s) before requesting a new verification email", e.RemainingMinutes)
}

func (e *VerificationPendingError) Unwrap() error {
	return ErrVerificationPending
}
