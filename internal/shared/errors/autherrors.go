package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types
const (
	ErrorTypeTokenExpired     ErrorType = "token_expired"
	ErrorTypeTokenInvalid     ErrorType = "token_invalid"
	ErrorTypeSessionNotFound  ErrorType = "session_not_found"
	ErrorTypeSessionExpired   ErrorType = "session_expired"
	ErrorTypeDuplicateSession ErrorType = "duplicate_session"
)

// AuthError represents authentication-specific errors with enhanced security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged
	// Some auth errors (like a normally expired token) are expected and don't need error-level logging
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewTokenExpiredError creates an error for expired tokens (JWT, refresh, etc.)
func NewTokenExpiredError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExpired,
			Message: fmt.Sprintf("%s has expired", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Please login again",
		},
		ShouldLog:     false, // Normal expiration
		SecurityEvent: false,
	}
}

// NewTokenInvalidError creates an error for invalid tokens
func NewTokenInvalidError(tokenType string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenInvalid,
			Message: fmt.Sprintf("Invalid %s", tokenType),
			Code:    http.StatusUnauthorized,
			Details: "Token is invalid or has been revoked",
		},
		ShouldLog:     true, // May indicate tampering
		SecurityEvent: true, // Potential security issue
	}
}

// NewSessionNotFoundError creates an error for sessions that no longer exist
func NewSessionNotFoundError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSessionNotFound,
			Message: "Session not found",
			Code:    http.StatusUnauthorized,
			Details: "Session does not exist or has been revoked",
		},
		ShouldLog:     false, // Expected after logout or eviction
		SecurityEvent: false,
	}
}

// NewSessionExpiredError creates an error for expired sessions
func NewSessionExpiredError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeSessionExpired,
			Message: "Session has expired",
			Code:    http.StatusUnauthorized,
			Details: "Please login again",
		},
		ShouldLog:     false, // Normal expiration
		SecurityEvent: false,
	}
}

// NewDuplicateSessionError creates an internal error for a session ID collision.
// This indicates a bug in the ID generation strategy, not an expected runtime condition.
func NewDuplicateSessionError(sessionID string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeDuplicateSession,
			Message: "Duplicate session ID",
			Code:    http.StatusInternalServerError,
			Details: sessionID,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// ShouldLogAuthError returns true if the authentication error should be logged
// This helps reduce noise in logs from expected auth failures
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true // Default to logging if not an AuthError
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
