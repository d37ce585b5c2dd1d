package identity

import (
	"errors"
	"fmt"
	"time"
)

// Identity is the external provider's record of the signed-in user. The
// application holds a read-only reference for the lifetime of a session.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
}

// Credentials bundle an Identity with the provider-minted tokens backing it.
type Credentials struct {
	SubjectID    string
	Email        string
	DisplayName  string
	AvatarURL    string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// Identity projects the read-only identity view out of the credentials.
func (credentials Credentials) Identity() *Identity {
	return &Identity{
		SubjectID:   credentials.SubjectID,
		Email:       credentials.Email,
		DisplayName: credentials.DisplayName,
		AvatarURL:   credentials.AvatarURL,
	}
}

// AuthErrorCode enumerates credential and identity failures.
type AuthErrorCode string

const (
	CodeInvalidCredentials AuthErrorCode = "invalid_credentials"
	CodePopupClosed        AuthErrorCode = "popup_closed"
	CodeEmailInUse         AuthErrorCode = "email_in_use"
	CodeWeakPassword       AuthErrorCode = "weak_password"
	CodeNoSession          AuthErrorCode = "no_session"
	CodeNetwork            AuthErrorCode = "network"
	CodeUnknown            AuthErrorCode = "unknown"
)

// AuthError is surfaced to the immediate caller for user-facing messaging.
// It never corrupts session state.
type AuthError struct {
	Code    AuthErrorCode
	Message string
	cause   error
}

// Error renders the dotted code together with the human message.
func (authErr *AuthError) Error() string {
	if authErr.Message == "" {
		return fmt.Sprintf("identity.auth.%s", authErr.Code)
	}
	return fmt.Sprintf("identity.auth.%s: %s", authErr.Code, authErr.Message)
}

// Unwrap exposes the underlying cause, if any.
func (authErr *AuthError) Unwrap() error {
	return authErr.cause
}

// NewAuthError constructs an AuthError with the given code and message.
func NewAuthError(code AuthErrorCode, message string) *AuthError {
	return &AuthError{Code: code, Message: message}
}

// WrapAuthError constructs an AuthError preserving the underlying cause.
func WrapAuthError(code AuthErrorCode, message string, cause error) *AuthError {
	return &AuthError{Code: code, Message: message, cause: cause}
}

// AsAuthError extracts an AuthError from an error chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
