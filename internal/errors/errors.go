package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// MaxVerificationAttempts is the number of submissions allowed per code.
const MaxVerificationAttempts = 5

// Kind classifies an AppError for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindConflict
	KindNotFound
	KindRateLimited
	KindUpstream
)

// AppError is a domain error with a stable machine code and a message that
// is safe to show to users.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = newError(KindAuthentication, "INVALID_CREDENTIALS", "Invalid email or password")
	// ErrWrongProvider is returned when a password login targets an OAuth-only account.
	ErrWrongProvider = newError(KindAuthentication, "WRONG_PROVIDER", "This email is registered with Google. Please use Google login.")
	// ErrInvalidToken is returned when a session token is missing, malformed or expired.
	ErrInvalidToken = newError(KindAuthentication, "INVALID_TOKEN", "Invalid token")
	// ErrEmailExists is returned when signing up with a registered email.
	ErrEmailExists = newError(KindConflict, "EMAIL_EXISTS", "An account with this email already exists")
	// ErrActiveSubscriptionExists guards the one-active-subscription rule.
	ErrActiveSubscriptionExists = newError(KindConflict, "ACTIVE_SUBSCRIPTION_EXISTS", "User already has an active subscription")
	// ErrUserNotFound is returned when an authenticated identity no longer exists.
	ErrUserNotFound = newError(KindNotFound, "USER_NOT_FOUND", "User not found")
	// ErrInvalidCode is returned for a wrong, expired or never requested verification code.
	ErrInvalidCode = newError(KindValidation, "INVALID_CODE", "Invalid verification code")
	// ErrTooManyAttempts is returned once a code has been tried more than MaxVerificationAttempts times.
	ErrTooManyAttempts = newError(KindRateLimited, "TOO_MANY_ATTEMPTS", "Too many attempts. Please request a new verification code.")
	// ErrGoogleAccountNoPassword is returned when changing the password of an OAuth-only account.
	ErrGoogleAccountNoPassword = newError(KindValidation, "GOOGLE_ACCOUNT_NO_PASSWORD", "Google users cannot change password. Please manage your password through your Google account.")
	// ErrIncorrectPassword is returned when the current password does not match.
	ErrIncorrectPassword = newError(KindValidation, "INCORRECT_PASSWORD", "Current password is incorrect")
	// ErrDeliveryFailed is returned when the verification email could not be sent.
	ErrDeliveryFailed = newError(KindUpstream, "DELIVERY_FAILED", "Failed to send verification email")
	// ErrUpstream is returned for identity provider failures.
	ErrUpstream = newError(KindUpstream, "UPSTREAM_ERROR", "External provider error")
	// ErrInternal hides database and other infrastructure faults.
	ErrInternal = newError(KindInternal, "INTERNAL_ERROR", "internal server error")
)

// Internal wraps an infrastructure fault so that only the generic message
// crosses the service boundary. The cause stays reachable through errors.Unwrap.
func Internal(cause error) error {
	return &internalError{cause: cause}
}

type internalError struct {
	cause error
}

func (e *internalError) Error() string { return ErrInternal.Message + ": " + e.cause.Error() }

func (e *internalError) Is(target error) bool { return target == ErrInternal }

func (e *internalError) Unwrap() error { return e.cause }

// VerificationFailure carries the attempt count of a rejected code.
type VerificationFailure struct {
	Attempts int
	Err      *AppError
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("%s (attempt %d)", e.Err.Message, e.Attempts)
}

func (e *VerificationFailure) Unwrap() error {
	return e.Err
}

// AttemptsLeft never goes below zero.
func (e *VerificationFailure) AttemptsLeft() int {
	left := MaxVerificationAttempts - e.Attempts
	if left < 0 {
		return 0
	}
	return left
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error        string `json:"error"`
	Code         string `json:"code"`
	AttemptsLeft *int   `json:"attemptsLeft,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode   int
	Message      string
	Code         string
	AttemptsLeft *int
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:        e.Message,
		Code:         e.Code,
		AttemptsLeft: e.AttemptsLeft,
	}
}

// StatusFor returns the HTTP status used for an error kind.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	if errors.Is(err, ErrInternal) {
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Message, ErrInternal.Code)
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, ErrInternal.Message, ErrInternal.Code)
	}

	httpErr := NewHTTPError(StatusFor(appErr.Kind), appErr.Message, appErr.Code)
	if appErr.Kind == KindInternal {
		httpErr.Message = ErrInternal.Message
	}

	var vf *VerificationFailure
	if errors.As(err, &vf) && errors.Is(err, ErrInvalidCode) {
		left := vf.AttemptsLeft()
		httpErr.AttemptsLeft = &left
	}
	return httpErr
}
