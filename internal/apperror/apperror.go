package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation error")
	ErrDuplicateEmail       = errors.New("duplicate email")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrWrongMethod          = errors.New("wrong login method")
	ErrVerificationRequired = errors.New("verification required")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrDeliveryFailed       = errors.New("delivery failed")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// AppError carries a sentinel (for errors.Is dispatch), a human-readable
// message safe to show the user, and optional remediation hints that some
// responses include verbatim (which OAuth button to press).
type AppError struct {
	Err      error  // sentinel from the list above
	Message  string // human-readable, client-safe
	Field    string // optional: field causing a validation error
	Provider string // optional: provider display name for WrongMethod
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateEmail is returned when a signup would create a second record for
// an email that already has one. The message never echoes the email back.
func DuplicateEmail() *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: "User already exists with this email address. Please login instead.",
	}
}

// InvalidCredentials is the generic login failure. It deliberately does not
// distinguish "no such account" from "wrong password".
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials",
	}
}

// WrongMethod is returned when a password operation is attempted on an
// account that only has an OAuth identity. provider is the display name
// ("Google", "Microsoft") or "" when the provider is unknown.
func WrongMethod(provider string) *AppError {
	msg := "This account was created using social login. Please use the appropriate social login button to access your account."
	if provider != "" {
		msg = fmt.Sprintf("This account was created using %s Sign-In. Please use %q to log in.", provider, "Continue with "+provider)
	}
	return &AppError{
		Err:      ErrWrongMethod,
		Message:  msg,
		Provider: provider,
	}
}

// VerificationRequired blocks password login until the email is verified.
func VerificationRequired() *AppError {
	return &AppError{
		Err:     ErrVerificationRequired,
		Message: "Please verify your email address before logging in. Check your inbox for the verification link.",
	}
}

// TokenInvalid covers every token failure with one message. Callers must not
// leak whether the signature was bad or the token merely expired.
func TokenInvalid() *AppError {
	return &AppError{
		Err:     ErrTokenInvalid,
		Message: "Invalid or expired token",
	}
}

// DeliveryFailed wraps a final (post-retry) email delivery failure.
func DeliveryFailed(err error) *AppError {
	return &AppError{
		Err:     ErrDeliveryFailed,
		Message: fmt.Sprintf("email delivery failed: %v", err),
	}
}

// StoreUnavailable maps unexpected storage failures. HTTP handlers turn this
// into a generic 500 with no detail leakage; the cause stays in the chain
// for logging.
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStoreUnavailable, err),
		Message: "Server error",
	}
}
