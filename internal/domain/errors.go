package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID     = "invalid"     // Invalid input or validation failure
	EFORBIDDEN   = "forbidden"   // Permission denied
	ENOTFOUND    = "not_found"   // Resource not found
	EINTERNAL    = "internal"    // Internal server error
	EPAYMENT     = "payment"     // Plan upgrade required
	EUNAVAILABLE = "unavailable" // Entitlement could not be determined
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "subscription.resolve")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		// Internal errors never leak their message
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// UserNotFound is returned when a subscription's role has to be inferred
// from a user that does not exist. Callers translate it into an auth failure.
func UserNotFound(op, userID string) *Error {
	return NotFound(op, "user", userID)
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Unavailable reports that entitlement could not be determined. The action
// it guards must be denied.
func Unavailable(err error, op string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: "We could not verify your plan right now. Please try again shortly.",
		Err:     err,
	}
}

// QuotaExceeded creates the error surfaced when a metered action is denied.
// The message names the plan and its limit for the counter.
func QuotaExceeded(op string, plan Plan, quota QuotaType, limit Limit) *Error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: fmt.Sprintf("Your %s plan includes %s %s per billing cycle. Please upgrade your plan.", plan.DisplayName(), limit, quota.Noun()),
	}
}

// IsQuotaExceeded reports whether err denies an action for lack of quota.
func IsQuotaExceeded(err error) bool {
	return ErrorCode(err) == EPAYMENT
}
