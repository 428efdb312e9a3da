package retailer

import (
	"fmt"
	"strings"
)

type ErrorReason string

const (
	REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL ErrorReason = "FAILED_TO_TRANSLATE_TO_DB_MODEL"
	REASON_FAILED_TO_WRITE                 ErrorReason = "FAILED_TO_WRITE"
	REASON_RETAILER_DOES_NOT_EXIST         ErrorReason = "RETAILER_DOES_NOT_EXIST"
	REASON_RETAILER_ALREADY_EXISTS         ErrorReason = "RETAILER_ALREADY_EXISTS"
	REASON_FAILED_TO_FETCH                 ErrorReason = "FAILED_TO_FETCH"
	REASON_INVALID_CURSOR                  ErrorReason = "INVALID_CURSOR"
	REASON_TIMEOUT                         ErrorReason = "TIMEOUT"
	REASON_VALIDATION_FAILED               ErrorReason = "VALIDATION_FAILED"
	REASON_FAILED_TO_HASH_PASSWORD         ErrorReason = "FAILED_TO_HASH_PASSWORD"
	REASON_ALREADY_VERIFIED                ErrorReason = "ALREADY_VERIFIED"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
	// Details lists every violated rule for REASON_VALIDATION_FAILED.
	Details []string
}

func (e *Error) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s: %s (%s). Cause: %s", e.Reason, e.Message, strings.Join(e.Details, "; "), e.Cause)
	}
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newRetailerError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newRetailerError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewFailedToTranslateToDBModelError(message string, cause error) *Error {
	return newRetailerError(REASON_FAILED_TO_TRANSLATE_TO_DB_MODEL, message, cause)
}

func NewRetailerAlreadyExistsError(message string, cause error) *Error {
	return newRetailerError(REASON_RETAILER_ALREADY_EXISTS, message, cause)
}

func NewRetailerDoesNotExistError(message string, cause error) *Error {
	return newRetailerError(REASON_RETAILER_DOES_NOT_EXIST, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newRetailerError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewInvalidCursorError(message string, cause error) *Error {
	return newRetailerError(REASON_INVALID_CURSOR, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newRetailerError(REASON_TIMEOUT, message, nil)
}

func NewFailedToHashPasswordError(cause error) *Error {
	return newRetailerError(REASON_FAILED_TO_HASH_PASSWORD, "Failed to hash password", cause)
}

func NewAlreadyVerifiedError(id fmt.Stringer) *Error {
	return newRetailerError(REASON_ALREADY_VERIFIED, fmt.Sprintf("Retailer %q is already verified", id), nil)
}

func NewValidationFailedError(details []string) *Error {
	err := newRetailerError(REASON_VALIDATION_FAILED, "Validation failed", nil)
	err.Details = details
	return err
}
